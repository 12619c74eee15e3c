// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"p2p-lending/internal/domain/event"
)

const namespace = "p2p_lending"

type Metrics struct {
	reg *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	events    *prometheus.CounterVec
	overdue   prometheus.Counter
	reminders prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Lifecycle events by type and delivery result.",
		}, []string{"type", "result"}),
		overdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_marked_overdue_total",
			Help:      "Installments moved to OVERDUE by the sweeper.",
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repayment_reminders_total",
			Help:      "RepaymentDue reminders emitted by the sweeper.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.events, m.overdue, m.reminders,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records every request under its route pattern, never the raw
// path, to keep label cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func (m *Metrics) ObserveSweep(overdue int64, reminders int) {
	m.overdue.Add(float64(overdue))
	m.reminders.Add(float64(reminders))
}

// Publisher counts delivery results of the wrapped publisher.
func (m *Metrics) Publisher(next event.Publisher) event.Publisher {
	return countingPublisher{next: next, events: m.events}
}

type countingPublisher struct {
	next   event.Publisher
	events *prometheus.CounterVec
}

func (p countingPublisher) Publish(ctx context.Context, ev event.Event) error {
	err := p.next.Publish(ctx, ev)
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.events.WithLabelValues(string(ev.Type), result).Inc()
	return err
}
