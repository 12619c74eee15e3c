package events

import (
	"context"
	"errors"
	"log/slog"

	"p2p-lending/internal/domain/event"
)

// Log writes each event as one structured log line.
type Log struct{ l *slog.Logger }

func NewLog(l *slog.Logger) *Log { return &Log{l: l} }

func (p *Log) Publish(ctx context.Context, ev event.Event) error {
	p.l.InfoContext(ctx, "event",
		"event_id", ev.ID,
		"type", ev.Type,
		"loan_id", ev.LoanID,
		"occurred_at", ev.OccurredAt,
		"data", ev.Data,
	)
	return nil
}

// Fanout publishes to every sink and joins their errors; one failing sink
// does not stop the others.
type Fanout []event.Publisher

func (f Fanout) Publish(ctx context.Context, ev event.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
