// Package middleware holds the echo middleware shared by every API route.
package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"p2p-lending/pkg/id"
)

const (
	// in-progress marker lifetime; a crashed handler frees the key after this
	defaultLockTTL = 60 * time.Second
	maxClockSkew   = 10 * time.Minute
	storeTimeout   = 2 * time.Second
)

type Idempotency struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

// NewIdempotency replays the stored response of a mutating request whose
// (method, route, actor, request id) was already served within ttl.
func NewIdempotency(rdb *redis.Client, ttl time.Duration) *Idempotency {
	return &Idempotency{
		store: store{rdb: rdb, lockTTL: defaultLockTTL},
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type recorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func reject(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func (m *Idempotency) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderRequestID)))
			if reqID == "" {
				return reject(c, http.StatusBadRequest, "missing "+HeaderRequestID)
			}
			if !validRequestID(reqID) {
				return reject(c, http.StatusBadRequest, "invalid "+HeaderRequestID+" format")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error())
			}
			now := m.now()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return reject(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}
			actor := strings.TrimSpace(req.Header.Get(HeaderActorID))
			if actor == "" {
				return reject(c, http.StatusBadRequest, "missing "+HeaderActorID)
			}
			if !id.Valid(actor) {
				return reject(c, http.StatusBadRequest, "invalid "+HeaderActorID)
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return reject(c, http.StatusBadRequest, "unreadable body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			key := buildKey(req.Method, c.Path(), actor, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			ok, err := m.store.lock(ctx, key, entry{InProgress: true, BodySHA256: hash, RequestAt: reqAt, StoredAt: now})
			if err != nil {
				slog.ErrorContext(ctx, "idempotency store unavailable", "key", key, "err", err)
				return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !ok {
				cur, err := m.store.load(ctx, key)
				if err != nil {
					slog.WarnContext(ctx, "idempotency entry unreadable", "key", key, "err", err)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
					return reject(c, http.StatusConflict, HeaderRequestID+" reused with different body")
				}
				if cur.replayable() {
					c.Response().Header().Set("Ax-Idempotent-Replay", "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return reject(c, http.StatusConflict, "request is already in progress")
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request outlives ctx's deadline; store with a fresh one
			sctx, scancel := context.WithTimeout(context.WithoutCancel(req.Context()), storeTimeout)
			defer scancel()
			if rec.code >= http.StatusInternalServerError {
				err = m.store.release(sctx, key)
			} else {
				err = m.store.save(sctx, key, entry{
					Code:       rec.code,
					Body:       rec.buf.Bytes(),
					BodySHA256: hash,
					RequestAt:  reqAt,
					StoredAt:   m.now(),
				}, m.ttl)
			}
			if err != nil {
				slog.WarnContext(sctx, "idempotency entry not stored", "key", key, "err", err)
			}
			return nil
		}
	}
}
