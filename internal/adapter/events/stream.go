// Package events delivers lifecycle events to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"p2p-lending/internal/domain/event"
)

const DefaultStreamMaxLen int64 = 100_000

// Stream appends events to a Redis stream with XADD MAXLEN ~.
type Stream struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewStream(rdb *redis.Client, stream string, maxLen int64) *Stream {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &Stream{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (s *Stream) Publish(ctx context.Context, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", ev.Type, err)
	}
	err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":      ev.ID,
			"type":    string(ev.Type),
			"loan_id": ev.LoanID,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("events: xadd %s: %w", s.stream, err)
	}
	return nil
}
