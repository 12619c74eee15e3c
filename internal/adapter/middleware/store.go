package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type entry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code,omitempty"`
	Body       []byte    `json:"body,omitempty"`
	BodySHA256 string    `json:"body_sha256"`
	RequestAt  time.Time `json:"request_at"`
	StoredAt   time.Time `json:"stored_at"`
}

func (e entry) replayable() bool { return !e.InProgress && e.Code != 0 }

type store struct {
	rdb     *redis.Client
	lockTTL time.Duration
}

// lock writes the in-progress marker; false means the key already exists.
func (s store) lock(ctx context.Context, key string, e entry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, s.lockTTL).Result()
}

func (s store) load(ctx context.Context, key string) (entry, error) {
	var e entry
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(b, &e)
	return e, err
}

func (s store) save(ctx context.Context, key string, e entry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// release drops the key so the client may retry with the same request id.
func (s store) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
