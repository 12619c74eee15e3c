package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// Deduper remembers keys in Redis so an action runs once per key and ttl.
type Deduper struct {
	rdb    *redis.Client
	prefix string
}

func NewDeduper(rdb *redis.Client, prefix string) *Deduper {
	return &Deduper{rdb: rdb, prefix: prefix}
}

// Once reports true the first time key is seen within ttl.
func (d *Deduper) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.rdb.SetNX(ctx, d.prefix+":"+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
