// Package quota implements fixed-window request counters in redis. The API rate limiter and the
// loader's per-provider daily quotas share it.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config defines one fixed window.
type Config struct {
	// Window is the length of a counting window.
	Window time.Duration
	// Limit is the number of hits allowed per window.
	Limit int64
	// KeyPrefix namespaces the redis keys.
	KeyPrefix string
}

// Usage describes a key's state after a hit.
type Usage struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// RetryAfter is the time left until the window resets.
func (u Usage) RetryAfter(now time.Time) time.Duration {
	if d := u.Reset.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Window counts hits per key in fixed windows.
type Window struct {
	redis  *redis.Client
	config Config
	now    func() time.Time
}

// NewWindow creates a fixed-window counter.
func NewWindow(client *redis.Client, cfg Config) *Window {
	return &Window{redis: client, config: cfg, now: time.Now}
}

func (w *Window) key(id string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", w.config.KeyPrefix, id, windowStart.Unix())
}

// Hit counts one request for id and reports whether it fits in the current window.
func (w *Window) Hit(ctx context.Context, id string) (Usage, error) {
	windowStart := w.now().Truncate(w.config.Window)
	key := w.key(id, windowStart)

	pipe := w.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, w.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Usage{}, err
	}

	return w.usage(incr.Val(), windowStart, true), nil
}

// Peek reports the state of id without counting a hit.
func (w *Window) Peek(ctx context.Context, id string) (Usage, error) {
	windowStart := w.now().Truncate(w.config.Window)
	count, err := w.redis.Get(ctx, w.key(id, windowStart)).Int64()
	if err == redis.Nil {
		count = 0
	} else if err != nil {
		return Usage{}, err
	}
	return w.usage(count, windowStart, false), nil
}

func (w *Window) usage(count int64, windowStart time.Time, counted bool) Usage {
	remaining := w.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	allowed := count <= w.config.Limit
	if !counted {
		allowed = count < w.config.Limit
	}
	return Usage{
		Allowed:   allowed,
		Limit:     w.config.Limit,
		Remaining: remaining,
		Reset:     windowStart.Add(w.config.Window),
	}
}

// Daily is a per-provider daily request quota for the loader.
type Daily struct {
	window *Window
}

// NewDaily creates a daily quota of limit requests.
func NewDaily(client *redis.Client, limit int64) *Daily {
	return &Daily{window: NewWindow(client, Config{
		Window:    24 * time.Hour,
		Limit:     limit,
		KeyPrefix: "quota:provider",
	})}
}

// Allow counts one provider request against the quota for key.
func (d *Daily) Allow(ctx context.Context, key string) (bool, error) {
	u, err := d.window.Hit(ctx, key)
	if err != nil {
		return false, err
	}
	return u.Allowed, nil
}
