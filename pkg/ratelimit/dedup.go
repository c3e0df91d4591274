// Package ratelimit provides alert deduplication and notification
// throttling. State lives in Redis when available, with an in-process
// fallback map; after a restart the worst case is one duplicate alert.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const localEvictAfter = 48 * time.Hour

// Deduper suppresses repeated events for a key within a window.
type Deduper struct {
	redis *redis.Client
	local map[string]time.Time
	mu    sync.Mutex
	now   func() time.Time
}

// NewDeduper creates a deduper. redisClient may be nil.
func NewDeduper(redisClient *redis.Client) *Deduper {
	return &Deduper{
		redis: redisClient,
		local: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Key builds a dedup key from a kind and entity parts.
func Key(kind string, parts ...string) string {
	key := kind
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Acquire returns true if the key has not fired within the window, and
// marks it as fired. A false return means the event is a duplicate.
func (d *Deduper) Acquire(ctx context.Context, key string, window time.Duration) bool {
	redisKey := fmt.Sprintf("alertdedup:%s", key)

	if d.redis != nil {
		ok, err := d.redis.SetNX(ctx, redisKey, "1", window).Result()
		if err == nil {
			if ok {
				d.markLocal(key)
			}
			return ok
		}
		// Redis error: fall through to local map
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	last, exists := d.local[key]
	if exists && d.now().Sub(last) < window {
		return false
	}
	d.local[key] = d.now()
	d.evictLocked()
	return true
}

// Peek reports whether the key is currently suppressed without marking it.
func (d *Deduper) Peek(ctx context.Context, key string, window time.Duration) bool {
	redisKey := fmt.Sprintf("alertdedup:%s", key)

	if d.redis != nil {
		exists, err := d.redis.Exists(ctx, redisKey).Result()
		if err == nil {
			return exists > 0
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	last, exists := d.local[key]
	return exists && d.now().Sub(last) < window
}

// Clear removes a key so the next Acquire succeeds. Used when a state
// transition should re-arm alerting (e.g. recovery after a down alert).
func (d *Deduper) Clear(ctx context.Context, key string) {
	if d.redis != nil {
		d.redis.Del(ctx, fmt.Sprintf("alertdedup:%s", key))
	}
	d.mu.Lock()
	delete(d.local, key)
	d.mu.Unlock()
}

func (d *Deduper) markLocal(key string) {
	d.mu.Lock()
	d.local[key] = d.now()
	d.evictLocked()
	d.mu.Unlock()
}

func (d *Deduper) evictLocked() {
	if len(d.local) < 4096 {
		return
	}
	cutoff := d.now().Add(-localEvictAfter)
	for k, v := range d.local {
		if v.Before(cutoff) {
			delete(d.local, k)
		}
	}
}

// NotifyThrottle rate-limits per-network chat notifications.
type NotifyThrottle struct {
	dedup  *Deduper
	window time.Duration
}

// NewNotifyThrottle creates a throttle with the given minimum interval
// between notifications for one network.
func NewNotifyThrottle(dedup *Deduper, window time.Duration) *NotifyThrottle {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &NotifyThrottle{dedup: dedup, window: window}
}

// Allow reports whether a notification for the network may be sent now.
// Critical actions bypass the throttle entirely.
func (t *NotifyThrottle) Allow(ctx context.Context, networkID string, critical bool) bool {
	if critical {
		return true
	}
	return t.dedup.Acquire(ctx, Key("notify_network", networkID), t.window)
}
