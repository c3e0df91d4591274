package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newLocalDeduper(start time.Time) (*Deduper, *time.Time) {
	now := start
	d := NewDeduper(nil)
	d.now = func() time.Time { return now }
	return d, &now
}

func TestDeduperLocalWindow(t *testing.T) {
	ctx := context.Background()
	d, now := newLocalDeduper(time.Unix(1_700_000_000, 0))

	if !d.Acquire(ctx, "domain_down:dom-1", time.Hour) {
		t.Fatal("first acquire should succeed")
	}
	if d.Acquire(ctx, "domain_down:dom-1", time.Hour) {
		t.Fatal("second acquire inside the window should be suppressed")
	}
	if !d.Acquire(ctx, "domain_down:dom-2", time.Hour) {
		t.Fatal("a different key should not be suppressed")
	}

	*now = now.Add(time.Hour + time.Second)
	if !d.Acquire(ctx, "domain_down:dom-1", time.Hour) {
		t.Fatal("acquire after the window should succeed again")
	}
}

func TestDeduperPeekDoesNotMark(t *testing.T) {
	ctx := context.Background()
	d, _ := newLocalDeduper(time.Unix(1_700_000_000, 0))

	if d.Peek(ctx, "k", time.Hour) {
		t.Fatal("peek on an unseen key should be false")
	}
	if !d.Acquire(ctx, "k", time.Hour) {
		t.Fatal("acquire should succeed")
	}
	if !d.Peek(ctx, "k", time.Hour) {
		t.Fatal("peek after acquire should report suppression")
	}
}

func TestDeduperClearRearms(t *testing.T) {
	ctx := context.Background()
	d, _ := newLocalDeduper(time.Unix(1_700_000_000, 0))

	d.Acquire(ctx, "k", time.Hour)
	d.Clear(ctx, "k")
	if !d.Acquire(ctx, "k", time.Hour) {
		t.Fatal("acquire after clear should succeed")
	}
}

func TestKey(t *testing.T) {
	if got := Key("domain_expiration", "dom-1", "d30"); got != "domain_expiration:dom-1:d30" {
		t.Errorf("Key = %q", got)
	}
	if got := Key("weekly_digest"); got != "weekly_digest" {
		t.Errorf("Key with no parts = %q", got)
	}
}

func TestNotifyThrottle(t *testing.T) {
	ctx := context.Background()
	d, now := newLocalDeduper(time.Unix(1_700_000_000, 0))
	throttle := NewNotifyThrottle(d, time.Minute)

	if !throttle.Allow(ctx, "net-1", false) {
		t.Fatal("first notification should be allowed")
	}
	if throttle.Allow(ctx, "net-1", false) {
		t.Fatal("second notification inside the window should be throttled")
	}
	if !throttle.Allow(ctx, "net-1", true) {
		t.Fatal("critical notifications bypass the throttle")
	}
	if !throttle.Allow(ctx, "net-2", false) {
		t.Fatal("other networks are throttled independently")
	}

	*now = now.Add(2 * time.Minute)
	if !throttle.Allow(ctx, "net-1", false) {
		t.Fatal("notification after the window should be allowed")
	}
}
