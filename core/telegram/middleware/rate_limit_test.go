package middleware

import (
	"testing"
	"time"

	"github.com/m3rciful/ticketbot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func TestRateLimitThrottlesPerUser(t *testing.T) {
	var handled, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Burst:     2,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	for i := 0; i < 3; i++ {
		if err := h(teletest.NewText(7, "/tickets")); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}
	if handled != 2 || limited != 1 {
		t.Fatalf("user 7: handled=%d limited=%d", handled, limited)
	}

	if err := h(teletest.NewText(8, "/tickets")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if handled != 3 {
		t.Fatalf("other user must have its own bucket, handled=%d", handled)
	}
}

func TestRateLimitExcludedKinds(t *testing.T) {
	var handled int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Burst:    1,
		Exclude:  map[string]struct{}{"callback": {}},
	})
	h := mw(func(tele.Context) error { handled++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(teletest.NewCallback(7, "learn_results", ""))
	}
	if handled != 3 {
		t.Fatalf("callbacks must bypass the limiter, handled=%d", handled)
	}
}

func TestLimiterSetForgetsIdleUsers(t *testing.T) {
	now := time.Now()
	set := &limiterSet{visitors: map[int64]*visitor{}, limit: 1, burst: 1, ttl: time.Minute, lastGC: now}
	set.allow(1, now)
	set.allow(2, now.Add(2*time.Minute))
	if _, ok := set.visitors[1]; ok {
		t.Fatal("idle visitor not collected")
	}
	if len(set.visitors) != 1 {
		t.Fatalf("visitors = %d", len(set.visitors))
	}
}
