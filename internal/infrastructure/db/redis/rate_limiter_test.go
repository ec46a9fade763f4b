package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Key(t *testing.T) {
	l := NewRateLimiter(nil)

	if got := l.key("login: Bob@Example.com "); got != "ratelimit:login: bob@example.com" {
		t.Fatalf("unexpected key %q", got)
	}
	if l.key("login:1.2.3.4") == l.key("register:1.2.3.4") {
		t.Fatalf("scopes must not share a window")
	}
}

func TestRateLimiter_DisabledLimitsNeverTouchRedis(t *testing.T) {
	// a nil client would panic if the script ran
	l := NewRateLimiter(nil)

	cases := []struct {
		key    string
		limit  int
		window time.Duration
	}{
		{"login:1.2.3.4", 0, time.Minute},
		{"login:1.2.3.4", 5, 0},
		{"", 5, time.Minute},
	}
	for _, c := range cases {
		ok, err := l.Allow(context.Background(), c.key, c.limit, c.window)
		if err != nil || !ok {
			t.Fatalf("Allow(%q, %d, %s) = %v, %v; want allowed", c.key, c.limit, c.window, ok, err)
		}
	}
}
