package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/ports"
)

type fakeSender struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSender) Send(context.Context, ports.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSender) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	next := &fakeSender{err: errors.New("503 from provider")}
	outcomes := map[string]int{}
	b := newBreaker("test", next, zerolog.Nop(), func(_, o string) { outcomes[o]++ }, time.Hour)

	for i := 0; i < 3; i++ {
		if err := b.Send(context.Background(), ports.EmailMessage{}); err == nil || errors.Is(err, ErrProviderUnavailable) {
			t.Fatalf("call %d: expected provider error, got %v", i+1, err)
		}
	}

	if err := b.Send(context.Background(), ports.EmailMessage{}); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable once open, got %v", err)
	}
	if next.count() != 3 {
		t.Fatalf("open breaker must not call the provider, calls=%d", next.count())
	}
	if outcomes["failed"] != 3 || outcomes["rejected"] != 1 {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
	if b.State() != "open" {
		t.Fatalf("expected open state, got %s", b.State())
	}
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	next := &fakeSender{err: errors.New("down")}
	b := newBreaker("test", next, zerolog.Nop(), nil, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = b.Send(context.Background(), ports.EmailMessage{})
	}
	next.setErr(nil)
	time.Sleep(20 * time.Millisecond)

	if err := b.Send(context.Background(), ports.EmailMessage{}); err != nil {
		t.Fatalf("half-open probe should reach the provider: %v", err)
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed after a successful probe, got %s", b.State())
	}
}

func TestBreaker_SuccessesKeepItClosed(t *testing.T) {
	next := &fakeSender{}
	b := NewBreaker("test", next, zerolog.Nop(), nil)
	for i := 0; i < 10; i++ {
		if err := b.Send(context.Background(), ports.EmailMessage{}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if next.count() != 10 {
		t.Fatalf("expected 10 provider calls, got %d", next.count())
	}
}
