package email

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/devjourney/blog-api/internal/core/ports"
)

// ErrProviderUnavailable is returned without calling the provider while the
// breaker is open.
var ErrProviderUnavailable = errors.New("email provider unavailable")

// Breaker stops calling a failing provider for a cool-down period. Jobs that
// hit an open breaker fail fast and are retried by the queue.
type Breaker struct {
	name    string
	next    ports.EmailSender
	cb      *gobreaker.CircuitBreaker
	observe Observer
}

// Observer is told about the outcome of every send: "sent", "failed" or
// "rejected" when the breaker is open.
type Observer func(provider, outcome string)

func NewBreaker(name string, next ports.EmailSender, log zerolog.Logger, observe Observer) *Breaker {
	return newBreaker(name, next, log, observe, 30*time.Second)
}

func newBreaker(name string, next ports.EmailSender, log zerolog.Logger, observe Observer, timeout time.Duration) *Breaker {
	settings := gobreaker.Settings{
		Name:        "email-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("email circuit breaker state changed")
		},
	}
	return &Breaker{name: name, next: next, cb: gobreaker.NewCircuitBreaker(settings), observe: observe}
}

func (b *Breaker) Send(ctx context.Context, msg ports.EmailMessage) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, msg)
	})
	switch {
	case err == nil:
		b.report("sent")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.report("rejected")
		return ErrProviderUnavailable
	default:
		b.report("failed")
		return err
	}
}

func (b *Breaker) report(outcome string) {
	if b.observe != nil {
		b.observe(b.name, outcome)
	}
}

// State reports the breaker state, for health checks.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
