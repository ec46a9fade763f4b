package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const jobChannel = "jobs:ready"

// JobNotifier wakes idle queue workers across instances when a job is
// enqueued for immediate execution. Delivery is best effort: workers still
// poll, so a lost message only delays a job until the next poll.
type JobNotifier struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewJobNotifier(client *redis.Client, log zerolog.Logger) *JobNotifier {
	return &JobNotifier{client: client, log: log}
}

// Notify publishes the name of a job that became ready.
func (n *JobNotifier) Notify(ctx context.Context, name string) error {
	if err := n.client.Publish(ctx, jobChannel, name).Err(); err != nil {
		return fmt.Errorf("publish job wake-up: %w", err)
	}
	return nil
}

// Subscribe delivers wake-ups on the returned channel until ctx is done.
func (n *JobNotifier) Subscribe(ctx context.Context) <-chan string {
	out := make(chan string, 1)
	sub := n.client.Subscribe(ctx, jobChannel)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					// a wake-up is already pending
				}
			}
		}
	}()

	n.log.Debug().Str("channel", jobChannel).Msg("subscribed to job wake-ups")
	return out
}
