package ports

import (
	"context"
	"time"

	"github.com/devjourney/blog-api/internal/core/domain"
)

// ClaimRequest selects the next job a worker may take.
type ClaimRequest struct {
	Names        []string
	Owner        string
	Now          time.Time
	LockLifetime time.Duration
}

// JobStore is the durable backing of the job queue. Every transition after a
// claim is conditional on the claiming owner.
type JobStore interface {
	Insert(ctx context.Context, job *domain.Job) (*domain.Job, error)
	// ClaimNext atomically moves one eligible job to running and returns it,
	// or returns nil when nothing is eligible.
	ClaimNext(ctx context.Context, req ClaimRequest) (*domain.Job, error)
	// Extend refreshes the lock of a running job so it is not taken for stale.
	Extend(ctx context.Context, id, owner string, at time.Time) error
	Complete(ctx context.Context, id, owner string, at time.Time) error
	Reschedule(ctx context.Context, id, owner string, runAt time.Time, lastErr string) error
	Fail(ctx context.Context, id, owner string, at time.Time, lastErr string) error
	ListFailed(ctx context.Context, page domain.Page) ([]*domain.Job, int64, error)
	Requeue(ctx context.Context, id string, at time.Time) (*domain.Job, error)
}

// JobScheduler enqueues deferred work.
type JobScheduler interface {
	Now(ctx context.Context, name string, data map[string]any) (*domain.Job, error)
	Schedule(ctx context.Context, name string, data map[string]any, when time.Time) (*domain.Job, error)
}

// JobAdmin exposes dead-letter inspection and replay.
type JobAdmin interface {
	ListFailed(ctx context.Context, page domain.Page) ([]*domain.Job, int64, error)
	Retry(ctx context.Context, id string) (*domain.Job, error)
}
