package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// JobAdminService exposes failed jobs to administrators.
type JobAdminService struct {
	store  ports.JobStore
	logger zerolog.Logger
}

func NewJobAdminService(store ports.JobStore, logger zerolog.Logger) *JobAdminService {
	return &JobAdminService{store: store, logger: logger}
}

func (s *JobAdminService) ListFailed(ctx context.Context, page domain.Page) ([]*domain.Job, int64, error) {
	return s.store.ListFailed(ctx, page)
}

// Retry moves a failed job back to pending with a fresh attempt budget.
func (s *JobAdminService) Retry(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.store.Requeue(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("job_id", id).Str("job_name", job.Name).Msg("job requeued")
	return job, nil
}
