package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type SubscriberService struct {
	subscribers ports.SubscriberRepository
	jobs        ports.JobScheduler
	logger      zerolog.Logger
}

func NewSubscriberService(subscribers ports.SubscriberRepository, jobs ports.JobScheduler, logger zerolog.Logger) *SubscriberService {
	return &SubscriberService{subscribers: subscribers, jobs: jobs, logger: logger}
}

func (s *SubscriberService) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	email = normalizeEmail(email)
	sub, err := s.subscribers.Create(ctx, &domain.Subscriber{Email: email, CreatedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	if _, err := s.jobs.Now(ctx, domain.JobSendWelcomeEmail, map[string]any{"email": email}); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to enqueue welcome email")
	}
	return sub, nil
}
