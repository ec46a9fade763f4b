package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

func TestSubscriberService_Subscribe(t *testing.T) {
	subs := &stubSubscriberRepo{}
	jobs := &stubScheduler{}
	svc := NewSubscriberService(subs, jobs, zerolog.Nop())

	sub, err := svc.Subscribe(context.Background(), "  Reader@Example.com ")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.Email != "reader@example.com" {
		t.Errorf("email not normalised: %q", sub.Email)
	}
	welcome := jobs.named(domain.JobSendWelcomeEmail)
	if len(welcome) != 1 || welcome[0].Data["email"] != "reader@example.com" {
		t.Fatalf("expected one welcome job, got %+v", welcome)
	}

	if _, err := svc.Subscribe(context.Background(), "reader@example.com"); !errors.Is(err, domain.ErrSubscriberExists) {
		t.Fatalf("expected ErrSubscriberExists, got %v", err)
	}
	if n := len(jobs.named(domain.JobSendWelcomeEmail)); n != 1 {
		t.Errorf("duplicate subscription enqueued a job: %d", n)
	}
}

func TestSubscriberService_EnqueueFailureKeepsSubscription(t *testing.T) {
	subs := &stubSubscriberRepo{}
	svc := NewSubscriberService(subs, &stubScheduler{err: errors.New("store down")}, zerolog.Nop())

	if _, err := svc.Subscribe(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	emails, _ := subs.ListEmails(context.Background())
	if len(emails) != 1 {
		t.Fatalf("expected subscription to be stored, got %v", emails)
	}
}

type stubJobStore struct {
	ports.JobStore
	jobs map[string]*domain.Job
}

func (s *stubJobStore) ListFailed(_ context.Context, page domain.Page) ([]*domain.Job, int64, error) {
	var out []*domain.Job
	for _, j := range s.jobs {
		if j.Status == domain.JobFailed {
			out = append(out, j)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubJobStore) Requeue(_ context.Context, id string, at time.Time) (*domain.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if j.Status != domain.JobFailed {
		return nil, domain.ErrJobNotFailed
	}
	j.Status = domain.JobPending
	j.Attempts = 0
	j.DeadLetter = false
	j.NextRunAt = at
	return j, nil
}

func TestJobAdminService_Retry(t *testing.T) {
	store := &stubJobStore{jobs: map[string]*domain.Job{
		"j1": {ID: "j1", Name: domain.JobNotifyNewBlog, Status: domain.JobFailed, Attempts: 3, DeadLetter: true},
		"j2": {ID: "j2", Name: domain.JobSendWelcomeEmail, Status: domain.JobCompleted},
	}}
	svc := NewJobAdminService(store, zerolog.Nop())

	failed, total, err := svc.ListFailed(context.Background(), domain.Page{Limit: 20})
	if err != nil || total != 1 || failed[0].ID != "j1" {
		t.Fatalf("list failed: jobs=%v total=%d err=%v", failed, total, err)
	}

	job, err := svc.Retry(context.Background(), "j1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if job.Status != domain.JobPending || job.Attempts != 0 || job.DeadLetter {
		t.Errorf("job not reset: %+v", job)
	}

	if _, err := svc.Retry(context.Background(), "j2"); !errors.Is(err, domain.ErrJobNotFailed) {
		t.Errorf("expected ErrJobNotFailed, got %v", err)
	}
	if _, err := svc.Retry(context.Background(), "nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
