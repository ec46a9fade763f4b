package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
)

func newNotificationFixture(t *testing.T, subscribers int) (*NotificationService, *recordingSender, *domain.Blog) {
	t.Helper()
	blogs := newStubBlogRepo()
	blog, _ := blogs.Create(context.Background(), &domain.Blog{Title: "Go <Generics>", Slug: "go-generics-abc123", Status: domain.BlogPublished})

	subs := &stubSubscriberRepo{}
	for i := 0; i < subscribers; i++ {
		_, _ = subs.Create(context.Background(), &domain.Subscriber{Email: fmt.Sprintf("s%02d@x.com", i)})
	}

	sender := &recordingSender{}
	svc := NewNotificationService(sender, blogs, subs, NotificationConfig{
		SupportAddress: "support@devjourney.dev",
		SiteURL:        "https://devjourney.dev",
	}, zerolog.Nop())
	return svc, sender, blog
}

func TestNotifyNewBlog_SendsBatchesOfTwenty(t *testing.T) {
	svc, sender, blog := newNotificationFixture(t, 45)

	job := &domain.Job{ID: "j1", Name: domain.JobNotifyNewBlog, Data: map[string]any{"blogId": blog.ID}}
	if err := svc.NotifyNewBlog(context.Background(), job); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sender.sent) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(sender.sent))
	}
	sizes := []int{20, 20, 5}
	seen := map[string]bool{}
	for i, msg := range sender.sent {
		if len(msg.Bcc) != sizes[i] {
			t.Errorf("batch %d: expected %d recipients, got %d", i+1, sizes[i], len(msg.Bcc))
		}
		if len(msg.To) != 1 || msg.To[0] != "support@devjourney.dev" {
			t.Errorf("batch %d: subscribers must only be in bcc, to=%v", i+1, msg.To)
		}
		if msg.Subject != "New Blog Posted" {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
		for _, e := range msg.Bcc {
			if seen[e] {
				t.Errorf("%s addressed twice", e)
			}
			seen[e] = true
		}
	}
	if !strings.Contains(sender.sent[0].HTML, "Go &lt;Generics&gt;") {
		t.Errorf("title not escaped into the template")
	}
	if !strings.Contains(sender.sent[0].HTML, "https://devjourney.dev/blogs/go-generics-abc123") {
		t.Errorf("blog link missing")
	}
}

func TestNotifyNewBlog_AbortsOnFirstFailedBatch(t *testing.T) {
	svc, sender, blog := newNotificationFixture(t, 60)
	sender.failAt = 2

	job := &domain.Job{ID: "j1", Name: domain.JobNotifyNewBlog, Data: map[string]any{"blogId": blog.ID}}
	err := svc.NotifyNewBlog(context.Background(), job)
	if err == nil {
		t.Fatalf("expected error from failing batch")
	}
	if !strings.Contains(err.Error(), "batch 2 of 3") {
		t.Errorf("error should name the failing batch: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("batches after the failure must not be sent, sent=%d", len(sender.sent))
	}
}

func TestNotifyNewBlog_NoSubscribers(t *testing.T) {
	svc, sender, blog := newNotificationFixture(t, 0)
	job := &domain.Job{Data: map[string]any{"blogId": blog.ID}}
	if err := svc.NotifyNewBlog(context.Background(), job); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should be sent without subscribers")
	}
}

func TestNotifyNewBlog_MissingBlog(t *testing.T) {
	svc, _, _ := newNotificationFixture(t, 3)
	job := &domain.Job{Data: map[string]any{"blogId": "gone"}}
	if err := svc.NotifyNewBlog(context.Background(), job); !errors.Is(err, domain.ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}
}

func TestSendWelcomeEmail(t *testing.T) {
	svc, sender, _ := newNotificationFixture(t, 0)

	if err := svc.SendWelcomeEmail(context.Background(), &domain.Job{Data: map[string]any{}}); !errors.Is(err, ErrMissingJobData) {
		t.Fatalf("expected ErrMissingJobData, got %v", err)
	}

	job := &domain.Job{ID: "j2", Data: map[string]any{"email": "new@x.com"}}
	if err := svc.SendWelcomeEmail(context.Background(), job); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Bcc[0] != "new@x.com" || sender.sent[0].Subject != "Welcome to DevJourney" {
		t.Fatalf("unexpected message: %+v", sender.sent)
	}
}
