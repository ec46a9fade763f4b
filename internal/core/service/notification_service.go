package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// NotifyBatchSize is the number of subscribers addressed per provider call.
const NotifyBatchSize = 20

const (
	subjectWelcome = "Welcome to DevJourney"
	subjectNewBlog = "New Blog Posted"
)

//go:embed templates/email.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/email.html"))

type emailContent struct {
	Title    string
	Message  string
	Link     string
	LinkText string
	Year     int
}

// ErrMissingJobData is returned by a handler whose job payload lacks a field.
var ErrMissingJobData = errors.New("missing job data")

// NotificationConfig holds the addressing used by the email jobs.
type NotificationConfig struct {
	// SupportAddress is the visible recipient of every message. Real
	// recipients go in bcc so they never see each other.
	SupportAddress string
	SiteURL        string
}

// NotificationService implements the email job handlers.
type NotificationService struct {
	sender      ports.EmailSender
	blogs       ports.BlogRepository
	subscribers ports.SubscriberRepository
	cfg         NotificationConfig
	logger      zerolog.Logger
}

func NewNotificationService(sender ports.EmailSender, blogs ports.BlogRepository, subscribers ports.SubscriberRepository, cfg NotificationConfig, logger zerolog.Logger) *NotificationService {
	return &NotificationService{sender: sender, blogs: blogs, subscribers: subscribers, cfg: cfg, logger: logger}
}

// SendWelcomeEmail handles send-welcome-email jobs with payload {email}.
func (s *NotificationService) SendWelcomeEmail(ctx context.Context, job *domain.Job) error {
	email := job.StringData("email")
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingJobData)
	}

	html, err := render(emailContent{
		Title:    subjectWelcome,
		Message:  "We're excited to have you on board. You will receive regular updates from us. Happy coding!",
		Link:     s.cfg.SiteURL,
		LinkText: "Visit DevJourney",
	})
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, ports.EmailMessage{
		To:      []string{s.cfg.SupportAddress},
		Bcc:     []string{email},
		Subject: subjectWelcome,
		HTML:    html,
	}); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}

	s.logger.Info().Str("job_id", job.ID).Str("email", email).Msg("welcome email sent")
	return nil
}

// NotifyNewBlog handles notify-new-blog jobs with payload {blogId}. Subscribers
// are addressed in bcc batches; the first failing batch aborts the job.
func (s *NotificationService) NotifyNewBlog(ctx context.Context, job *domain.Job) error {
	blogID := job.StringData("blogId")
	if blogID == "" {
		return fmt.Errorf("%w: blogId", ErrMissingJobData)
	}

	blog, err := s.blogs.FindByID(ctx, blogID)
	if err != nil {
		return fmt.Errorf("load blog %s: %w", blogID, err)
	}

	emails, err := s.subscribers.ListEmails(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	link := s.cfg.SiteURL
	if link != "" {
		link = link + "/blogs/" + blog.Slug
	}
	html, err := render(emailContent{
		Title:    blog.Title,
		Message:  "A new blog has been posted. Check it out!",
		Link:     link,
		LinkText: "Read on DevJourney",
	})
	if err != nil {
		return err
	}

	batches := (len(emails) + NotifyBatchSize - 1) / NotifyBatchSize
	for i := 0; i < len(emails); i += NotifyBatchSize {
		end := min(i+NotifyBatchSize, len(emails))
		n := i/NotifyBatchSize + 1

		s.logger.Debug().Str("job_id", job.ID).Int("batch", n).Int("batches", batches).Msg("sending new blog batch")
		if err := s.sender.Send(ctx, ports.EmailMessage{
			To:      []string{s.cfg.SupportAddress},
			Bcc:     emails[i:end],
			Subject: subjectNewBlog,
			HTML:    html,
		}); err != nil {
			return fmt.Errorf("send batch %d of %d: %w", n, batches, err)
		}
	}

	s.logger.Info().Str("job_id", job.ID).Str("blog_id", blogID).Int("recipients", len(emails)).Msg("new blog notification sent")
	return nil
}

func render(c emailContent) (string, error) {
	c.Year = time.Now().Year()
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
