package ports

import (
	"context"
	"io"
	"time"

	"github.com/devjourney/blog-api/internal/core/domain"
)

// Sanitizer strips unsafe markup from user submitted rich text.
type Sanitizer interface {
	Sanitize(html string) string
}

// EmailMessage is one provider call. Bcc recipients are hidden from each other.
type EmailMessage struct {
	To      []string
	Bcc     []string
	Subject string
	HTML    string
}

// EmailSender delivers transactional email through an external provider.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectStorage hosts blog banners.
type ObjectStorage interface {
	Upload(ctx context.Context, folder string, file Upload) (domain.Banner, error)
	Delete(ctx context.Context, publicID string) error
	DeleteMany(ctx context.Context, publicIDs []string) error
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
