package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// LikeService keeps the likes collection and the blog's likesCount in step.
// The unique (blog, user) index makes Like idempotent per user; the counter
// is only touched through atomic increments.
type LikeService struct {
	likes  ports.LikeRepository
	blogs  ports.BlogRepository
	logger zerolog.Logger
}

func NewLikeService(likes ports.LikeRepository, blogs ports.BlogRepository, logger zerolog.Logger) *LikeService {
	return &LikeService{likes: likes, blogs: blogs, logger: logger}
}

func (s *LikeService) Like(ctx context.Context, blogID, userID string) (int64, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		return 0, err
	}
	if _, err := s.likes.Create(ctx, &domain.Like{BlogID: blogID, UserID: userID, CreatedAt: time.Now().UTC()}); err != nil {
		return 0, err
	}
	count, err := s.blogs.IncrementCounter(ctx, blogID, domain.CounterLikes, 1)
	if err != nil {
		return 0, fmt.Errorf("increment likes count: %w", err)
	}
	return count, nil
}

func (s *LikeService) Unlike(ctx context.Context, blogID, userID string) error {
	if err := s.likes.Delete(ctx, blogID, userID); err != nil {
		return err
	}
	if _, err := s.blogs.IncrementCounter(ctx, blogID, domain.CounterLikes, -1); err != nil {
		return fmt.Errorf("decrement likes count: %w", err)
	}
	return nil
}
