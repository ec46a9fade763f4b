package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type CommentService struct {
	comments  ports.CommentRepository
	blogs     ports.BlogRepository
	sanitizer ports.Sanitizer
	logger    zerolog.Logger
}

func NewCommentService(comments ports.CommentRepository, blogs ports.BlogRepository, sanitizer ports.Sanitizer, logger zerolog.Logger) *CommentService {
	return &CommentService{comments: comments, blogs: blogs, sanitizer: sanitizer, logger: logger}
}

func (s *CommentService) Create(ctx context.Context, viewer ports.Viewer, blogID, content string) (*domain.Comment, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment, err := s.comments.Create(ctx, &domain.Comment{
		BlogID:    blogID,
		UserID:    viewer.UserID,
		Content:   s.sanitizer.Sanitize(content),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.blogs.IncrementCounter(ctx, blogID, domain.CounterComments, 1); err != nil {
		return nil, fmt.Errorf("increment comments count: %w", err)
	}
	s.logger.Info().Str("comment_id", comment.ID).Str("blog_id", blogID).Msg("comment created")
	return comment, nil
}

func (s *CommentService) ListByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		return nil, err
	}
	return s.comments.ListByBlog(ctx, blogID)
}

func (s *CommentService) List(ctx context.Context, page domain.Page) ([]*domain.Comment, int64, error) {
	return s.comments.List(ctx, page)
}

// Delete removes a comment. The author of the comment or an admin may delete it.
func (s *CommentService) Delete(ctx context.Context, viewer ports.Viewer, commentID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != viewer.UserID && viewer.Role != domain.RoleAdmin {
		s.logger.Warn().Str("user_id", viewer.UserID).Str("comment_id", commentID).Msg("comment deletion denied")
		return domain.ErrForbidden
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	_, err = s.blogs.IncrementCounter(ctx, comment.BlogID, domain.CounterComments, -1)
	if err != nil && !errors.Is(err, domain.ErrBlogNotFound) {
		return fmt.Errorf("decrement comments count: %w", err)
	}
	return nil
}
