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

const bannerFolder = "blog-api"

type BlogService struct {
	blogs     ports.BlogRepository
	comments  ports.CommentRepository
	likes     ports.LikeRepository
	storage   ports.ObjectStorage
	sanitizer ports.Sanitizer
	jobs      ports.JobScheduler
	logger    zerolog.Logger
}

func NewBlogService(
	blogs ports.BlogRepository,
	comments ports.CommentRepository,
	likes ports.LikeRepository,
	storage ports.ObjectStorage,
	sanitizer ports.Sanitizer,
	jobs ports.JobScheduler,
	logger zerolog.Logger,
) *BlogService {
	return &BlogService{
		blogs:     blogs,
		comments:  comments,
		likes:     likes,
		storage:   storage,
		sanitizer: sanitizer,
		jobs:      jobs,
		logger:    logger,
	}
}

// Create stores a new blog with its banner. Subscribers are notified once
// the blog is published.
func (s *BlogService) Create(ctx context.Context, viewer ports.Viewer, in ports.CreateBlogInput) (*domain.Blog, error) {
	slug, err := generateSlug(ctx, in.Title, s.blogs.ExistsBySlug)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}

	banner, err := s.storage.Upload(ctx, bannerFolder, in.Banner)
	if err != nil {
		return nil, fmt.Errorf("upload banner: %w", err)
	}

	status := in.Status
	if status == "" {
		status = domain.BlogDraft
	}
	now := time.Now().UTC()
	blog := &domain.Blog{
		Title:     in.Title,
		Slug:      slug,
		Content:   s.sanitizer.Sanitize(in.Content),
		Banner:    banner,
		AuthorID:  viewer.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == domain.BlogPublished {
		blog.PublishedAt = &now
	}

	created, err := s.blogs.Create(ctx, blog)
	if err != nil {
		if derr := s.storage.Delete(ctx, banner.PublicID); derr != nil {
			s.logger.Error().Err(derr).Str("public_id", banner.PublicID).Msg("failed to remove orphan banner")
		}
		return nil, err
	}

	s.logger.Info().Str("blog_id", created.ID).Str("slug", created.Slug).Msg("blog created")
	if created.Status == domain.BlogPublished {
		s.announce(ctx, created.ID)
	}
	return created, nil
}

// announce enqueues the subscriber notification for a blog. It runs when a
// blog first becomes published, at create or at update. Drafts never notify.
func (s *BlogService) announce(ctx context.Context, blogID string) {
	if _, err := s.jobs.Now(ctx, domain.JobNotifyNewBlog, map[string]any{"blogId": blogID}); err != nil {
		s.logger.Error().Err(err).Str("blog_id", blogID).Msg("failed to enqueue new blog notification")
	}
}

// List returns blogs matching filter. Regular users only ever see published blogs.
func (s *BlogService) List(ctx context.Context, viewer ports.Viewer, filter domain.BlogFilter, page domain.Page) ([]*domain.Blog, int64, error) {
	if viewer.Role != domain.RoleAdmin {
		filter.Status = domain.BlogPublished
	}
	return s.blogs.List(ctx, filter, page)
}

func (s *BlogService) GetBySlug(ctx context.Context, viewer ports.Viewer, slug string) (*ports.BlogDetail, error) {
	blog, err := s.blogs.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !blog.VisibleTo(viewer.Role) {
		s.logger.Warn().Str("user_id", viewer.UserID).Str("blog_id", blog.ID).Msg("draft access denied")
		return nil, domain.ErrForbidden
	}

	comments, err := s.comments.ListByBlog(ctx, blog.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	if views, err := s.blogs.IncrementCounter(ctx, blog.ID, domain.CounterViews, 1); err != nil {
		s.logger.Error().Err(err).Str("blog_id", blog.ID).Msg("failed to count view")
	} else {
		blog.ViewsCount = views
	}

	blog.Banner.PublicID = ""
	return &ports.BlogDetail{Blog: blog, Comments: comments}, nil
}

func (s *BlogService) Update(ctx context.Context, viewer ports.Viewer, blogID string, in ports.UpdateBlogInput) (*domain.Blog, error) {
	blog, err := s.blogs.FindByID(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !blog.ManageableBy(viewer.UserID, viewer.Role) {
		s.logger.Warn().Str("user_id", viewer.UserID).Str("blog_id", blogID).Msg("blog update denied")
		return nil, domain.ErrForbidden
	}

	patch := domain.BlogPatch{Title: in.Title, Status: in.Status}
	if in.Content != nil {
		clean := s.sanitizer.Sanitize(*in.Content)
		patch.Content = &clean
	}

	var replaced string
	if in.Banner != nil {
		banner, err := s.storage.Upload(ctx, bannerFolder, *in.Banner)
		if err != nil {
			return nil, fmt.Errorf("upload banner: %w", err)
		}
		patch.Banner = &banner
		replaced = blog.Banner.PublicID
	}

	wasDraft := blog.Status != domain.BlogPublished
	patch.Apply(blog)
	now := time.Now().UTC()
	blog.UpdatedAt = now
	published := wasDraft && blog.Status == domain.BlogPublished
	if published {
		blog.PublishedAt = &now
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		return nil, err
	}

	if replaced != "" {
		if err := s.storage.Delete(ctx, replaced); err != nil {
			s.logger.Error().Err(err).Str("public_id", replaced).Msg("failed to remove replaced banner")
		}
	}
	if published {
		s.announce(ctx, blog.ID)
	}

	s.logger.Info().Str("blog_id", blog.ID).Msg("blog updated")
	return blog, nil
}

// Delete removes a blog, its banner, its comments and its likes. Only the
// author or an admin may delete.
func (s *BlogService) Delete(ctx context.Context, viewer ports.Viewer, blogID string) error {
	blog, err := s.blogs.FindByID(ctx, blogID)
	if err != nil {
		return err
	}
	if !blog.ManageableBy(viewer.UserID, viewer.Role) {
		s.logger.Warn().Str("user_id", viewer.UserID).Str("blog_id", blogID).Msg("blog deletion denied")
		return domain.ErrForbidden
	}

	if blog.Banner.PublicID != "" {
		if err := s.storage.Delete(ctx, blog.Banner.PublicID); err != nil {
			return fmt.Errorf("delete banner: %w", err)
		}
	}

	if err := s.blogs.Delete(ctx, blogID); err != nil && !errors.Is(err, domain.ErrBlogNotFound) {
		return err
	}
	if _, err := s.comments.DeleteByBlogs(ctx, []string{blogID}); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if _, err := s.likes.DeleteByBlogs(ctx, []string{blogID}); err != nil {
		return fmt.Errorf("delete likes: %w", err)
	}

	s.logger.Info().Str("blog_id", blogID).Msg("blog deleted")
	return nil
}
