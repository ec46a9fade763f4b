package ports

import (
	"context"

	"github.com/devjourney/blog-api/internal/core/domain"
)

type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) (*domain.Blog, error)
	FindByID(ctx context.Context, id string) (*domain.Blog, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Blog, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter domain.BlogFilter, page domain.Page) ([]*domain.Blog, int64, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error)
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	// IncrementCounter applies delta to the counter with a single atomic update.
	IncrementCounter(ctx context.Context, id string, counter domain.BlogCounter, delta int64) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error)
	List(ctx context.Context, page domain.Page) ([]*domain.Comment, int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByBlogs(ctx context.Context, blogIDs []string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	CountByBlogForUser(ctx context.Context, userID string) ([]domain.BlogCount, error)
}

type LikeRepository interface {
	// Create returns domain.ErrAlreadyLiked when the user already liked the blog.
	Create(ctx context.Context, like *domain.Like) (*domain.Like, error)
	// Delete returns domain.ErrLikeNotFound when there is nothing to remove.
	Delete(ctx context.Context, blogID, userID string) error
	DeleteByBlogs(ctx context.Context, blogIDs []string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	CountByBlogForUser(ctx context.Context, userID string) ([]domain.BlogCount, error)
}

type SubscriberRepository interface {
	// Create returns domain.ErrSubscriberExists for a known email.
	Create(ctx context.Context, sub *domain.Subscriber) (*domain.Subscriber, error)
	ListEmails(ctx context.Context) ([]string, error)
	DeleteByEmail(ctx context.Context, email string) error
}
