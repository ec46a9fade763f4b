package ports

import (
	"context"

	"github.com/devjourney/blog-api/internal/core/domain"
)

// Viewer is the authenticated caller as seen by content services.
type Viewer struct {
	UserID string
	Role   string
}

type CreateBlogInput struct {
	Title   string
	Content string
	Status  domain.BlogStatus
	Banner  Upload
}

type UpdateBlogInput struct {
	Title   *string
	Content *string
	Status  *domain.BlogStatus
	Banner  *Upload
}

// BlogDetail is a blog together with its comments, newest first.
type BlogDetail struct {
	Blog     *domain.Blog      `json:"blog"`
	Comments []*domain.Comment `json:"comments"`
}

type BlogService interface {
	Create(ctx context.Context, viewer Viewer, in CreateBlogInput) (*domain.Blog, error)
	List(ctx context.Context, viewer Viewer, filter domain.BlogFilter, page domain.Page) ([]*domain.Blog, int64, error)
	GetBySlug(ctx context.Context, viewer Viewer, slug string) (*BlogDetail, error)
	Update(ctx context.Context, viewer Viewer, blogID string, in UpdateBlogInput) (*domain.Blog, error)
	Delete(ctx context.Context, viewer Viewer, blogID string) error
}

type CommentService interface {
	Create(ctx context.Context, viewer Viewer, blogID, content string) (*domain.Comment, error)
	ListByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error)
	List(ctx context.Context, page domain.Page) ([]*domain.Comment, int64, error)
	Delete(ctx context.Context, viewer Viewer, commentID string) error
}

type LikeService interface {
	Like(ctx context.Context, blogID, userID string) (int64, error)
	Unlike(ctx context.Context, blogID, userID string) error
}

type SubscriberService interface {
	Subscribe(ctx context.Context, email string) (*domain.Subscriber, error)
}
