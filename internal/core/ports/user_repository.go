package ports

import (
	"context"

	"github.com/devjourney/blog-api/internal/core/domain"
)

// UserFinder resolves a single user by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// UserRepository is the credential store. Lookups return
// domain.ErrUserNotFound when no user matches; Create and Update return
// domain.ErrUserExists or domain.ErrUsernameTaken on unique violations.
type UserRepository interface {
	UserFinder
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error)
}
