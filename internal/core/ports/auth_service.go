package ports

import (
	"context"

	"github.com/devjourney/blog-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful register or login.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
}

// UpdateUserInput is a partial profile update received from the transport layer.
type UpdateUserInput struct {
	Email       *string
	Username    *string
	Password    *string
	FirstName   *string
	LastName    *string
	SocialLinks *domain.SocialLinksPatch
}

type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error)
}
