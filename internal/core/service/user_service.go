package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// UserService manages profiles and account removal.
type UserService struct {
	users       ports.UserRepository
	blogs       ports.BlogRepository
	comments    ports.CommentRepository
	likes       ports.LikeRepository
	ledger      ports.TokenLedger
	subscribers ports.SubscriberRepository
	storage     ports.ObjectStorage
	logger      zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	blogs ports.BlogRepository,
	comments ports.CommentRepository,
	likes ports.LikeRepository,
	ledger ports.TokenLedger,
	subscribers ports.SubscriberRepository,
	storage ports.ObjectStorage,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		users:       users,
		blogs:       blogs,
		comments:    comments,
		likes:       likes,
		ledger:      ledger,
		subscribers: subscribers,
		storage:     storage,
		logger:      logger,
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error) {
	return s.users.List(ctx, page)
}

// Update applies a partial profile update. Uniqueness of email and username
// is checked up front and enforced again by the store's unique indexes.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := domain.UserPatch{
		Username:    in.Username,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		SocialLinks: in.SocialLinks,
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			taken, err := s.users.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if taken {
				return nil, domain.ErrUserExists
			}
		}
		patch.Email = &email
	}

	if in.Username != nil && *in.Username != user.Username {
		taken, err := s.users.ExistsByUsername(ctx, *in.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
	}

	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		patch.PasswordHash = &h
	}

	patch.Apply(user)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user updated")
	return user, nil
}

// Delete removes a user with everything they own: their blogs (banners,
// comments and likes included), their own comments and likes on other blogs,
// their refresh tokens and their newsletter subscription. Counters of other
// blogs are decremented by what the user contributed.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	blogs, err := s.blogs.ListByAuthor(ctx, id)
	if err != nil {
		return fmt.Errorf("list user blogs: %w", err)
	}
	owned := make(map[string]struct{}, len(blogs))
	blogIDs := make([]string, 0, len(blogs))
	publicIDs := make([]string, 0, len(blogs))
	for _, b := range blogs {
		owned[b.ID] = struct{}{}
		blogIDs = append(blogIDs, b.ID)
		if b.Banner.PublicID != "" {
			publicIDs = append(publicIDs, b.Banner.PublicID)
		}
	}

	likeCounts, err := s.likes.CountByBlogForUser(ctx, id)
	if err != nil {
		return fmt.Errorf("count user likes: %w", err)
	}
	commentCounts, err := s.comments.CountByBlogForUser(ctx, id)
	if err != nil {
		return fmt.Errorf("count user comments: %w", err)
	}

	if len(publicIDs) > 0 {
		if err := s.storage.DeleteMany(ctx, publicIDs); err != nil {
			return fmt.Errorf("delete banners: %w", err)
		}
	}

	if len(blogIDs) > 0 {
		if _, err := s.comments.DeleteByBlogs(ctx, blogIDs); err != nil {
			return fmt.Errorf("delete blog comments: %w", err)
		}
		if _, err := s.likes.DeleteByBlogs(ctx, blogIDs); err != nil {
			return fmt.Errorf("delete blog likes: %w", err)
		}
		if _, err := s.blogs.DeleteByAuthor(ctx, id); err != nil {
			return fmt.Errorf("delete blogs: %w", err)
		}
	}

	if _, err := s.comments.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("delete user comments: %w", err)
	}
	if _, err := s.likes.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("delete user likes: %w", err)
	}
	if _, err := s.ledger.RevokeAllForUser(ctx, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}

	s.adjustCounters(ctx, owned, domain.CounterLikes, likeCounts)
	s.adjustCounters(ctx, owned, domain.CounterComments, commentCounts)

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.subscribers.DeleteByEmail(ctx, user.Email); err != nil && !errors.Is(err, domain.ErrSubscriberNotFound) {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to remove subscriber")
	}

	s.logger.Info().Str("user_id", id).Int("blogs_deleted", len(blogIDs)).Msg("user deleted")
	return nil
}

func (s *UserService) adjustCounters(ctx context.Context, skip map[string]struct{}, counter domain.BlogCounter, counts []domain.BlogCount) {
	for _, c := range counts {
		if _, gone := skip[c.BlogID]; gone {
			continue
		}
		if _, err := s.blogs.IncrementCounter(ctx, c.BlogID, counter, -c.Count); err != nil && !errors.Is(err, domain.ErrBlogNotFound) {
			s.logger.Error().Err(err).Str("blog_id", c.BlogID).Str("counter", string(counter)).Msg("failed to adjust counter")
		}
	}
}
