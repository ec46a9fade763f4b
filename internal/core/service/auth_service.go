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

// AuthConfig tunes registration and session behaviour.
type AuthConfig struct {
	// AdminEmails is the allow-list of addresses that may register as admin.
	AdminEmails []string
	// RevokeOnRotate revokes every earlier refresh token of a user at login,
	// leaving a single active session.
	RevokeOnRotate bool
}

// AuthService implements registration, login and the refresh token lifecycle.
type AuthService struct {
	users          ports.UserRepository
	tokens         ports.TokenService
	ledger         ports.TokenLedger
	subscribers    ports.SubscriberRepository
	jobs           ports.JobScheduler
	adminEmails    map[string]struct{}
	revokeOnRotate bool
	logger         zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	ledger ports.TokenLedger,
	subscribers ports.SubscriberRepository,
	jobs ports.JobScheduler,
	cfg AuthConfig,
	logger zerolog.Logger,
) *AuthService {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{
		users:          users,
		tokens:         tokens,
		ledger:         ledger,
		subscribers:    subscribers,
		jobs:           jobs,
		adminEmails:    admins,
		revokeOnRotate: cfg.RevokeOnRotate,
		logger:         logger,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	email := normalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, domain.NewValidationError("Invalid request", map[string]string{"role": "role must be either admin or user"})
	}
	if role == domain.RoleAdmin {
		if _, ok := s.adminEmails[email]; !ok {
			s.logger.Warn().Str("email", email).Msg("admin registration attempt from non whitelisted email")
			return nil, domain.ErrAdminNotWhitelisted
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username, err := generateUsername(ctx, s.users.ExistsByUsername)
	if err != nil {
		return nil, fmt.Errorf("generate username: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	s.welcome(ctx, email)

	return session, nil
}

// welcome subscribes the new user to the newsletter and queues the welcome
// email. Failures are logged only: the account already exists at this point.
func (s *AuthService) welcome(ctx context.Context, email string) {
	_, err := s.subscribers.Create(ctx, &domain.Subscriber{Email: email, CreatedAt: time.Now().UTC()})
	if err != nil && !errors.Is(err, domain.ErrSubscriberExists) {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create subscriber")
	}
	if _, err := s.jobs.Now(ctx, domain.JobSendWelcomeEmail, map[string]any{"email": email}); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to enqueue welcome email")
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if s.revokeOnRotate {
		n, err := s.ledger.RevokeAllForUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("revoke previous sessions: %w", err)
		}
		s.logger.Debug().Str("user_id", user.ID).Int64("revoked", n).Msg("previous refresh tokens revoked")
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return session, nil
}

// Refresh exchanges a refresh token for a new access token. The ledger is
// consulted after the signature: a revoked token is rejected even when its
// signature is still valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTokenExpired):
		return "", domain.ErrSessionExpired
	case errors.Is(err, domain.ErrTokenInvalid):
		return "", domain.ErrSessionInvalid
	default:
		return "", err
	}

	ok, err := s.ledger.Exists(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	if !ok {
		s.logger.Warn().Str("user_id", userID).Msg("revoked refresh token presented")
		return "", domain.ErrTokenRevoked
	}

	return s.tokens.IssueAccessToken(userID)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.ledger.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*ports.Session, error) {
	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, refresh, user.ID); err != nil {
		return nil, fmt.Errorf("record refresh token: %w", err)
	}
	return &ports.Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
