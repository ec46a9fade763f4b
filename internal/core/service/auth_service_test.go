package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type authFixture struct {
	svc    *AuthService
	users  *stubUserRepo
	ledger *stubLedger
	subs   *stubSubscriberRepo
	jobs   *stubScheduler
	tokens *TokenService
}

func newAuthFixture(cfg AuthConfig) *authFixture {
	f := &authFixture{
		users:  newStubUserRepo(),
		ledger: newStubLedger(),
		subs:   &stubSubscriberRepo{},
		jobs:   &stubScheduler{},
		tokens: newTestTokenService(),
	}
	f.svc = NewAuthService(f.users, f.tokens, f.ledger, f.subs, f.jobs, cfg, zerolog.Nop())
	return f
}

func TestAuthService_Register_CreatesUserLedgerEntryAndWelcomeJob(t *testing.T) {
	f := newAuthFixture(AuthConfig{})

	session, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "A@X.com",
		Password: "password123",
		Role:     domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if f.users.count() != 1 {
		t.Fatalf("expected 1 user, got %d", f.users.count())
	}
	if f.ledger.count() != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", f.ledger.count())
	}
	welcome := f.jobs.named(domain.JobSendWelcomeEmail)
	if len(welcome) != 1 {
		t.Fatalf("expected 1 welcome job, got %d", len(welcome))
	}
	if welcome[0].StringData("email") != "a@x.com" {
		t.Errorf("welcome job email = %q", welcome[0].StringData("email"))
	}

	if session.User.Email != "a@x.com" {
		t.Errorf("email not normalised: %q", session.User.Email)
	}
	if !strings.HasPrefix(session.User.Username, "user-") {
		t.Errorf("expected generated username, got %q", session.User.Username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(session.User.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	userID, err := f.tokens.VerifyAccessToken(session.AccessToken)
	if err != nil || userID != session.User.ID {
		t.Fatalf("access token does not identify the user: %q %v", userID, err)
	}
	if ok, _ := f.ledger.Exists(context.Background(), session.RefreshToken); !ok {
		t.Fatalf("refresh token not recorded in ledger")
	}
}

func TestAuthService_Register_DefaultsToUserRole(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	session, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "b@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.User.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", session.User.Role)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	in := ports.RegisterInput{Email: "bob@example.com", Password: "password123", Role: domain.RoleUser}

	if _, err := f.svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if f.users.count() != 1 || f.ledger.count() != 1 {
		t.Fatalf("duplicate register must not write: users=%d ledger=%d", f.users.count(), f.ledger.count())
	}
}

func TestAuthService_Register_AdminRequiresWhitelist(t *testing.T) {
	f := newAuthFixture(AuthConfig{AdminEmails: []string{"Boss@Example.com"}})

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "intruder@example.com", Password: "password123", Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrAdminNotWhitelisted) {
		t.Fatalf("expected ErrAdminNotWhitelisted, got %v", err)
	}

	session, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "boss@example.com", Password: "password123", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("whitelisted admin rejected: %v", err)
	}
	if session.User.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", session.User.Role)
	}
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "c@x.com", Password: "password123", Role: "root"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["role"] == "" {
		t.Fatalf("expected validation error on role, got %v", err)
	}
}

func TestAuthService_Register_LedgerFailureFailsRegistration(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	f.ledger.err = errors.New("mongo down")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "d@x.com", Password: "password123"})
	if err == nil {
		t.Fatalf("expected error when ledger write fails")
	}
	if len(f.jobs.named(domain.JobSendWelcomeEmail)) != 0 {
		t.Fatalf("welcome job must not be queued when registration fails")
	}
}

func TestAuthService_Register_EnqueueFailureIsNotFatal(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	f.jobs.err = errors.New("queue down")

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "e@x.com", Password: "password123"}); err != nil {
		t.Fatalf("register should succeed when only the welcome job fails: %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "carol@example.com", Password: "s3cretpass"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, err := f.svc.Login(context.Background(), "carol@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", session)
	}
	if f.ledger.count() != 2 {
		t.Fatalf("sessions coexist by default, expected 2 ledger rows, got %d", f.ledger.count())
	}
}

func TestAuthService_Login_InvalidPasswordAndUnknownEmailLookAlike(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Email: "dave@example.com", Password: "goodpassword"})

	_, errPassword := f.svc.Login(context.Background(), "dave@example.com", "badpassword")
	_, errEmail := f.svc.Login(context.Background(), "ghost@example.com", "goodpassword")

	if !errors.Is(errPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", errPassword)
	}
	if !errors.Is(errEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", errEmail)
	}
}

func TestAuthService_Login_RevokeOnRotate(t *testing.T) {
	f := newAuthFixture(AuthConfig{RevokeOnRotate: true})
	first, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "erin@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	second, err := f.svc.Login(context.Background(), "erin@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if f.ledger.count() != 1 {
		t.Fatalf("expected single active refresh token, got %d", f.ledger.count())
	}
	if _, err := f.svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("rotated token should be revoked, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("current token should refresh: %v", err)
	}
}

func TestAuthService_Refresh_IssuesAccessToken(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	session, _ := f.svc.Register(context.Background(), ports.RegisterInput{Email: "f@x.com", Password: "password123"})

	access, err := f.svc.Refresh(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	userID, err := f.tokens.VerifyAccessToken(access)
	if err != nil || userID != session.User.ID {
		t.Fatalf("refreshed access token invalid: %q %v", userID, err)
	}
}

func TestAuthService_Refresh_RevokedBeatsValidSignature(t *testing.T) {
	f := newAuthFixture(AuthConfig{})
	session, _ := f.svc.Register(context.Background(), ports.RegisterInput{Email: "g@x.com", Password: "password123"})

	if err := f.svc.Logout(context.Background(), session.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.tokens.VerifyRefreshToken(session.RefreshToken); err != nil {
		t.Fatalf("signature should still be valid: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), session.RefreshToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestAuthService_Refresh_ExpiredAndInvalid(t *testing.T) {
	f := newAuthFixture(AuthConfig{})

	if _, err := f.svc.Refresh(context.Background(), "garbage"); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}

	access, _ := f.tokens.IssueAccessToken("u1")
	if _, err := f.svc.Refresh(context.Background(), access); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("access token must not refresh, got %v", err)
	}

	f.tokens.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	stale, _ := f.tokens.IssueRefreshToken("u1")
	f.tokens.now = time.Now
	_ = f.ledger.Record(context.Background(), stale, "u1")
	if _, err := f.svc.Refresh(context.Background(), stale); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
