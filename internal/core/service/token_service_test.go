package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devjourney/blog-api/internal/core/domain"
)

func newTestTokenService() *TokenService {
	return NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.IssueRefreshToken("user-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := svc.VerifyRefreshToken(token)
	if err != nil || userID != "user-2" {
		t.Fatalf("verify refresh: user=%q err=%v", userID, err)
	}
}

func TestTokenService_SecretsAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService()

	access, _ := svc.IssueAccessToken("user-1")
	refresh, _ := svc.IssueRefreshToken("user-1")

	if _, err := svc.VerifyRefreshToken(access); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
	if _, err := svc.VerifyAccessToken(refresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
}

func TestTokenService_ExpiredIsAlwaysTokenExpired(t *testing.T) {
	svc := newTestTokenService()
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	access, _ := svc.IssueAccessToken("user-1")
	refresh, _ := svc.IssueRefreshToken("user-1")

	for _, offset := range []time.Duration{16 * time.Minute, 24 * time.Hour, 365 * 24 * time.Hour} {
		svc.now = func() time.Time { return issuedAt.Add(offset) }
		_, err := svc.VerifyAccessToken(access)
		if !errors.Is(err, domain.ErrTokenExpired) {
			t.Fatalf("offset %s: expected ErrTokenExpired, got %v", offset, err)
		}
		if errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("offset %s: expired token reported as invalid", offset)
		}
	}

	svc.now = func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) }
	if _, err := svc.VerifyRefreshToken(refresh); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired refresh token, got %v", err)
	}
}

func TestTokenService_RejectsGarbageAndForeignAlgorithms(t *testing.T) {
	svc := newTestTokenService()

	if _, err := svc.VerifyAccessToken("not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("garbage: expected ErrTokenInvalid, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.VerifyAccessToken(unsigned); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("alg none: expected ErrTokenInvalid, got %v", err)
	}

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "user-1"})
	signed, _ := noExp.SignedString([]byte("access-secret"))
	if _, err := svc.VerifyAccessToken(signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("missing exp: expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_RefreshTTLCappedAtLedgerTTL(t *testing.T) {
	svc := NewTokenService(TokenConfig{AccessSecret: "a", RefreshSecret: "r", RefreshTTL: 30 * 24 * time.Hour})
	if svc.RefreshTTL() != domain.RefreshTokenLedgerTTL {
		t.Fatalf("expected refresh ttl capped to %s, got %s", domain.RefreshTokenLedgerTTL, svc.RefreshTTL())
	}
}

func TestTokenService_TokensAreUniquePerIssue(t *testing.T) {
	svc := newTestTokenService()
	a, _ := svc.IssueRefreshToken("user-1")
	b, _ := svc.IssueRefreshToken("user-1")
	if a == b {
		t.Fatalf("two refresh tokens issued in the same second must differ")
	}
}
