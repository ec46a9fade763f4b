package ports

import "context"

// TokenLedger persists issued refresh tokens so they can be revoked before
// their signed expiry. Rows are reaped by the store after
// domain.RefreshTokenLedgerTTL.
type TokenLedger interface {
	Record(ctx context.Context, token, userID string) error
	Revoke(ctx context.Context, token string) error
	Exists(ctx context.Context, token string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// TokenIssuer signs new access and refresh tokens for a user.
type TokenIssuer interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
}

// TokenVerifier checks tokens and returns the user id they were issued to.
// Failures are domain.ErrTokenExpired or domain.ErrTokenInvalid.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
	VerifyRefreshToken(token string) (string, error)
}

// TokenService is the full token lifecycle.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}
