package domain

import "time"

// RefreshTokenLedgerTTL is how long the store keeps a ledger row before reaping it.
const RefreshTokenLedgerTTL = 7 * 24 * time.Hour

// RefreshToken is one ledger entry for an issued refresh token.
type RefreshToken struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
}

// TokenPair is returned whenever a session is opened.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
