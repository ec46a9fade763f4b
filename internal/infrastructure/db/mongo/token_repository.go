package mongo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devjourney/blog-api/internal/core/domain"
)

const tokensCollection = "refresh_tokens"

// TokenRepository is the refresh token ledger. Only the SHA-256 of a token is
// stored; rows are reaped by a TTL index after domain.RefreshTokenLedgerTTL.
type TokenRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokensCollection), now: time.Now}
}

type mongoRefreshToken struct {
	TokenHash string    `bson:"token_hash"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Record stores the token. Recording the same token twice is a no-op.
func (r *TokenRepository) Record(ctx context.Context, token, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, mongoRefreshToken{
		TokenHash: hashToken(token),
		UserID:    userID,
		CreatedAt: r.now().UTC(),
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("record refresh token: %w", err)
	}
	return nil
}

// Revoke removes the token. Revoking an unknown token is not an error.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"token_hash": hashToken(token)}); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Exists also rejects rows past the ledger TTL that the TTL monitor has not
// reaped yet.
func (r *TokenRepository) Exists(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"token_hash": hashToken(token),
		"created_at": bson.M{"$gt": r.now().UTC().Add(-domain.RefreshTokenLedgerTTL)},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("lookup refresh token: %w", err)
	}
	return n > 0, nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(domain.RefreshTokenLedgerTTL / time.Second)),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
