package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devjourney/blog-api/internal/core/domain"
)

const likesCollection = "likes"

// LikeRepository stores one document per (blog, user) pair, enforced by a
// unique compound index.
type LikeRepository struct {
	coll *mongo.Collection
}

func NewLikeRepository(db *mongo.Database) *LikeRepository {
	return &LikeRepository{coll: db.Collection(likesCollection)}
}

type mongoLike struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	BlogID    primitive.ObjectID `bson:"blog_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *LikeRepository) Create(ctx context.Context, like *domain.Like) (*domain.Like, error) {
	blogID, err := objectID(like.BlogID, domain.ErrBlogNotFound)
	if err != nil {
		return nil, err
	}
	userID, err := objectID(like.UserID, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoLike{BlogID: blogID, UserID: userID, CreatedAt: like.CreatedAt.UTC()}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyLiked
		}
		return nil, fmt.Errorf("insert like: %w", err)
	}

	return &domain.Like{
		ID:        res.InsertedID.(primitive.ObjectID).Hex(),
		BlogID:    like.BlogID,
		UserID:    like.UserID,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *LikeRepository) Delete(ctx context.Context, blogID, userID string) error {
	blogOID, err := objectID(blogID, domain.ErrLikeNotFound)
	if err != nil {
		return err
	}
	userOID, err := objectID(userID, domain.ErrLikeNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"blog_id": blogOID, "user_id": userOID})
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLikeNotFound
	}
	return nil
}

func (r *LikeRepository) DeleteByBlogs(ctx context.Context, blogIDs []string) (int64, error) {
	return deleteByBlogs(ctx, r.coll, blogIDs)
}

func (r *LikeRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return deleteByUser(ctx, r.coll, userID)
}

func (r *LikeRepository) CountByBlogForUser(ctx context.Context, userID string) ([]domain.BlogCount, error) {
	return countByBlogForUser(ctx, r.coll, userID)
}

func (r *LikeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "blog_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
