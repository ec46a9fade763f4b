package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devjourney/blog-api/internal/core/domain"
)

const commentsCollection = "comments"

type CommentRepository struct {
	coll *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{coll: db.Collection(commentsCollection)}
}

type mongoComment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	BlogID     primitive.ObjectID `bson:"blog_id"`
	UserID     primitive.ObjectID `bson:"user_id"`
	Content    string             `bson:"content"`
	LikesCount int64              `bson:"likesCount"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (mc *mongoComment) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:         mc.ID.Hex(),
		BlogID:     mc.BlogID.Hex(),
		UserID:     mc.UserID.Hex(),
		Content:    mc.Content,
		LikesCount: mc.LikesCount,
		CreatedAt:  mc.CreatedAt.UTC(),
		UpdatedAt:  mc.UpdatedAt.UTC(),
	}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	blogID, err := objectID(c.BlogID, domain.ErrBlogNotFound)
	if err != nil {
		return nil, err
	}
	userID, err := objectID(c.UserID, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoComment{
		BlogID:    blogID,
		UserID:    userID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, err := objectID(id, domain.ErrCommentNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoComment
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return mc.toDomain(), nil
}

// ListByBlog returns every comment of a blog, newest first.
func (r *CommentRepository) ListByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error) {
	oid, err := objectID(blogID, domain.ErrBlogNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"blog_id": oid}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *CommentRepository) List(ctx context.Context, page domain.Page) ([]*domain.Comment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	comments, err := r.find(ctx, bson.M{}, pageOptions(page.Limit, page.Offset).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Comment, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	var docs []mongoComment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	comments := make([]*domain.Comment, 0, len(docs))
	for i := range docs {
		comments = append(comments, docs[i].toDomain())
	}
	return comments, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrCommentNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepository) DeleteByBlogs(ctx context.Context, blogIDs []string) (int64, error) {
	return deleteByBlogs(ctx, r.coll, blogIDs)
}

func (r *CommentRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return deleteByUser(ctx, r.coll, userID)
}

func (r *CommentRepository) CountByBlogForUser(ctx context.Context, userID string) ([]domain.BlogCount, error) {
	return countByBlogForUser(ctx, r.coll, userID)
}

func (r *CommentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "blog_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// Helpers shared by the collections that reference blogs and users.

func deleteByBlogs(ctx context.Context, coll *mongo.Collection, blogIDs []string) (int64, error) {
	oids := objectIDs(blogIDs)
	if len(oids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := coll.DeleteMany(ctx, bson.M{"blog_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("delete %s by blogs: %w", coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func deleteByUser(ctx context.Context, coll *mongo.Collection, userID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := coll.DeleteMany(ctx, bson.M{"user_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete %s by user: %w", coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func countByBlogForUser(ctx context.Context, coll *mongo.Collection, userID string) ([]domain.BlogCount, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": oid}}},
		{{Key: "$group", Value: bson.M{"_id": "$blog_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}

	var rows []struct {
		BlogID primitive.ObjectID `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s counts: %w", coll.Name(), err)
	}

	counts := make([]domain.BlogCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, domain.BlogCount{BlogID: row.BlogID.Hex(), Count: row.Count})
	}
	return counts, nil
}
