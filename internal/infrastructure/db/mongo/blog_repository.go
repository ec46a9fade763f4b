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

const blogsCollection = "blogs"

type BlogRepository struct {
	coll *mongo.Collection
}

func NewBlogRepository(db *mongo.Database) *BlogRepository {
	return &BlogRepository{coll: db.Collection(blogsCollection)}
}

type mongoBanner struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
	Width    int    `bson:"width,omitempty"`
	Height   int    `bson:"height,omitempty"`
}

type mongoBlog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Slug          string             `bson:"slug"`
	Content       string             `bson:"content"`
	Banner        mongoBanner        `bson:"banner"`
	Author        primitive.ObjectID `bson:"author"`
	ViewsCount    int64              `bson:"viewsCount"`
	LikesCount    int64              `bson:"likesCount"`
	CommentsCount int64              `bson:"commentsCount"`
	Status        string             `bson:"status"`
	PublishedAt   *time.Time         `bson:"published_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func toMongoBlog(b *domain.Blog) (mongoBlog, error) {
	author, err := primitive.ObjectIDFromHex(b.AuthorID)
	if err != nil {
		return mongoBlog{}, fmt.Errorf("blog author %q: %w", b.AuthorID, err)
	}
	var published *time.Time
	if b.PublishedAt != nil {
		published = timePtr(*b.PublishedAt)
	}
	return mongoBlog{
		Title:         b.Title,
		Slug:          b.Slug,
		Content:       b.Content,
		Banner:        mongoBanner(b.Banner),
		Author:        author,
		ViewsCount:    b.ViewsCount,
		LikesCount:    b.LikesCount,
		CommentsCount: b.CommentsCount,
		Status:        string(b.Status),
		PublishedAt:   published,
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt.UTC(),
	}, nil
}

func (mb *mongoBlog) toDomain() *domain.Blog {
	return &domain.Blog{
		ID:            mb.ID.Hex(),
		Title:         mb.Title,
		Slug:          mb.Slug,
		Content:       mb.Content,
		Banner:        domain.Banner(mb.Banner),
		AuthorID:      mb.Author.Hex(),
		ViewsCount:    mb.ViewsCount,
		LikesCount:    mb.LikesCount,
		CommentsCount: mb.CommentsCount,
		Status:        domain.BlogStatus(mb.Status),
		PublishedAt:   mb.PublishedAt,
		CreatedAt:     mb.CreatedAt.UTC(),
		UpdatedAt:     mb.UpdatedAt.UTC(),
	}
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) (*domain.Blog, error) {
	doc, err := toMongoBlog(blog)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert blog: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *BlogRepository) findOne(ctx context.Context, filter bson.M) (*domain.Blog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mb mongoBlog
	if err := r.coll.FindOne(ctx, filter).Decode(&mb); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBlogNotFound
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return mb.toDomain(), nil
}

func (r *BlogRepository) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	oid, err := objectID(id, domain.ErrBlogNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *BlogRepository) FindBySlug(ctx context.Context, slug string) (*domain.Blog, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *BlogRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count blogs: %w", err)
	}
	return n > 0, nil
}

func blogFilter(f domain.BlogFilter) bson.M {
	filter := bson.M{}
	if f.AuthorID != "" {
		// an unparsable author id matches nothing
		oid, _ := primitive.ObjectIDFromHex(f.AuthorID)
		filter["author"] = oid
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}

// List returns blogs, most recently published first.
func (r *BlogRepository) List(ctx context.Context, f domain.BlogFilter, page domain.Page) ([]*domain.Blog, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := blogFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	opts := pageOptions(page.Limit, page.Offset).
		SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"banner.public_id": 0})
	blogs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (r *BlogRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.find(ctx, blogFilter(domain.BlogFilter{AuthorID: authorID}), options.Find().SetProjection(bson.M{"content": 0}))
}

func (r *BlogRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Blog, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	var docs []mongoBlog
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	blogs := make([]*domain.Blog, 0, len(docs))
	for i := range docs {
		blogs = append(blogs, docs[i].toDomain())
	}
	return blogs, nil
}

// Update writes the editable fields. Counters are left alone: they only move
// through IncrementCounter.
func (r *BlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	oid, err := objectID(blog.ID, domain.ErrBlogNotFound)
	if err != nil {
		return err
	}
	doc, err := toMongoBlog(blog)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":        doc.Title,
		"content":      doc.Content,
		"banner":       doc.Banner,
		"status":       doc.Status,
		"published_at": doc.PublishedAt,
		"updated_at":   doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBlogNotFound
	}
	return nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrBlogNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBlogNotFound
	}
	return nil
}

func (r *BlogRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, blogFilter(domain.BlogFilter{AuthorID: authorID}))
	if err != nil {
		return 0, fmt.Errorf("delete author blogs: %w", err)
	}
	return res.DeletedCount, nil
}

// IncrementCounter applies $inc and returns the counter value after the update.
func (r *BlogRepository) IncrementCounter(ctx context.Context, id string, counter domain.BlogCounter, delta int64) (int64, error) {
	oid, err := objectID(id, domain.ErrBlogNotFound)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	field := string(counter)
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})

	var out bson.M
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{field: delta}}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrBlogNotFound
		}
		return 0, fmt.Errorf("increment %s: %w", field, err)
	}

	switch v := out[field].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, nil
	}
}

func (r *BlogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
