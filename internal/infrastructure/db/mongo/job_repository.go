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
	"github.com/devjourney/blog-api/internal/core/ports"
)

const (
	jobsCollection   = "jobs"
	defaultRetention = 24 * time.Hour
)

// JobRepository is the durable store behind the job queue. Claims and every
// later transition are single conditional updates, so concurrent workers in
// any number of processes never run the same job twice under one lock.
type JobRepository struct {
	coll      *mongo.Collection
	retention time.Duration
}

// NewJobRepository returns a store that keeps completed jobs for retention
// before the TTL monitor removes them.
func NewJobRepository(db *mongo.Database, retention time.Duration) *JobRepository {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &JobRepository{coll: db.Collection(jobsCollection), retention: retention}
}

type mongoJob struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Data        bson.M             `bson:"data"`
	Status      string             `bson:"status"`
	NextRunAt   time.Time          `bson:"next_run_at"`
	Attempts    int                `bson:"attempts"`
	MaxAttempts int                `bson:"max_attempts"`
	LastError   string             `bson:"last_error,omitempty"`
	LockedAt    *time.Time         `bson:"locked_at,omitempty"`
	LockedBy    string             `bson:"locked_by,omitempty"`
	DeadLetter  bool               `bson:"dead_letter"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	FinishedAt  *time.Time         `bson:"finished_at,omitempty"`
}

func (mj *mongoJob) toDomain() *domain.Job {
	data := make(map[string]any, len(mj.Data))
	for k, v := range mj.Data {
		data[k] = v
	}
	return &domain.Job{
		ID:          mj.ID.Hex(),
		Name:        mj.Name,
		Data:        data,
		Status:      domain.JobStatus(mj.Status),
		NextRunAt:   mj.NextRunAt.UTC(),
		Attempts:    mj.Attempts,
		MaxAttempts: mj.MaxAttempts,
		LastError:   mj.LastError,
		LockedAt:    mj.LockedAt,
		LockedBy:    mj.LockedBy,
		DeadLetter:  mj.DeadLetter,
		CreatedAt:   mj.CreatedAt.UTC(),
		UpdatedAt:   mj.UpdatedAt.UTC(),
		FinishedAt:  mj.FinishedAt,
	}
}

func (r *JobRepository) Insert(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoJob{
		Name:        job.Name,
		Data:        bson.M(job.Data),
		Status:      string(domain.JobPending),
		NextRunAt:   job.NextRunAt.UTC(),
		MaxAttempts: job.MaxAttempts,
		CreatedAt:   job.CreatedAt.UTC(),
		UpdatedAt:   job.UpdatedAt.UTC(),
	}
	if doc.Data == nil {
		doc.Data = bson.M{}
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

// ClaimNext moves the oldest due job to running in one FindOneAndUpdate. A
// running job whose lock outlived LockLifetime is claimable again: its
// worker is presumed dead.
func (r *JobRepository) ClaimNext(ctx context.Context, req ports.ClaimRequest) (*domain.Job, error) {
	if len(req.Names) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, update := claimQuery(req)
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_run_at", Value: 1}}).
		SetReturnDocument(options.After)

	var mj mongoJob
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mj); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return mj.toDomain(), nil
}

// claimQuery selects a due pending job, or a running job whose lock is older
// than LockLifetime, and takes it for req.Owner.
func claimQuery(req ports.ClaimRequest) (filter, update bson.M) {
	now := req.Now.UTC()
	filter = bson.M{
		"name": bson.M{"$in": req.Names},
		"$or": bson.A{
			bson.M{"status": string(domain.JobPending), "next_run_at": bson.M{"$lte": now}},
			bson.M{"status": string(domain.JobRunning), "locked_at": bson.M{"$lte": now.Add(-req.LockLifetime)}},
		},
	}
	update = bson.M{
		"$set": bson.M{
			"status":     string(domain.JobRunning),
			"locked_at":  now,
			"locked_by":  req.Owner,
			"updated_at": now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	return filter, update
}

// ownedBy matches a job only while owner holds its lock.
func ownedBy(oid primitive.ObjectID, owner string) bson.M {
	return bson.M{"_id": oid, "status": string(domain.JobRunning), "locked_by": owner}
}

// transition applies set to a job still locked by owner. A lost lock is
// reported as domain.ErrJobNotFound.
func (r *JobRepository) transition(ctx context.Context, id, owner string, set bson.M) error {
	oid, err := objectID(id, domain.ErrJobNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, ownedBy(oid, owner), bson.M{
		"$set":   set,
		"$unset": bson.M{"locked_at": "", "locked_by": ""},
	})
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Extend moves locked_at forward while the owner is still running the job.
func (r *JobRepository) Extend(ctx context.Context, id, owner string, at time.Time) error {
	oid, err := objectID(id, domain.ErrJobNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	at = at.UTC()
	res, err := r.coll.UpdateOne(ctx, ownedBy(oid, owner), bson.M{
		"$set": bson.M{"locked_at": at, "updated_at": at},
	})
	if err != nil {
		return fmt.Errorf("extend job lock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) Complete(ctx context.Context, id, owner string, at time.Time) error {
	at = at.UTC()
	return r.transition(ctx, id, owner, bson.M{
		"status":      string(domain.JobCompleted),
		"finished_at": at,
		"updated_at":  at,
	})
}

func (r *JobRepository) Reschedule(ctx context.Context, id, owner string, runAt time.Time, lastErr string) error {
	return r.transition(ctx, id, owner, bson.M{
		"status":      string(domain.JobPending),
		"next_run_at": runAt.UTC(),
		"last_error":  lastErr,
		"updated_at":  time.Now().UTC(),
	})
}

func (r *JobRepository) Fail(ctx context.Context, id, owner string, at time.Time, lastErr string) error {
	at = at.UTC()
	return r.transition(ctx, id, owner, bson.M{
		"status":      string(domain.JobFailed),
		"dead_letter": true,
		"last_error":  lastErr,
		"finished_at": at,
		"updated_at":  at,
	})
}

func (r *JobRepository) ListFailed(ctx context.Context, page domain.Page) ([]*domain.Job, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"status": string(domain.JobFailed)}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count failed jobs: %w", err)
	}

	cur, err := r.coll.Find(ctx, filter, pageOptions(page.Limit, page.Offset).SetSort(bson.D{{Key: "finished_at", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("list failed jobs: %w", err)
	}
	var docs []mongoJob
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode jobs: %w", err)
	}
	jobs := make([]*domain.Job, 0, len(docs))
	for i := range docs {
		jobs = append(jobs, docs[i].toDomain())
	}
	return jobs, total, nil
}

// Requeue moves a failed job back to pending with its attempts reset.
func (r *JobRepository) Requeue(ctx context.Context, id string, at time.Time) (*domain.Job, error) {
	oid, err := objectID(id, domain.ErrJobNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	at = at.UTC()
	update := bson.M{
		"$set": bson.M{
			"status":      string(domain.JobPending),
			"attempts":    0,
			"dead_letter": false,
			"next_run_at": at,
			"updated_at":  at,
		},
		"$unset": bson.M{"finished_at": "", "locked_at": "", "locked_by": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mj mongoJob
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": string(domain.JobFailed)}, update, opts).Decode(&mj)
	if err == nil {
		return mj.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("requeue job: %w", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("lookup job: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrJobNotFound
	}
	return nil, domain.ErrJobNotFailed
}

func (r *JobRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "status", Value: 1}, {Key: "next_run_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "locked_at", Value: 1}}},
		{
			Keys: bson.D{{Key: "finished_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(r.retention / time.Second)).
				SetPartialFilterExpression(bson.M{"status": string(domain.JobCompleted)}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
