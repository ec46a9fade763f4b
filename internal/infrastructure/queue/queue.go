package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

const (
	defaultWorkers        = 4
	defaultPollInterval   = 5 * time.Second
	defaultLockLifetime   = 10 * time.Minute
	defaultHandlerTimeout = 2 * time.Minute
	defaultBackoffBase    = 30 * time.Second
	defaultBackoffMax     = 30 * time.Minute
)

var (
	ErrAlreadyStarted = errors.New("queue already started")
	ErrInvalidHandler = errors.New("job handler requires a name and a function")
	ErrHandlerTimeout = errors.New("job handler timed out")
	ErrHandlerPanic   = errors.New("job handler panicked")
)

// Handler processes one job. A returned error fails the attempt.
type Handler func(ctx context.Context, job *domain.Job) error

// Notifier carries wake-ups between queue instances.
type Notifier interface {
	Notify(ctx context.Context, name string) error
	Subscribe(ctx context.Context) <-chan string
}

// Outcome is the result of one job attempt.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRetried   Outcome = "retried"
	OutcomeFailed    Outcome = "failed"
)

// Observer is told about every finished attempt.
type Observer func(name string, outcome Outcome, elapsed time.Duration)

// Config tunes workers and retries. Zero values fall back to defaults;
// MaxAttempts below 1 means a single attempt. HandlerTimeout is kept below
// LockLifetime.
type Config struct {
	Workers        int
	PollInterval   time.Duration
	LockLifetime   time.Duration
	HandlerTimeout time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.LockLifetime <= 0 {
		c.LockLifetime = defaultLockLifetime
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = defaultHandlerTimeout
	}
	// A handler must time out before its lock could be taken for stale.
	if c.HandlerTimeout >= c.LockLifetime {
		c.HandlerTimeout = c.LockLifetime / 2
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = max(defaultBackoffMax, c.BackoffBase)
	}
	return c
}

type Option func(*Queue)

// WithNotifier enables cross-instance wake-ups.
func WithNotifier(n Notifier) Option {
	return func(q *Queue) { q.notifier = n }
}

func WithObserver(o Observer) Option {
	return func(q *Queue) { q.observe = o }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// Queue is a durable job queue. Jobs live in a ports.JobStore; a fixed pool of
// workers claims due jobs of the defined names and runs their handlers.
// Delivery is at least once: a job whose worker died is claimed again once
// its lock expires.
type Queue struct {
	store    ports.JobStore
	cfg      Config
	log      zerolog.Logger
	notifier Notifier
	observe  Observer
	now      func() time.Time
	owner    string
	wake     chan struct{}

	mu       sync.RWMutex
	handlers map[string]Handler
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(store ports.JobStore, cfg Config, log zerolog.Logger, opts ...Option) *Queue {
	cfg = cfg.withDefaults()
	host, _ := os.Hostname()
	q := &Queue{
		store:    store,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		owner:    fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		wake:     make(chan struct{}, cfg.Workers),
		handlers: make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Define registers the handler for name. Handlers are fixed once the queue
// has started.
func (q *Queue) Define(name string, h Handler) error {
	if name == "" || h == nil {
		return ErrInvalidHandler
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return fmt.Errorf("define %s: %w", name, ErrAlreadyStarted)
	}
	q.handlers[name] = h
	return nil
}

// Schedule persists a pending job that becomes due at when.
func (q *Queue) Schedule(ctx context.Context, name string, data map[string]any, when time.Time) (*domain.Job, error) {
	now := q.now().UTC()
	job, err := q.store.Insert(ctx, &domain.Job{
		Name:        name,
		Data:        data,
		Status:      domain.JobPending,
		NextRunAt:   when.UTC(),
		MaxAttempts: q.cfg.MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", name, err)
	}
	q.log.Debug().Str("job_id", job.ID).Str("job_name", name).Time("next_run_at", job.NextRunAt).Msg("job scheduled")
	return job, nil
}

// Now persists a job that is due immediately and wakes idle workers.
func (q *Queue) Now(ctx context.Context, name string, data map[string]any) (*domain.Job, error) {
	job, err := q.Schedule(ctx, name, data, q.now())
	if err != nil {
		return nil, err
	}
	q.signal()
	if q.notifier != nil {
		if err := q.notifier.Notify(ctx, name); err != nil {
			q.log.Warn().Err(err).Str("job_id", job.ID).Msg("job wake-up not published")
		}
	}
	return job, nil
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Start launches the workers. They run until Stop is called or ctx is done.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrAlreadyStarted
	}
	q.started = true

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	if q.notifier != nil {
		wakeups := q.notifier.Subscribe(runCtx)
		go func() {
			for range wakeups {
				q.signal()
			}
		}()
	}

	names := make([]string, 0, len(q.handlers))
	for name := range q.handlers {
		names = append(names, name)
	}

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.runWorker(runCtx, i, names)
	}

	q.log.Info().Int("workers", q.cfg.Workers).Strs("jobs", names).Str("owner", q.owner).Msg("job queue started")
	return nil
}

// Stop cancels the workers and waits for in-flight handlers until ctx is done.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info().Msg("job queue stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop job queue: %w", ctx.Err())
	}
}

func (q *Queue) runWorker(ctx context.Context, id int, names []string) {
	defer q.wg.Done()
	log := q.log.With().Int("worker_id", id).Logger()

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := q.store.ClaimNext(ctx, ports.ClaimRequest{
			Names:        names,
			Owner:        q.owner,
			Now:          q.now(),
			LockLifetime: q.cfg.LockLifetime,
		})
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("job claim failed")
		}
		if job == nil {
			q.idle(ctx)
			continue
		}

		q.process(ctx, log, job)
	}
}

func (q *Queue) idle(ctx context.Context) {
	t := time.NewTimer(q.cfg.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	case <-q.wake:
	}
}

// process runs a claimed job and records the outcome. The handler and the
// final write are detached from ctx so that Stop lets them finish.
func (q *Queue) process(ctx context.Context, log zerolog.Logger, job *domain.Job) {
	ctx = context.WithoutCancel(ctx)
	log = log.With().Str("job_id", job.ID).Str("job_name", job.Name).Int("attempt", job.Attempts).Logger()

	q.mu.RLock()
	h := q.handlers[job.Name]
	q.mu.RUnlock()

	start := q.now()
	err := q.run(ctx, log, h, job)
	elapsed := q.now().Sub(start)

	var outcome Outcome
	var werr error
	switch {
	case err == nil:
		outcome = OutcomeCompleted
		werr = q.store.Complete(ctx, job.ID, q.owner, q.now())
		log.Info().Dur("elapsed", elapsed).Msg("job completed")
	case !job.Exhausted():
		outcome = OutcomeRetried
		delay := Backoff(job.Attempts, q.cfg.BackoffBase, q.cfg.BackoffMax)
		werr = q.store.Reschedule(ctx, job.ID, q.owner, q.now().Add(delay), err.Error())
		log.Warn().Err(err).Dur("retry_in", delay).Msg("job failed, retrying")
	default:
		outcome = OutcomeFailed
		werr = q.store.Fail(ctx, job.ID, q.owner, q.now(), err.Error())
		log.Error().Err(err).Int("max_attempts", job.MaxAttempts).Msg("job failed")
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("job_name", job.Name)
			scope.SetExtra("job_id", job.ID)
			sentry.CaptureException(err)
		})
	}

	if werr != nil {
		if errors.Is(werr, domain.ErrJobNotFound) {
			log.Warn().Msg("job lock lost before outcome was recorded")
		} else {
			log.Error().Err(werr).Str("outcome", string(outcome)).Msg("job outcome not recorded")
		}
	}
	if q.observe != nil {
		q.observe(job.Name, outcome, elapsed)
	}
}

func (q *Queue) run(ctx context.Context, log zerolog.Logger, h Handler, job *domain.Job) error {
	if h == nil {
		return fmt.Errorf("no handler defined for %s", job.Name)
	}

	hctx, cancel := context.WithTimeout(ctx, q.cfg.HandlerTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			}
		}()
		done <- h(hctx, job)
	}()

	// The lock is refreshed until the handler goroutine has returned, even
	// past the timeout, so no other worker claims the job while it runs.
	beat := time.NewTicker(max(q.cfg.LockLifetime/3, time.Millisecond))
	defer beat.Stop()

	timeout := hctx.Done()
	timedOut := false
	for {
		select {
		case err := <-done:
			if timedOut {
				return fmt.Errorf("%w after %s", ErrHandlerTimeout, q.cfg.HandlerTimeout)
			}
			return err
		case <-timeout:
			timeout = nil
			timedOut = true
			log.Warn().Dur("timeout", q.cfg.HandlerTimeout).Msg("job handler timed out, waiting for it to return")
		case <-beat.C:
			if err := q.store.Extend(ctx, job.ID, q.owner, q.now()); err != nil {
				log.Warn().Err(err).Msg("job lock not extended")
			}
		}
	}
}

// Backoff returns the delay before retrying after the given attempt:
// base doubled per earlier attempt, capped at limit.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d >= limit/2 {
			return limit
		}
		d *= 2
	}
	return min(d, limit)
}
