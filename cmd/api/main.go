// @title			DevJourney Blog API
// @version		1.0
// @description	Blogging platform backend: accounts, posts, comments, likes and newsletter.
// @BasePath		/api/v1
//
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/api"
	"github.com/devjourney/blog-api/internal/api/handler"
	"github.com/devjourney/blog-api/internal/api/metrics"
	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/service"
	"github.com/devjourney/blog-api/internal/infrastructure/config"
	"github.com/devjourney/blog-api/internal/infrastructure/db/mongo"
	"github.com/devjourney/blog-api/internal/infrastructure/db/redis"
	"github.com/devjourney/blog-api/internal/infrastructure/email"
	"github.com/devjourney/blog-api/internal/infrastructure/queue"
	"github.com/devjourney/blog-api/internal/infrastructure/sanitize"
	"github.com/devjourney/blog-api/internal/infrastructure/storage"
	"github.com/devjourney/blog-api/pkg/logger"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "blog-api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "blog-api",
	})

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     version,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// --- Storage backends ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongo.NewUserRepository(db)
	ledger := mongo.NewTokenRepository(db)
	blogs := mongo.NewBlogRepository(db)
	comments := mongo.NewCommentRepository(db)
	likes := mongo.NewLikeRepository(db)
	subscribers := mongo.NewSubscriberRepository(db)
	jobStore := mongo.NewJobRepository(db, cfg.Jobs.Retention)

	if err := mongo.EnsureIndexes(ctx, users, ledger, blogs, comments, likes, subscribers, jobStore); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	banners, err := storage.NewS3Storage(ctx, storage.Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	}, log)
	if err != nil {
		return err
	}

	mailer, err := email.New(email.Config{
		Provider:       cfg.Email.Provider,
		From:           cfg.Email.From,
		FromName:       cfg.Email.FromName,
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		MailgunDomain:  cfg.Email.MailgunDomain,
		MailgunAPIKey:  cfg.Email.MailgunAPIKey,
	}, log, metrics.ObserveEmail)
	if err != nil {
		return err
	}

	// --- Background jobs ---
	jobs := queue.New(jobStore, queue.Config{
		Workers:        cfg.Jobs.Workers,
		PollInterval:   cfg.Jobs.PollInterval,
		LockLifetime:   cfg.Jobs.LockLifetime,
		HandlerTimeout: cfg.Jobs.HandlerTimeout,
		MaxAttempts:    cfg.Jobs.MaxAttempts,
		BackoffBase:    cfg.Jobs.BackoffBase,
		BackoffMax:     cfg.Jobs.BackoffMax,
	}, log,
		queue.WithNotifier(redis.NewJobNotifier(redisClient, log)),
		queue.WithObserver(func(name string, outcome queue.Outcome, elapsed time.Duration) {
			metrics.ObserveJob(name, string(outcome), elapsed)
		}),
	)

	// --- Services ---
	sanitizer := sanitize.NewHTMLSanitizer()
	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})

	authSvc := service.NewAuthService(users, tokens, ledger, subscribers, jobs, service.AuthConfig{
		AdminEmails:    cfg.Auth.AdminEmails,
		RevokeOnRotate: cfg.Auth.RevokeOnRotate,
	}, log)
	userSvc := service.NewUserService(users, blogs, comments, likes, ledger, subscribers, banners, log)
	blogSvc := service.NewBlogService(blogs, comments, likes, banners, sanitizer, jobs, log)
	commentSvc := service.NewCommentService(comments, blogs, sanitizer, log)
	likeSvc := service.NewLikeService(likes, blogs, log)
	subscriberSvc := service.NewSubscriberService(subscribers, jobs, log)
	jobAdmin := service.NewJobAdminService(jobStore, log)

	notifications := service.NewNotificationService(mailer, blogs, subscribers, service.NotificationConfig{
		SupportAddress: cfg.Email.SupportAddress,
		SiteURL:        cfg.SiteURL,
	}, log)
	if err := jobs.Define(domain.JobSendWelcomeEmail, notifications.SendWelcomeEmail); err != nil {
		return err
	}
	if err := jobs.Define(domain.JobNotifyNewBlog, notifications.NotifyNewBlog); err != nil {
		return err
	}
	// Workers outlive the signal context so Stop can drain them.
	if err := jobs.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start job queue: %w", err)
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Services: api.Services{
			Auth:        authSvc,
			Users:       userSvc,
			Blogs:       blogSvc,
			Comments:    commentSvc,
			Likes:       likeSvc,
			Subscribers: subscriberSvc,
			Jobs:        jobAdmin,
		},
		Tokens:  tokens,
		Roles:   users,
		Limiter: redis.NewRateLimiter(redisClient),
		Health: []handler.DependencyCheck{
			{Name: "mongo", Check: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "email", Check: func(context.Context) error {
				if mailer.State() == "open" {
					return errors.New("email provider circuit open")
				}
				return nil
			}},
		},
	}, api.Options{
		Version:      version,
		AllowOrigins: cfg.WhitelistOrigins,
		Cookie: handler.CookieConfig{
			Secure: cfg.IsProduction(),
			MaxAge: cfg.Auth.RefreshTTL,
		},
		Paging:     handler.Paging{Limit: cfg.DefaultResLimit, Offset: cfg.DefaultResOffset},
		RateLimit:  cfg.RateLimit.Limit,
		RateWindow: cfg.RateLimit.Window,
		Logger:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		shutdown(e.Shutdown, jobs, log)
		return err
	}

	shutdown(e.Shutdown, jobs, log)
	return nil
}

// shutdown stops accepting requests first, then waits for running jobs.
func shutdown(stopHTTP func(context.Context) error, jobs *queue.Queue, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := stopHTTP(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := jobs.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("job queue shutdown")
	}
	log.Info().Msg("server stopped")
}
