package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// MaxRefreshTTL mirrors the TTL index of the refresh token ledger.
const MaxRefreshTTL = 7 * 24 * time.Hour

type Config struct {
	Port      string `env:"PORT,      default=3000"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	SiteURL   string `env:"SITE_URL,  default=http://localhost:5173"`
	SentryDSN string `env:"SENTRY_DSN"`

	WhitelistOrigins []string `env:"WHITELIST_ORIGINS"`
	DefaultResLimit  int      `env:"DEFAULT_RES_LIMIT,  default=20"`
	DefaultResOffset int      `env:"DEFAULT_RES_OFFSET, default=0"`

	Auth      AuthConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Jobs      JobsConfig
	Email     EmailConfig
	Storage   StorageConfig
}

type AuthConfig struct {
	AccessSecret   string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret  string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL      time.Duration `env:"ACCESS_TOKEN_EXPIRY,  default=15m"`
	RefreshTTL     time.Duration `env:"REFRESH_TOKEN_EXPIRY, default=168h"`
	RevokeOnRotate bool          `env:"REVOKE_ON_ROTATE,     default=false"`
	AdminEmails    []string      `env:"WHITELIST_ADMIN_MAILS"`
}

// RateLimitConfig applies to login and register, per client IP.
type RateLimitConfig struct {
	Limit  int           `env:"LOGIN_RATE_LIMIT,  default=10"`
	Window time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=devjourney"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

type JobsConfig struct {
	Workers        int           `env:"JOB_WORKERS,         default=4"`
	PollInterval   time.Duration `env:"JOB_POLL_INTERVAL,   default=5s"`
	LockLifetime   time.Duration `env:"JOB_LOCK_LIFETIME,   default=10m"`
	HandlerTimeout time.Duration `env:"JOB_HANDLER_TIMEOUT, default=2m"`
	MaxAttempts    int           `env:"JOB_MAX_ATTEMPTS,    default=1"`
	BackoffBase    time.Duration `env:"JOB_BACKOFF_BASE,    default=30s"`
	BackoffMax     time.Duration `env:"JOB_BACKOFF_MAX,     default=30m"`
	Retention      time.Duration `env:"JOB_RETENTION,       default=24h"`
}

type EmailConfig struct {
	Provider       string `env:"EMAIL_PROVIDER,        default=log"`
	From           string `env:"EMAIL_FROM,            default=no-reply@devjourney.io"`
	FromName       string `env:"EMAIL_FROM_NAME,       default=DevJourney"`
	SupportAddress string `env:"EMAIL_SUPPORT_ADDRESS, default=support@devjourney.io"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailgunDomain  string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY"`
}

type StorageConfig struct {
	Bucket          string `env:"S3_BUCKET, default=devjourney-banners"`
	Region          string `env:"S3_REGION, default=us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
}

// IsProduction reports whether the process runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY must be positive"))
	}
	if c.Auth.RefreshTTL <= 0 || c.Auth.RefreshTTL > MaxRefreshTTL {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_EXPIRY must be in (0, %s]", MaxRefreshTTL))
	}
	if c.DefaultResLimit <= 0 {
		errs = append(errs, errors.New("DEFAULT_RES_LIMIT must be positive"))
	}
	if c.DefaultResOffset < 0 {
		errs = append(errs, errors.New("DEFAULT_RES_OFFSET must not be negative"))
	}
	if c.Jobs.Workers <= 0 {
		errs = append(errs, errors.New("JOB_WORKERS must be positive"))
	}
	if c.Jobs.MaxAttempts <= 0 {
		errs = append(errs, errors.New("JOB_MAX_ATTEMPTS must be positive"))
	}
	if c.Jobs.HandlerTimeout <= 0 || c.Jobs.HandlerTimeout >= c.Jobs.LockLifetime {
		errs = append(errs, errors.New("JOB_HANDLER_TIMEOUT must be positive and below JOB_LOCK_LIFETIME"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
