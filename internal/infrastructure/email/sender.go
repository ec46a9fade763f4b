package email

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/ports"
)

const (
	ProviderSendGrid = "sendgrid"
	ProviderMailgun  = "mailgun"
	ProviderLog      = "log"
)

var ErrInvalidConfig = errors.New("invalid email configuration")

// Config selects and configures the email provider.
type Config struct {
	Provider       string
	From           string
	FromName       string
	SendGridAPIKey string
	MailgunDomain  string
	MailgunAPIKey  string
}

// New builds the sender for cfg.Provider wrapped in a circuit breaker. The log
// provider only writes messages to the logger, for local development.
func New(cfg Config, log zerolog.Logger, observe Observer) (*Breaker, error) {
	var sender ports.EmailSender
	switch cfg.Provider {
	case ProviderSendGrid:
		if cfg.SendGridAPIKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: sendgrid requires an api key and a from address", ErrInvalidConfig)
		}
		sender = NewSendGridSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName)
	case ProviderMailgun:
		if cfg.MailgunAPIKey == "" || cfg.MailgunDomain == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: mailgun requires a domain, an api key and a from address", ErrInvalidConfig)
		}
		sender = NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From, cfg.FromName)
	case ProviderLog, "":
		sender = NewLogSender(log)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderLog
	}
	return NewBreaker(provider, sender, log, observe), nil
}

func formatFrom(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
