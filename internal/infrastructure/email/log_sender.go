package email

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/ports"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg ports.EmailMessage) error {
	s.log.Info().
		Strs("to", msg.To).
		Int("bcc", len(msg.Bcc)).
		Str("subject", msg.Subject).
		Msg("email not sent, log provider")
	return nil
}
