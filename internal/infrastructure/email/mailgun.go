package email

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/devjourney/blog-api/internal/core/ports"
)

// MailgunSender delivers messages through the Mailgun messages API.
type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunSender(domain, apiKey, from, fromName string) *MailgunSender {
	return &MailgunSender{
		mg:   mailgun.NewMailgun(domain, apiKey),
		from: formatFrom(fromName, from),
	}
}

func (s *MailgunSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	m := s.mg.NewMessage(s.from, msg.Subject, "", msg.To...)
	m.SetHtml(msg.HTML)
	for _, bcc := range msg.Bcc {
		m.AddBCC(bcc)
	}

	if _, _, err := s.mg.Send(ctx, m); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}
