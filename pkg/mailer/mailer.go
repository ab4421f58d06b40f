// Package mailer sends outbound e-mail through a configurable transport.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/pkg/config"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	From    mail.Address
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Receipt describes an accepted message.
type Receipt struct {
	MessageID  string
	PreviewURL string
}

// Transport delivers messages.
type Transport interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
	Name() string
}

// New builds the transport selected by cfg.Driver.
func New(cfg config.MailConfig, logger *zap.Logger) (Transport, error) {
	switch cfg.Driver {
	case config.MailDriverSMTP:
		if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
			return nil, fmt.Errorf("smtp transport requires SMTP_USER and SMTP_PASS")
		}
		return NewSMTPTransport(cfg), nil
	case config.MailDriverSendgrid:
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid transport requires SENDGRID_API_KEY")
		}
		return NewSendgridTransport(cfg.SendgridAPIKey), nil
	case "", config.MailDriverConsole:
		return NewConsoleTransport(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

// Validate reports whether msg can be handed to a transport.
func (m Message) Validate() error {
	if m.From.Address == "" {
		return fmt.Errorf("message has no sender")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	for _, to := range m.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	if strings.TrimSpace(m.Text) == "" && strings.TrimSpace(m.HTML) == "" {
		return fmt.Errorf("message has no content")
	}
	return nil
}
