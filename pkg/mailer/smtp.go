package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"

	"github.com/noah-isme/yellowcard-api/pkg/config"
)

const defaultSMTPTimeout = 15 * time.Second

// SMTPTransport delivers mail through an authenticated SMTP relay using
// STARTTLS when the server offers it.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTPTransport constructs an SMTP transport.
func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPTransport{host: cfg.SMTPHost, port: port, username: cfg.SMTPUser, password: cfg.SMTPPassword}
}

// Name implements Transport.
func (t *SMTPTransport) Name() string { return config.MailDriverSMTP }

// Send implements Transport. The context deadline bounds the whole SMTP dialogue.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := fmt.Sprintf("%s@%s", uuid.NewString(), domainOf(msg.From.Address))
	m, err := buildMessage(msg, id)
	if err != nil {
		return nil, err
	}

	timeout := defaultSMTPTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	client, err := gomail.NewClient(t.host,
		gomail.WithPort(t.port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(t.username),
		gomail.WithPassword(t.password),
		gomail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("configure smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return nil, fmt.Errorf("smtp send via %s:%d: %w", t.host, t.port, err)
	}
	return &Receipt{MessageID: "<" + id + ">"}, nil
}

// buildMessage renders msg as multipart/alternative with the plain text part first.
func buildMessage(msg Message, messageID string) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.From.Name, msg.From.Address); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetMessageIDWithValue(messageID)
	m.SetDate()

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.Text != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	default:
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
