package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/noah-isme/yellowcard-api/pkg/config"
)

// SendgridTransport delivers mail through the SendGrid v3 API.
type SendgridTransport struct {
	client *sendgrid.Client
}

// NewSendgridTransport constructs a SendGrid transport.
func NewSendgridTransport(apiKey string) *SendgridTransport {
	return &SendgridTransport{client: sendgrid.NewSendClient(apiKey)}
}

// Name implements Transport.
func (t *SendgridTransport) Name() string { return config.MailDriverSendgrid }

// Send implements Transport.
func (t *SendgridTransport) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	res, err := t.client.SendWithContext(ctx, prepareSendgrid(msg))
	if err != nil {
		return nil, fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	receipt := &Receipt{}
	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		receipt.MessageID = ids[0]
	}
	return receipt, nil
}

func prepareSendgrid(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(msg.From.Name, msg.From.Address))
	m.Subject = msg.Subject
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}
