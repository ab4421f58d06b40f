package mailer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/pkg/config"
)

// ConsoleTransport logs messages instead of delivering them.
type ConsoleTransport struct {
	logger *zap.Logger
}

// NewConsoleTransport constructs a console transport.
func NewConsoleTransport(logger *zap.Logger) *ConsoleTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleTransport{logger: logger}
}

// Name implements Transport.
func (t *ConsoleTransport) Name() string { return config.MailDriverConsole }

// Send implements Transport.
func (t *ConsoleTransport) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	t.logger.Info("email (console transport)",
		zap.String("message_id", id),
		zap.String("from", msg.From.String()),
		zap.String("to", strings.Join(msg.To, ", ")),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return &Receipt{MessageID: id, PreviewURL: "console://" + id}, nil
}
