package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/mailer"
)

// DemeritSubject is the subject line of every demerit notice.
const DemeritSubject = "Yellow Card Tracker Notice – Demerit Issued"

type recipientRepository interface {
	Get(ctx context.Context, grade int) (*models.GradeSettings, error)
}

// ManualNotificationRequest is the payload of POST /send-notification.
type ManualNotificationRequest struct {
	StudentName string `json:"studentName" validate:"required"`
	Grade       int    `json:"grade" validate:"required,min=1,max=12"`
}

// NotificationService renders demerit notices and hands them to a mail transport.
// Delivery problems are reported in the result, never as errors.
type NotificationService struct {
	repo      recipientRepository
	transport mailer.Transport
	from      mail.Address
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo recipientRepository, transport mailer.Transport, from mail.Address, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if from.Name == "" {
		from.Name = "Yellow Card Tracker"
	}
	return &NotificationService{repo: repo, transport: transport, from: from, metrics: metrics, validator: validate, logger: logger}
}

// Send notifies the grade's recipients that studentName received a demerit.
func (s *NotificationService) Send(ctx context.Context, studentName string, grade int) models.NotificationResult {
	result := s.send(ctx, studentName, grade)
	s.metrics.RecordNotification(result.Success)
	return result
}

// SendManual validates an operator request and sends the notice.
func (s *NotificationService) SendManual(ctx context.Context, req ManualNotificationRequest) (*models.NotificationResult, error) {
	req.StudentName = strings.TrimSpace(req.StudentName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	result := s.Send(ctx, req.StudentName, req.Grade)
	return &result, nil
}

func (s *NotificationService) send(ctx context.Context, studentName string, grade int) models.NotificationResult {
	if s.transport == nil {
		return models.NotificationResult{Message: "Email system not initialized"}
	}

	settings, err := s.repo.Get(ctx, grade)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NotificationResult{Message: fmt.Sprintf("No email recipients configured for Grade %d", grade)}
		}
		s.logger.Warn("failed to load notification recipients", zap.Int("grade", grade), zap.Error(err))
		return models.NotificationResult{Message: err.Error()}
	}
	if len(settings.Emails) == 0 {
		return models.NotificationResult{Message: fmt.Sprintf("No email recipients found for Grade %d", grade)}
	}

	msg := renderDemeritNotice(s.from, settings.Emails, studentName)
	receipt, err := s.transport.Send(ctx, msg)
	if err != nil {
		s.logger.Warn("demerit notice failed",
			zap.String("transport", s.transport.Name()),
			zap.Int("grade", grade),
			zap.Error(err),
		)
		return models.NotificationResult{Message: err.Error(), Recipients: settings.Emails}
	}

	s.logger.Info("demerit notice sent",
		zap.String("transport", s.transport.Name()),
		zap.String("message_id", receipt.MessageID),
		zap.Int("grade", grade),
		zap.Int("recipients", len(settings.Emails)),
	)
	return models.NotificationResult{
		Success:    true,
		Message:    "Email sent successfully",
		PreviewURL: receipt.PreviewURL,
		Recipients: settings.Emails,
	}
}

func renderDemeritNotice(from mail.Address, to []string, studentName string) mailer.Message {
	return mailer.Message{
		From:    from,
		To:      append([]string{}, to...),
		Subject: DemeritSubject,
		Text: fmt.Sprintf("We would like to inform you that %s has gotten 3 yellow cards, which is equivalent to a demerit.",
			studentName),
		HTML: fmt.Sprintf("<p>We would like to inform you that <strong>%s</strong> has gotten <strong>3 yellow cards</strong>, which is equivalent to a <strong>demerit</strong>.</p>",
			html.EscapeString(studentName)),
	}
}
