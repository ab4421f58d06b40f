package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

type gradeSettingsRepository interface {
	Get(ctx context.Context, grade int) (*models.GradeSettings, error)
	Upsert(ctx context.Context, settings *models.GradeSettings) error
	CreateIfMissing(ctx context.Context, settings *models.GradeSettings) (bool, error)
}

// EmailRequest is the body of the recipient add/remove endpoints.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SettingsService manages per-grade notification recipients.
type SettingsService struct {
	repo      gradeSettingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo gradeSettingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Emails returns the recipients for a grade, empty when none are configured.
func (s *SettingsService) Emails(ctx context.Context, grade int) ([]string, error) {
	if !models.ValidGrade(grade) {
		return nil, appErrors.Validation("grade must be between 1 and 12")
	}
	settings, err := s.load(ctx, grade)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return []string{}, nil
	}
	return settings.Emails, nil
}

// AddEmail appends a recipient, creating the grade's settings when needed.
// Adding an address that is already present leaves the list unchanged.
func (s *SettingsService) AddEmail(ctx context.Context, grade int, req EmailRequest) ([]string, error) {
	if !models.ValidGrade(grade) {
		return nil, appErrors.Validation("grade must be between 1 and 12")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email address")
	}

	settings, err := s.load(ctx, grade)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &models.GradeSettings{Grade: grade, Emails: []string{}}
	}
	if settings.HasEmail(req.Email) {
		return settings.Emails, nil
	}
	settings.Emails = append(settings.Emails, req.Email)
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Dependency(err, "failed to save grade settings")
	}
	s.logger.Info("notification recipient added", zap.Int("grade", grade), zap.String("email", req.Email))
	return settings.Emails, nil
}

// RemoveEmail drops a recipient. Removing from a grade without settings
// returns an empty list.
func (s *SettingsService) RemoveEmail(ctx context.Context, grade int, req EmailRequest) ([]string, error) {
	if !models.ValidGrade(grade) {
		return nil, appErrors.Validation("grade must be between 1 and 12")
	}
	settings, err := s.load(ctx, grade)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return []string{}, nil
	}

	email := strings.TrimSpace(req.Email)
	kept := make([]string, 0, len(settings.Emails))
	for _, e := range settings.Emails {
		if e != email {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(settings.Emails) {
		return kept, nil
	}
	settings.Emails = kept
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Dependency(err, "failed to save grade settings")
	}
	s.logger.Info("notification recipient removed", zap.Int("grade", grade), zap.String("email", email))
	return kept, nil
}

// SeedDefaults creates settings rows for every grade that has none, using
// emails as the initial recipients.
func (s *SettingsService) SeedDefaults(ctx context.Context, emails []string) (int, error) {
	created := 0
	for grade := models.MinGrade; grade <= models.MaxGrade; grade++ {
		ok, err := s.repo.CreateIfMissing(ctx, &models.GradeSettings{Grade: grade, Emails: append([]string{}, emails...)})
		if err != nil {
			return created, appErrors.Dependency(err, "failed to seed grade settings")
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		s.logger.Info("grade settings seeded", zap.Int("grades", created), zap.Int("recipients", len(emails)))
	}
	return created, nil
}

func (s *SettingsService) load(ctx context.Context, grade int) (*models.GradeSettings, error) {
	settings, err := s.repo.Get(ctx, grade)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Dependency(err, "failed to load grade settings")
	}
	if settings.Emails == nil {
		settings.Emails = []string{}
	}
	return settings, nil
}
