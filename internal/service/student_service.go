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

type studentRepository interface {
	List(ctx context.Context, grade int) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type studentLogRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.StudentLog, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Grade    int    `json:"grade" validate:"required,min=1,max=12"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	logs      studentLogRepository
	cache     *ReportCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, logs studentLogRepository, cache *ReportCache, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logs: logs, cache: cache, validator: validate, logger: logger}
}

// List returns the students of a grade ordered by name.
func (s *StudentService) List(ctx context.Context, grade int) ([]models.Student, error) {
	if !models.ValidGrade(grade) {
		return nil, appErrors.Validation("grade is required and must be between 1 and 12")
	}
	students, err := s.repo.List(ctx, grade)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list students")
	}
	return students, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Dependency(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student with zeroed counters.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and grade required")
	}
	student := &models.Student{FullName: req.FullName, Grade: req.Grade}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Dependency(err, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.Int("grade", student.Grade))
	return student, nil
}

// Logs returns a student's history, newest first.
func (s *StudentService) Logs(ctx context.Context, id int64) ([]models.StudentLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load student logs")
	}
	return logs, nil
}

// Delete removes a student and their history.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Dependency(err, "failed to delete student")
	}
	s.cache.InvalidateWeekly(ctx)
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}
