package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/repository"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/middleware/requestid"
)

const (
	defaultNotifyTimeout  = 10 * time.Second
	maxTransitionAttempts = 3
)

type counterRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ApplyTransition(ctx context.Context, student *models.Student, log *models.StudentLog) error
}

type demeritNotifier interface {
	Send(ctx context.Context, studentName string, grade int) models.NotificationResult
}

// UpdateYellowCardRequest is the body of POST /students/:id/yellow-card.
// An empty action means add.
type UpdateYellowCardRequest struct {
	Action       string `json:"action" validate:"omitempty,oneof=add remove"`
	Reason       string `json:"reason"`
	CustomReason string `json:"customReason"`
}

// YellowCardResult is the updated student plus the outcome of any demerit
// notice sent because of the update.
type YellowCardResult struct {
	models.Student
	EmailResult *models.NotificationResult `json:"emailResult"`
}

// YellowCardService applies counter actions atomically and dispatches notices.
type YellowCardService struct {
	repo          counterRepository
	notifier      demeritNotifier
	cache         *ReportCache
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	notifyTimeout time.Duration
}

// NewYellowCardService constructs the yellow card service.
func NewYellowCardService(repo counterRepository, notifier demeritNotifier, cache *ReportCache, metrics *MetricsService, notifyTimeout time.Duration, validate *validator.Validate, logger *zap.Logger) *YellowCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &YellowCardService{
		repo:          repo,
		notifier:      notifier,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		notifyTimeout: notifyTimeout,
	}
}

// Update adds or removes a yellow card. Removing from zero cards returns the
// student unchanged and writes nothing.
func (s *YellowCardService) Update(ctx context.Context, studentID int64, req UpdateYellowCardRequest) (*YellowCardResult, error) {
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be add or remove")
	}

	student, transition, err := s.commit(ctx, studentID, func(st *models.Student) (Transition, error) {
		return ApplyYellowCardAction(CounterState{YellowCards: st.YellowCards, Demerits: st.Demerits}, req.Action, req.Reason, req.CustomReason)
	})
	if err != nil {
		return nil, err
	}

	result := &YellowCardResult{Student: *student}
	if transition.Notify {
		notice := s.notify(ctx, student)
		result.EmailResult = &notice
	}
	return result, nil
}

// Reset clears both counters and records a manual reset.
func (s *YellowCardService) Reset(ctx context.Context, studentID int64) (*models.Student, error) {
	student, _, err := s.commit(ctx, studentID, func(st *models.Student) (Transition, error) {
		return ManualResetTransition(CounterState{YellowCards: st.YellowCards, Demerits: st.Demerits}), nil
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// commit loads the student, applies rule and stores the result with a
// compare-and-swap on the student's version, reloading on conflicts.
func (s *YellowCardService) commit(ctx context.Context, studentID int64, rule func(*models.Student) (Transition, error)) (*models.Student, Transition, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		student, err := s.repo.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, Transition{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, Transition{}, appErrors.Dependency(err, "failed to load student")
		}

		transition, err := rule(student)
		if err != nil {
			return nil, Transition{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		if !transition.Changed {
			return student, transition, nil
		}

		next := *student
		next.YellowCards = transition.After.YellowCards
		next.Demerits = transition.After.Demerits
		entry := &models.StudentLog{Event: transition.Event, Description: transition.Description()}

		err = s.repo.ApplyTransition(ctx, &next, entry)
		if errors.Is(err, repository.ErrStaleVersion) {
			s.metrics.RecordRetry()
			s.logger.Debug("counter update raced, retrying", zap.Int64("student_id", studentID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, Transition{}, appErrors.Dependency(err, "failed to save counter update")
		}

		s.cache.InvalidateWeekly(ctx)
		s.metrics.RecordTransition(string(transition.Event), next.Grade, transition.Notify)
		s.logger.Info("counter updated",
			zap.Int64("student_id", next.ID),
			zap.String("event", string(transition.Event)),
			zap.Int("yellow_cards", next.YellowCards),
			zap.Int("demerits", next.Demerits),
			zap.String("request_id", requestid.FromContext(ctx)),
		)
		return &next, transition, nil
	}

	return nil, Transition{}, appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("student %d was modified concurrently, try again", studentID))
}

// notify sends the demerit notice once the counter change is committed.
// Cancellation of the request context is ignored; notifyTimeout bounds it.
func (s *YellowCardService) notify(ctx context.Context, student *models.Student) models.NotificationResult {
	if s.notifier == nil {
		return models.NotificationResult{Message: "Email system not initialized"}
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	done := make(chan models.NotificationResult, 1)
	go func() {
		done <- s.notifier.Send(notifyCtx, student.FullName, student.Grade)
	}()

	select {
	case result := <-done:
		return result
	case <-notifyCtx.Done():
		s.logger.Warn("demerit notice timed out",
			zap.Int64("student_id", student.ID),
			zap.Duration("timeout", s.notifyTimeout),
			zap.String("request_id", requestid.FromContext(ctx)),
		)
		return models.NotificationResult{Message: fmt.Sprintf("notification timed out after %s", s.notifyTimeout)}
	}
}
