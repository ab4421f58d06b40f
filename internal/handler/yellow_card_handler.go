package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/middleware"
	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/service"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/response"
)

type yellowCardService interface {
	Update(ctx context.Context, studentID int64, req service.UpdateYellowCardRequest) (*service.YellowCardResult, error)
	Reset(ctx context.Context, studentID int64) (*models.Student, error)
}

// YellowCardHandler exposes the counter endpoints.
type YellowCardHandler struct {
	cards  yellowCardService
	logger *zap.Logger
}

// NewYellowCardHandler constructs YellowCardHandler.
func NewYellowCardHandler(cards yellowCardService, logger *zap.Logger) *YellowCardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YellowCardHandler{cards: cards, logger: logger}
}

// Update godoc
// @Summary Add or remove a yellow card
// @Description Three cards convert into a demerit and notify the grade's recipients; three demerits reset both counters.
// @Tags Yellow Cards
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body service.UpdateYellowCardRequest false "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/yellow-card [post]
func (h *YellowCardHandler) Update(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateYellowCardRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid yellow card payload"))
		return
	}

	result, err := h.cards.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims := middleware.CurrentUser(c); claims != nil {
		h.logger.Info("yellow card action",
			zap.Int64("student_id", id),
			zap.String("action", req.Action),
			zap.String("actor", claims.Email),
		)
	}
	response.JSON(c, http.StatusOK, result)
}

// Reset godoc
// @Summary Reset a student's counters
// @Tags Yellow Cards
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/reset [post]
func (h *YellowCardHandler) Reset(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.cards.Reset(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}
