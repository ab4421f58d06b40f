package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/internal/service"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/response"
)

type settingsService interface {
	Emails(ctx context.Context, grade int) ([]string, error)
	AddEmail(ctx context.Context, grade int, req service.EmailRequest) ([]string, error)
	RemoveEmail(ctx context.Context, grade int, req service.EmailRequest) ([]string, error)
}

// SettingsHandler exposes per-grade notification recipients.
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Emails godoc
// @Summary List notification recipients for a grade
// @Tags Settings
// @Produce json
// @Param grade path int true "Grade (1-12)"
// @Success 200 {object} response.Envelope
// @Router /settings/{grade} [get]
func (h *SettingsHandler) Emails(c *gin.Context) {
	grade, err := gradeParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	emails, err := h.settings.Emails(c.Request.Context(), grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, emails)
}

// AddEmail godoc
// @Summary Add a notification recipient
// @Tags Settings
// @Accept json
// @Produce json
// @Param grade path int true "Grade (1-12)"
// @Param payload body service.EmailRequest true "Recipient"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/{grade}/emails [post]
func (h *SettingsHandler) AddEmail(c *gin.Context) {
	h.mutate(c, h.settings.AddEmail)
}

// RemoveEmail godoc
// @Summary Remove a notification recipient
// @Tags Settings
// @Accept json
// @Produce json
// @Param grade path int true "Grade (1-12)"
// @Param payload body service.EmailRequest true "Recipient"
// @Success 200 {object} response.Envelope
// @Router /settings/{grade}/emails [delete]
func (h *SettingsHandler) RemoveEmail(c *gin.Context) {
	h.mutate(c, h.settings.RemoveEmail)
}

func (h *SettingsHandler) mutate(c *gin.Context, op func(context.Context, int, service.EmailRequest) ([]string, error)) {
	grade, err := gradeParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid email payload"))
		return
	}
	emails, err := op(c.Request.Context(), grade, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, emails)
}
