package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/service"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/response"
)

type notificationService interface {
	SendManual(ctx context.Context, req service.ManualNotificationRequest) (*models.NotificationResult, error)
}

// NotificationHandler lets operators resend demerit notices.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Send godoc
// @Summary Send a demerit notice
// @Description Delivery failures are reported with success=false rather than an error status.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.ManualNotificationRequest true "Notice payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /send-notification [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	var req service.ManualNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}
	result, err := h.notifications.SendManual(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
