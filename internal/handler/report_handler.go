package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/service"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/export"
	"github.com/noah-isme/yellowcard-api/pkg/response"
)

type reportService interface {
	Weekly(ctx context.Context, offset, grade int) (*models.WeeklyReport, error)
	Export(ctx context.Context, offset, grade int, format string) (*service.ReportFile, error)
	Logs(ctx context.Context, start, end time.Time, grade int) ([]models.StudentLogEntry, error)
}

// ReportHandler exposes the weekly report endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Weekly godoc
// @Summary Weekly yellow card tally
// @Description Counts yellow cards issued Sunday to Saturday, discarding cards issued before a manual reset.
// @Tags Reports
// @Produce json
// @Param offset query int false "Week offset, 0 for the current week, negative for past weeks"
// @Param grade query int false "Restrict to a grade"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/weekly [get]
func (h *ReportHandler) Weekly(c *gin.Context) {
	offset, grade, ok := weekQuery(c)
	if !ok {
		return
	}
	report, err := h.reports.Weekly(c.Request.Context(), offset, grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Export godoc
// @Summary Download the weekly tally
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param offset query int false "Week offset"
// @Param grade query int false "Restrict to a grade"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/weekly/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	offset, grade, ok := weekQuery(c)
	if !ok {
		return
	}
	file, err := h.reports.Export(c.Request.Context(), offset, grade, c.DefaultQuery("format", export.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Logs godoc
// @Summary Raw log entries in a time window
// @Tags Reports
// @Produce json
// @Param start query string true "RFC 3339 start instant"
// @Param end query string true "RFC 3339 end instant"
// @Param grade query int false "Restrict to a grade"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /logs [get]
func (h *ReportHandler) Logs(c *gin.Context) {
	start, err := time.Parse(time.RFC3339Nano, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Validation("start must be an RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339Nano, c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Validation("end must be an RFC 3339 timestamp"))
		return
	}
	grade, err := optionalIntQuery(c, "grade", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.reports.Logs(c.Request.Context(), start, end, grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Reasons godoc
// @Summary Reasons offered when issuing a card
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reasons [get]
func (h *ReportHandler) Reasons(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.ReasonCatalog)
}

func weekQuery(c *gin.Context) (int, int, bool) {
	offset, err := optionalIntQuery(c, "offset", 0)
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	grade, err := optionalIntQuery(c, "grade", 0)
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	return offset, grade, true
}
