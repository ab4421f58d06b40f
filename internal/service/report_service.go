package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
	"github.com/noah-isme/yellowcard-api/pkg/export"
)

type logWindowRepository interface {
	ListWindow(ctx context.Context, filter models.LogWindowFilter) ([]models.StudentLogEntry, error)
}

// ReportFile is a rendered weekly report ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ReportService builds weekly tallies from the log history.
type ReportService struct {
	logs     logWindowRepository
	cache    *ReportCache
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs the report service. Weeks are computed in loc.
func NewReportService(logs logWindowRepository, cache *ReportCache, loc *time.Location, logger *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{logs: logs, cache: cache, location: loc, logger: logger, now: time.Now}
}

// Weekly returns the tally for the week offset weeks from the current one,
// optionally restricted to a grade (0 means all grades).
func (s *ReportService) Weekly(ctx context.Context, offset, grade int) (*models.WeeklyReport, error) {
	if offset > 0 {
		return nil, appErrors.Validation("week offset cannot be in the future")
	}
	if grade != 0 && !models.ValidGrade(grade) {
		return nil, appErrors.Validation("grade must be between 1 and 12")
	}

	start, end := WeekRange(s.now(), offset, s.location)
	if cached, ok := s.cache.Weekly(ctx, start, grade); ok {
		cached.WeekOffset = offset
		return cached, nil
	}

	entries, err := s.logs.ListWindow(ctx, models.LogWindowFilter{Start: start, End: end, Grade: grade})
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load logs")
	}

	report := &models.WeeklyReport{
		WeekOffset: offset,
		Grade:      grade,
		Start:      start,
		End:        end,
		Items:      ReplayWeeklyTally(entries),
	}
	s.logger.Debug("weekly report computed",
		zap.Time("start", start),
		zap.Int("grade", grade),
		zap.Int("entries", len(entries)),
		zap.Int("students", len(report.Items)),
	)
	s.cache.StoreWeekly(ctx, report)
	return report, nil
}

// Export renders the weekly report in the requested format.
func (s *ReportService) Export(ctx context.Context, offset, grade int, format string) (*ReportFile, error) {
	renderer, err := export.ForFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be one of csv, pdf, xlsx")
	}

	report, err := s.Weekly(ctx, offset, grade)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(weeklyDataset(report))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render weekly report")
	}

	name := fmt.Sprintf("weekly-report-%s", report.Start.Format("2006-01-02"))
	if grade != 0 {
		name = fmt.Sprintf("%s-grade-%d", name, grade)
	}
	return &ReportFile{
		Filename:    name + "." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// Logs returns raw log entries between start and end inclusive, oldest first.
func (s *ReportService) Logs(ctx context.Context, start, end time.Time, grade int) ([]models.StudentLogEntry, error) {
	if start.IsZero() || end.IsZero() {
		return nil, appErrors.Validation("start and end are required")
	}
	if end.Before(start) {
		return nil, appErrors.Validation("end must not be before start")
	}
	if grade != 0 && !models.ValidGrade(grade) {
		return nil, appErrors.Validation("grade must be between 1 and 12")
	}
	entries, err := s.logs.ListWindow(ctx, models.LogWindowFilter{Start: start, End: end, Grade: grade})
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load logs")
	}
	return entries, nil
}

func weeklyDataset(report *models.WeeklyReport) export.Dataset {
	headers := []string{"Rank", "Student", "Grade", "Yellow Cards", "Reasons"}
	rows := make([]map[string]string, 0, len(report.Items))
	for i, item := range report.Items {
		rows = append(rows, map[string]string{
			"Rank":         strconv.Itoa(i + 1),
			"Student":      item.FullName,
			"Grade":        strconv.Itoa(item.Grade),
			"Yellow Cards": strconv.Itoa(item.Count),
			"Reasons":      strings.Join(item.Reasons, "; "),
		})
	}
	title := fmt.Sprintf("Weekly Yellow Card Report %s to %s",
		report.Start.Format("Jan 2, 2006"), report.End.Format("Jan 2, 2006"))
	if report.Grade != 0 {
		title = fmt.Sprintf("%s (Grade %d)", title, report.Grade)
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}
}
