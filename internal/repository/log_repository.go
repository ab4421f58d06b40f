package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

// LogRepository reads the append-only student history. Writes go through
// StudentRepository so they share the counter transaction.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository constructs a LogRepository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// ListByStudent returns a student's log entries, newest first.
func (r *LogRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentLog, error) {
	const query = `SELECT id, student_id, event, description, created_at FROM student_logs
        WHERE student_id = $1 ORDER BY created_at DESC, id DESC`
	logs := []models.StudentLog{}
	if err := r.db.SelectContext(ctx, &logs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student logs: %w", err)
	}
	return logs, nil
}

// ListWindow returns log entries created within the filter window, oldest
// first, joined with the owning student's name and grade.
func (r *LogRepository) ListWindow(ctx context.Context, filter models.LogWindowFilter) ([]models.StudentLogEntry, error) {
	query := `SELECT l.id, l.student_id, l.event, l.description, l.created_at, s.full_name, s.grade
        FROM student_logs l JOIN students s ON s.id = l.student_id
        WHERE l.created_at >= $1 AND l.created_at <= $2`
	args := []interface{}{filter.Start, filter.End}
	if filter.Grade > 0 {
		query += " AND s.grade = $3"
		args = append(args, filter.Grade)
	}
	query += " ORDER BY l.created_at ASC, l.id ASC"

	entries := []models.StudentLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list log window: %w", err)
	}
	return entries, nil
}
