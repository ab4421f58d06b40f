package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

type gradeSettingsRow struct {
	Grade     int       `db:"grade"`
	Emails    []byte    `db:"emails"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row gradeSettingsRow) toModel() (*models.GradeSettings, error) {
	settings := &models.GradeSettings{Grade: row.Grade, Emails: []string{}, UpdatedAt: row.UpdatedAt}
	if len(row.Emails) > 0 {
		if err := json.Unmarshal(row.Emails, &settings.Emails); err != nil {
			return nil, fmt.Errorf("decode grade emails: %w", err)
		}
	}
	return settings, nil
}

// GradeSettingsRepository stores per-grade notification recipients as JSONB.
type GradeSettingsRepository struct {
	db *sqlx.DB
}

// NewGradeSettingsRepository constructs a GradeSettingsRepository.
func NewGradeSettingsRepository(db *sqlx.DB) *GradeSettingsRepository {
	return &GradeSettingsRepository{db: db}
}

// Get returns the settings row for a grade or sql.ErrNoRows.
func (r *GradeSettingsRepository) Get(ctx context.Context, grade int) (*models.GradeSettings, error) {
	var row gradeSettingsRow
	if err := r.db.GetContext(ctx, &row, "SELECT grade, emails, updated_at FROM grade_settings WHERE grade = $1", grade); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade settings: %w", err)
	}
	return row.toModel()
}

// Upsert writes the full recipient list for a grade.
func (r *GradeSettingsRepository) Upsert(ctx context.Context, settings *models.GradeSettings) error {
	payload, err := encodeEmails(settings.Emails)
	if err != nil {
		return err
	}
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO grade_settings (grade, emails, updated_at) VALUES ($1, $2::jsonb, $3)
        ON CONFLICT (grade) DO UPDATE SET emails = EXCLUDED.emails, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, settings.Grade, payload, settings.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade settings: %w", err)
	}
	return nil
}

// CreateIfMissing inserts the row only when the grade has none yet and reports
// whether it did.
func (r *GradeSettingsRepository) CreateIfMissing(ctx context.Context, settings *models.GradeSettings) (bool, error) {
	payload, err := encodeEmails(settings.Emails)
	if err != nil {
		return false, err
	}
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO grade_settings (grade, emails, updated_at) VALUES ($1, $2::jsonb, $3)
        ON CONFLICT (grade) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, settings.Grade, payload, settings.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("seed grade settings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed grade settings: %w", err)
	}
	return affected > 0, nil
}

func encodeEmails(emails []string) (string, error) {
	if emails == nil {
		emails = []string{}
	}
	payload, err := json.Marshal(emails)
	if err != nil {
		return "", fmt.Errorf("encode grade emails: %w", err)
	}
	return string(payload), nil
}
