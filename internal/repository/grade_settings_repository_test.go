package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

func TestGradeSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	rows := sqlmock.NewRows([]string{"grade", "emails", "updated_at"}).
		AddRow(7, []byte(`["a@school.edu","b@school.edu"]`), time.Now())
	mock.ExpectQuery("SELECT grade, emails, updated_at FROM grade_settings WHERE grade = \\$1").
		WithArgs(7).
		WillReturnRows(rows)

	settings, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@school.edu", "b@school.edu"}, settings.Emails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSettingsRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	mock.ExpectQuery("FROM grade_settings").WithArgs(3).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGradeSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	mock.ExpectExec("INSERT INTO grade_settings .* ON CONFLICT \\(grade\\) DO UPDATE").
		WithArgs(7, `["a@school.edu"]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.GradeSettings{Grade: 7, Emails: []string{"a@school.edu"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSettingsRepositoryCreateIfMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	mock.ExpectExec("ON CONFLICT \\(grade\\) DO NOTHING").
		WithArgs(1, `[]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.CreateIfMissing(context.Background(), &models.GradeSettings{Grade: 1})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
