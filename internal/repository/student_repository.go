package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

const studentColumns = "id, full_name, grade, yellow_cards, demerits, version, created_at, updated_at"

// StudentRepository manages persistence for student records and their counters.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns the students of a grade ordered by name.
func (r *StudentRepository) List(ctx context.Context, grade int) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE grade = $1 ORDER BY full_name ASC, id ASC", studentColumns)
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, grade); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Create inserts a new student with zeroed counters.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.YellowCards = 0
	student.Demerits = 0
	student.Version = 0
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (full_name, grade, yellow_cards, demerits, version, created_at, updated_at)
        VALUES ($1, $2, 0, 0, 0, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, student.FullName, student.Grade, student.CreatedAt, student.UpdatedAt).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// ApplyTransition stores new counter values and appends the matching log entry
// in one transaction. student.Version must hold the version the caller read;
// when another writer got there first ErrStaleVersion is returned and nothing
// is written. On success student.Version is advanced.
func (r *StudentRepository) ApplyTransition(ctx context.Context, student *models.Student, log *models.StudentLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const update = `UPDATE students SET yellow_cards = $1, demerits = $2, version = version + 1, updated_at = $3
        WHERE id = $4 AND version = $5`
	res, err := tx.ExecContext(ctx, update, student.YellowCards, student.Demerits, now, student.ID, student.Version)
	if err != nil {
		return fmt.Errorf("update student counters: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student counters: %w", err)
	}
	if affected == 0 {
		return ErrStaleVersion
	}

	log.StudentID = student.ID
	log.CreatedAt = now
	const insert = `INSERT INTO student_logs (student_id, event, description, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insert, log.StudentID, log.Event, log.Description, log.CreatedAt).Scan(&log.ID); err != nil {
		return fmt.Errorf("insert student log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	student.Version++
	student.UpdatedAt = now
	return nil
}

// Delete removes a student together with their log history.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM student_logs WHERE student_id = $1", id); err != nil {
		return fmt.Errorf("delete student logs: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}
