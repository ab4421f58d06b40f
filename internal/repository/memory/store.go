// Package memory holds in-process implementations of the repository contracts,
// used when no database is configured.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/repository"
)

// Store is the shared state behind the memory repositories. A single lock
// covers students and logs so counter updates stay atomic with their entry.
type Store struct {
	mu sync.RWMutex

	students      map[int64]models.Student
	logs          []models.StudentLog
	settings      map[int]models.GradeSettings
	users         map[string]models.User
	nextStudentID int64
	nextLogID     int64

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		students:      make(map[int64]models.Student),
		settings:      make(map[int]models.GradeSettings),
		users:         make(map[string]models.User),
		nextStudentID: 1,
		nextLogID:     1,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// NewSeededStore returns a store holding the two demo students shown when the
// API runs without a database.
func NewSeededStore() *Store {
	s := NewStore()
	now := s.now()
	for _, demo := range []models.Student{
		{FullName: "Demo Student 1", Grade: 6},
		{FullName: "Demo Student 2", Grade: 7, YellowCards: 1},
	} {
		demo.ID = s.nextStudentID
		demo.CreatedAt = now
		demo.UpdatedAt = now
		s.students[demo.ID] = demo
		s.nextStudentID++
	}
	return s
}

// Students returns the student repository view of the store.
func (s *Store) Students() *StudentRepository { return &StudentRepository{store: s} }

// Logs returns the log repository view of the store.
func (s *Store) Logs() *LogRepository { return &LogRepository{store: s} }

// Settings returns the grade settings repository view of the store.
func (s *Store) Settings() *GradeSettingsRepository { return &GradeSettingsRepository{store: s} }

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{store: s} }

// StudentRepository is the memory counterpart of repository.StudentRepository.
type StudentRepository struct {
	store *Store
}

// List returns the students of a grade ordered by name.
func (r *StudentRepository) List(ctx context.Context, grade int) ([]models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	students := []models.Student{}
	for _, st := range r.store.students {
		if st.Grade == grade {
			students = append(students, st)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].FullName != students[j].FullName {
			return students[i].FullName < students[j].FullName
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	st, ok := r.store.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

// Create inserts a new student with zeroed counters.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	student.ID = r.store.nextStudentID
	student.YellowCards = 0
	student.Demerits = 0
	student.Version = 0
	student.CreatedAt = now
	student.UpdatedAt = now
	r.store.nextStudentID++
	r.store.students[student.ID] = *student
	return nil
}

// ApplyTransition stores new counters and appends the log entry when
// student.Version still matches the stored version.
func (r *StudentRepository) ApplyTransition(ctx context.Context, student *models.Student, log *models.StudentLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.students[student.ID]
	if !ok || current.Version != student.Version {
		return repository.ErrStaleVersion
	}

	now := r.store.now()
	current.YellowCards = student.YellowCards
	current.Demerits = student.Demerits
	current.Version++
	current.UpdatedAt = now
	r.store.students[current.ID] = current

	log.ID = r.store.nextLogID
	log.StudentID = current.ID
	log.CreatedAt = now
	r.store.nextLogID++
	r.store.logs = append(r.store.logs, *log)

	student.Version = current.Version
	student.UpdatedAt = now
	return nil
}

// Delete removes a student and their history.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students[id]; !ok {
		return sql.ErrNoRows
	}
	kept := r.store.logs[:0]
	for _, l := range r.store.logs {
		if l.StudentID != id {
			kept = append(kept, l)
		}
	}
	r.store.logs = kept
	delete(r.store.students, id)
	return nil
}

// LogRepository reads the store's history.
type LogRepository struct {
	store *Store
}

// ListByStudent returns a student's log entries, newest first.
func (r *LogRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	logs := []models.StudentLog{}
	for i := len(r.store.logs) - 1; i >= 0; i-- {
		if r.store.logs[i].StudentID == studentID {
			logs = append(logs, r.store.logs[i])
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return logs, nil
}

// ListWindow returns entries inside the window, oldest first.
func (r *LogRepository) ListWindow(ctx context.Context, filter models.LogWindowFilter) ([]models.StudentLogEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := []models.StudentLogEntry{}
	for _, l := range r.store.logs {
		if l.CreatedAt.Before(filter.Start) || l.CreatedAt.After(filter.End) {
			continue
		}
		st, ok := r.store.students[l.StudentID]
		if !ok {
			continue
		}
		if filter.Grade > 0 && st.Grade != filter.Grade {
			continue
		}
		entries = append(entries, models.StudentLogEntry{StudentLog: l, FullName: st.FullName, Grade: st.Grade})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

// GradeSettingsRepository keeps recipients per grade.
type GradeSettingsRepository struct {
	store *Store
}

// Get returns the settings for a grade or sql.ErrNoRows.
func (r *GradeSettingsRepository) Get(ctx context.Context, grade int) (*models.GradeSettings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	settings, ok := r.store.settings[grade]
	if !ok {
		return nil, sql.ErrNoRows
	}
	settings.Emails = append([]string{}, settings.Emails...)
	return &settings, nil
}

// Upsert replaces the recipients for a grade.
func (r *GradeSettingsRepository) Upsert(ctx context.Context, settings *models.GradeSettings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	settings.UpdatedAt = r.store.now()
	stored := *settings
	stored.Emails = append([]string{}, settings.Emails...)
	r.store.settings[settings.Grade] = stored
	return nil
}

// CreateIfMissing inserts settings for a grade that has none.
func (r *GradeSettingsRepository) CreateIfMissing(ctx context.Context, settings *models.GradeSettings) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.settings[settings.Grade]; ok {
		return false, nil
	}
	settings.UpdatedAt = r.store.now()
	stored := *settings
	stored.Emails = append([]string{}, settings.Emails...)
	r.store.settings[settings.Grade] = stored
	return true, nil
}

// UserRepository keeps staff accounts.
type UserRepository struct {
	store *Store
}

// FindByEmail returns a user by email address, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

// UpdateLastLogin records a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.LastLogin = &ts
	u.UpdatedAt = ts
	r.store.users[id] = u
	return nil
}

// Create inserts a new user, rejecting duplicate e-mail addresses.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.store.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.store.users[user.ID] = *user
	return nil
}
