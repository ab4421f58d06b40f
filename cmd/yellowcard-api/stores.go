package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/repository"
	"github.com/noah-isme/yellowcard-api/internal/repository/memory"
	"github.com/noah-isme/yellowcard-api/pkg/config"
	"github.com/noah-isme/yellowcard-api/pkg/database"
)

type studentStore interface {
	List(ctx context.Context, grade int) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	ApplyTransition(ctx context.Context, student *models.Student, log *models.StudentLog) error
	Delete(ctx context.Context, id int64) error
}

type logStore interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.StudentLog, error)
	ListWindow(ctx context.Context, filter models.LogWindowFilter) ([]models.StudentLogEntry, error)
}

type settingsStore interface {
	Get(ctx context.Context, grade int) (*models.GradeSettings, error)
	Upsert(ctx context.Context, settings *models.GradeSettings) error
	CreateIfMissing(ctx context.Context, settings *models.GradeSettings) (bool, error)
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	Create(ctx context.Context, user *models.User) error
}

// stores bundles the repositories backing one process.
type stores struct {
	driver   string
	students studentStore
	logs     logStore
	settings settingsStore
	users    userStore
	db       *sqlx.DB
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, logr *zap.Logger) (*stores, error) {
	if cfg.StorageDriver() == config.StorageMemory {
		logr.Warn("DATABASE_URL not set, using in-memory store with demo data")
		store := memory.NewSeededStore()
		return &stores{
			driver:   config.StorageMemory,
			students: store.Students(),
			logs:     store.Logs(),
			settings: store.Settings(),
			users:    store.Users(),
		}, nil
	}

	db, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		if len(applied) > 0 {
			logr.Info("database migrations applied", zap.Ints("versions", applied))
		}
	}

	return &stores{
		driver:   config.StoragePostgres,
		students: repository.NewStudentRepository(db),
		logs:     repository.NewLogRepository(db),
		settings: repository.NewGradeSettingsRepository(db),
		users:    repository.NewUserRepository(db),
		db:       db,
	}, nil
}

func (s *stores) ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
