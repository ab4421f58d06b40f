package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/yellowcard-api/api/swagger"
	"github.com/noah-isme/yellowcard-api/internal/handler"
	"github.com/noah-isme/yellowcard-api/internal/repository"
	"github.com/noah-isme/yellowcard-api/internal/service"
	"github.com/noah-isme/yellowcard-api/pkg/cache"
	"github.com/noah-isme/yellowcard-api/pkg/config"
	"github.com/noah-isme/yellowcard-api/pkg/logger"
	"github.com/noah-isme/yellowcard-api/pkg/mailer"
)

// @title Yellow Card Tracker API
// @version 1.0.0
// @description Tracks yellow cards and demerits per student and notifies grade staff.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	st, err := openStores(ctx, cfg.Database, logr)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var reportCache *service.ReportCache
	if redisClient != nil {
		reportCache = service.NewReportCache(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Reports.CacheTTL, logr)
	}

	transport, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		logr.Warn("mail transport not configured, notifications disabled", zap.Error(err))
	} else {
		logr.Info("mail transport ready", zap.String("driver", transport.Name()))
	}
	from := mail.Address{Name: cfg.Mail.FromName, Address: cfg.Mail.FromAddress}

	settingsSvc := service.NewSettingsService(st.settings, validate, logr)
	notificationSvc := service.NewNotificationService(st.settings, transport, from, metrics, validate, logr)
	studentSvc := service.NewStudentService(st.students, st.logs, reportCache, validate, logr)
	yellowCardSvc := service.NewYellowCardService(st.students, notificationSvc, reportCache, metrics, cfg.Notifications.Timeout, validate, logr)
	reportSvc := service.NewReportService(st.logs, reportCache, loc, logr)
	authSvc := service.NewAuthService(st.users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "yellowcard-api",
	})

	if seeded, err := settingsSvc.SeedDefaults(ctx, cfg.Notifications.DefaultEmails); err != nil {
		logr.Warn("failed to seed default notification emails", zap.Error(err))
	} else if seeded > 0 {
		logr.Info("seeded default notification emails", zap.Int("grades", seeded))
	}

	if cfg.Auth.Enabled {
		created, err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			logr.Info("admin account created", zap.String("email", cfg.Auth.AdminEmail))
		}
	}

	checks := map[string]handler.ReadinessCheck{"storage": st.ping}
	if redisClient != nil {
		checks["redis"] = redisPing(redisClient)
	}

	router := newRouter(cfg, logr, routerDeps{
		storage:        st.driver,
		metrics:        metrics,
		auth:           authSvc,
		students:       handler.NewStudentHandler(studentSvc),
		yellowCards:    handler.NewYellowCardHandler(yellowCardSvc, logr),
		settings:       handler.NewSettingsHandler(settingsSvc),
		notifications:  handler.NewNotificationHandler(notificationSvc),
		reports:        handler.NewReportHandler(reportSvc),
		authHandler:    handler.NewAuthHandler(authSvc),
		metricsHandler: handler.NewMetricsHandler(metrics, st.driver, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("storage", st.driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func redisPing(client *redis.Client) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
