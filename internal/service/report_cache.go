package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

const (
	weeklyReportCachePrefix  = "reports:weekly:"
	weeklyReportCachePattern = weeklyReportCachePrefix + "*"
	defaultReportCacheTTL    = 5 * time.Minute
)

// ReportCacheStore persists JSON encoded report payloads.
type ReportCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ReportCache keeps computed weekly tallies keyed by week start and grade.
// Every log write drops all of them, so a cached tally never outlives the
// history it was replayed from. A nil *ReportCache is valid and always misses.
type ReportCache struct {
	store   ReportCacheStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewReportCache constructs a report cache over store.
func NewReportCache(store ReportCacheStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = defaultReportCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCache{store: store, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled indicates whether caching is active.
func (c *ReportCache) Enabled() bool {
	return c != nil && c.store != nil
}

// Weekly looks up the tally for the week starting at start.
func (c *ReportCache) Weekly(ctx context.Context, start time.Time, grade int) (*models.WeeklyReport, bool) {
	if !c.Enabled() {
		return nil, false
	}
	key := weeklyReportKey(start, grade)
	began := time.Now()

	var report models.WeeklyReport
	err := c.store.Get(ctx, key, &report)
	c.metrics.RecordCacheOperation(err == nil, time.Since(began))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			c.logger.Warn("weekly report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return &report, true
}

// StoreWeekly caches report under its week start and grade.
func (c *ReportCache) StoreWeekly(ctx context.Context, report *models.WeeklyReport) {
	if !c.Enabled() || report == nil {
		return
	}
	key := weeklyReportKey(report.Start, report.Grade)
	began := time.Now()
	err := c.store.Set(ctx, key, report, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(began))
	if err != nil {
		c.logger.Warn("weekly report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateWeekly drops every cached tally.
func (c *ReportCache) InvalidateWeekly(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.store.DeleteByPattern(ctx, weeklyReportCachePattern); err != nil {
		c.logger.Warn("weekly report cache invalidation failed", zap.String("pattern", weeklyReportCachePattern), zap.Error(err))
	}
}

func weeklyReportKey(start time.Time, grade int) string {
	return fmt.Sprintf("%s%s:%d", weeklyReportCachePrefix, start.Format("2006-01-02"), grade)
}
