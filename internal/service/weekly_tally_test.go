package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

func logEntry(studentID int64, name string, at time.Time, event models.LogEvent, description string) models.StudentLogEntry {
	return models.StudentLogEntry{
		StudentLog: models.StudentLog{StudentID: studentID, Event: event, Description: description, CreatedAt: at},
		FullName:   name,
		Grade:      7,
	}
}

func TestWeekRange(t *testing.T) {
	// Wednesday
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

	start, end := WeekRange(now, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 10, 17, 23, 59, 59, 999000000, time.UTC), end)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Saturday, end.Weekday())

	start, end = WeekRange(now, -1, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 10, 10, 23, 59, 59, 999000000, time.UTC), end)
}

func TestWeekRangeOnSundayAndSaturday(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	start, _ := WeekRange(sunday, 0, nil)
	assert.Equal(t, sunday, start)

	saturday := time.Date(2026, 10, 24, 23, 0, 0, 0, time.UTC)
	start, _ = WeekRange(saturday, 0, nil)
	assert.Equal(t, sunday, start)
}

func TestWeekRangeUsesLocation(t *testing.T) {
	loc := time.FixedZone("PHT", 8*60*60)
	// Saturday 20:00 UTC is already Sunday in UTC+8.
	now := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	start, _ := WeekRange(now, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, loc), start)
}

func TestReplayManualResetDiscardsEarlierCards(t *testing.T) {
	base := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	entries := []models.StudentLogEntry{
		logEntry(1, "Ana", base, models.LogEventAdded, "+1 YC (A) [Current: 1 YC, 0 D]"),
		logEntry(1, "Ana", base.Add(time.Hour), models.LogEventManualReset, "Manual Reset [Current: 0 YC, 0 D]"),
		logEntry(1, "Ana", base.Add(2*time.Hour), models.LogEventAdded, "+1 YC (B) [Current: 1 YC, 0 D]"),
	}

	out := ReplayWeeklyTally(entries)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Count)
	assert.Equal(t, []string{"+1 YC (B) [Current: 1 YC, 0 D]"}, out[0].Reasons)
}

func TestReplaySortsByTimeBeforeFolding(t *testing.T) {
	base := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	// Newest first, as the log endpoint returns them.
	entries := []models.StudentLogEntry{
		logEntry(1, "Ana", base.Add(2*time.Hour), models.LogEventAdded, "+1 YC (B) [Current: 1 YC, 0 D]"),
		logEntry(1, "Ana", base.Add(time.Hour), models.LogEventManualReset, "Manual Reset [Current: 0 YC, 0 D]"),
		logEntry(1, "Ana", base, models.LogEventAdded, "+1 YC (A) [Current: 1 YC, 0 D]"),
	}

	out := ReplayWeeklyTally(entries)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Count)
}

func TestReplayIgnoresRemovalsAndCountsConversions(t *testing.T) {
	base := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	entries := []models.StudentLogEntry{
		logEntry(1, "Ana", base, models.LogEventAdded, "+1 YC (A) [Current: 2 YC, 0 D]"),
		logEntry(1, "Ana", base.Add(time.Minute), models.LogEventConvertedToDemerit, "+1 YC (A) -> Converted to Demerit [Current: 0 YC, 1 D]"),
		logEntry(1, "Ana", base.Add(2*time.Minute), models.LogEventRemoved, "-1 YC [Current: 0 YC, 1 D]"),
		logEntry(2, "Ben", base.Add(3*time.Minute), models.LogEventAutoReset, "+1 YC (C) -> Converted to Demerit -> Reset (3 Demerits) [Current: 0 YC, 0 D]"),
	}

	out := ReplayWeeklyTally(entries)
	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].FullName)
	assert.Equal(t, 2, out[0].Count)
	assert.Equal(t, "Ben", out[1].FullName)
	assert.Equal(t, 1, out[1].Count)
}

func TestReplayUntaggedRowsFallBackToPrefix(t *testing.T) {
	base := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	entries := []models.StudentLogEntry{
		logEntry(1, "Ana", base, "", "+1 YC (A) [Current: 1 YC, 0 D]"),
		logEntry(1, "Ana", base.Add(time.Minute), "", "Manual Reset [Current: 0 YC, 0 D]"),
		logEntry(2, "Ben", base.Add(2*time.Minute), "", "+1 YC (B) [Current: 1 YC, 0 D]"),
	}

	out := ReplayWeeklyTally(entries)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].StudentID)
}

func TestReplayTiesKeepFirstSeenOrder(t *testing.T) {
	at := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	entries := []models.StudentLogEntry{
		logEntry(3, "Cara", at, models.LogEventAdded, "+1 YC (A) [Current: 1 YC, 0 D]"),
		logEntry(1, "Ana", at, models.LogEventAdded, "+1 YC (A) [Current: 1 YC, 0 D]"),
		logEntry(2, "Ben", at, models.LogEventAdded, "+1 YC (A) [Current: 1 YC, 0 D]"),
		logEntry(2, "Ben", at.Add(time.Second), models.LogEventAdded, "+1 YC (B) [Current: 2 YC, 0 D]"),
	}

	out := ReplayWeeklyTally(entries)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"Ben", "Cara", "Ana"}, []string{out[0].FullName, out[1].FullName, out[2].FullName})
}

func TestReplayIsIdempotent(t *testing.T) {
	base := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	entries := []models.StudentLogEntry{
		logEntry(2, "Ben", base.Add(time.Hour), models.LogEventAdded, "+1 YC (B) [Current: 1 YC, 0 D]"),
		logEntry(1, "Ana", base, models.LogEventAdded, "+1 YC (A) [Current: 1 YC, 0 D]"),
		logEntry(1, "Ana", base.Add(2*time.Hour), models.LogEventAdded, "+1 YC (C) [Current: 2 YC, 0 D]"),
	}
	snapshot := make([]models.StudentLogEntry, len(entries))
	copy(snapshot, entries)

	first := ReplayWeeklyTally(entries)
	second := ReplayWeeklyTally(entries)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, entries)
	assert.Empty(t, ReplayWeeklyTally(nil))
}
