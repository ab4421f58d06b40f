package service

import (
	"sort"
	"time"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

// WeekRange returns the Sunday 00:00:00.000 to Saturday 23:59:59.999 window of
// the week containing now, shifted by offset weeks, in loc.
func WeekRange(now time.Time, offset int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	sunday := local.AddDate(0, 0, -int(local.Weekday())+offset*7)
	start := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 0, 0, 0, 0, loc)
	saturday := start.AddDate(0, 0, 6)
	end := time.Date(saturday.Year(), saturday.Month(), saturday.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

type tallyAccumulator struct {
	tally     models.WeeklyTally
	firstSeen int
}

// ReplayWeeklyTally folds log entries into per-student counts. Entries are
// replayed oldest first; a manual reset discards everything tallied before it
// for that student. Students whose final count is zero are omitted. The result
// depends only on the input slice.
func ReplayWeeklyTally(entries []models.StudentLogEntry) []models.WeeklyTally {
	ordered := make([]models.StudentLogEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	byStudent := make(map[int64]*tallyAccumulator)
	for _, entry := range ordered {
		event := entry.ResolvedEvent()
		if !event.IssuesCard() && event != models.LogEventManualReset {
			continue
		}
		acc, ok := byStudent[entry.StudentID]
		if !ok {
			acc = &tallyAccumulator{
				tally:     models.WeeklyTally{StudentID: entry.StudentID, FullName: entry.FullName, Grade: entry.Grade},
				firstSeen: len(byStudent),
			}
			byStudent[entry.StudentID] = acc
		}
		if event == models.LogEventManualReset {
			acc.tally.Count = 0
			acc.tally.Reasons = nil
			continue
		}
		acc.tally.Count++
		acc.tally.Reasons = append(acc.tally.Reasons, entry.Description)
	}

	accs := make([]*tallyAccumulator, 0, len(byStudent))
	for _, acc := range byStudent {
		if acc.tally.Count > 0 {
			accs = append(accs, acc)
		}
	}
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].tally.Count != accs[j].tally.Count {
			return accs[i].tally.Count > accs[j].tally.Count
		}
		return accs[i].firstSeen < accs[j].firstSeen
	})

	out := make([]models.WeeklyTally, len(accs))
	for i, acc := range accs {
		out[i] = acc.tally
	}
	return out
}
