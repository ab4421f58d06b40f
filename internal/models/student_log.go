package models

import (
	"strings"
	"time"
)

// LogEvent tags what a log entry records so replays do not depend on the display text.
type LogEvent string

const (
	LogEventAdded              LogEvent = "ADDED"
	LogEventRemoved            LogEvent = "REMOVED"
	LogEventConvertedToDemerit LogEvent = "CONVERTED_TO_DEMERIT"
	LogEventAutoReset          LogEvent = "AUTO_RESET"
	LogEventManualReset        LogEvent = "MANUAL_RESET"
)

// Description prefixes written by the counter rules.
const (
	AddedPrefix       = "+1 YC"
	RemovedPrefix     = "-1 YC"
	ManualResetPrefix = "Manual Reset"
)

// IssuesCard reports whether the event corresponds to a yellow card being issued.
func (e LogEvent) IssuesCard() bool {
	switch e {
	case LogEventAdded, LogEventConvertedToDemerit, LogEventAutoReset:
		return true
	}
	return false
}

// StudentLog is an append-only history entry for a student.
type StudentLog struct {
	ID          int64     `db:"id" json:"id"`
	StudentID   int64     `db:"student_id" json:"studentId"`
	Event       LogEvent  `db:"event" json:"event"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ResolvedEvent returns the stored tag, falling back to the description
// prefix for rows written before events were tagged.
func (l StudentLog) ResolvedEvent() LogEvent {
	if l.Event != "" {
		return l.Event
	}
	return EventFromDescription(l.Description)
}

// EventFromDescription classifies an untagged description.
func EventFromDescription(description string) LogEvent {
	switch {
	case strings.HasPrefix(description, AddedPrefix):
		switch {
		case strings.Contains(description, "-> Reset (3 Demerits)"):
			return LogEventAutoReset
		case strings.Contains(description, "-> Converted to Demerit"):
			return LogEventConvertedToDemerit
		}
		return LogEventAdded
	case strings.HasPrefix(description, RemovedPrefix):
		return LogEventRemoved
	case strings.HasPrefix(description, ManualResetPrefix):
		return LogEventManualReset
	}
	return ""
}

// StudentLogEntry is a log row joined with the student it belongs to.
type StudentLogEntry struct {
	StudentLog
	FullName string `db:"full_name" json:"fullName"`
	Grade    int    `db:"grade" json:"grade"`
}

// LogWindowFilter selects log rows between two instants, inclusive.
type LogWindowFilter struct {
	Start time.Time
	End   time.Time
	Grade int
}
