package models

import "time"

// WeeklyTally is one student's yellow card count for a reporting week.
type WeeklyTally struct {
	StudentID int64    `json:"studentId"`
	FullName  string   `json:"name"`
	Grade     int      `json:"grade"`
	Count     int      `json:"count"`
	Reasons   []string `json:"reasons"`
}

// WeeklyReport is the tally for one Sunday–Saturday window.
type WeeklyReport struct {
	WeekOffset int           `json:"weekOffset"`
	Grade      int           `json:"grade,omitempty"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Items      []WeeklyTally `json:"items"`
}

// ReasonCatalog lists the reasons offered when issuing a card. Free-text
// details may be attached to any of them.
var ReasonCatalog = []string{"Uniform", "EOZ", "Loitering", "Gadget", "Behavior", "Other"}
