package models

import "time"

// GradeSettings maps a grade to the addresses notified on demerits.
type GradeSettings struct {
	Grade     int       `json:"grade"`
	Emails    []string  `json:"emails"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasEmail reports whether address is already configured.
func (g GradeSettings) HasEmail(address string) bool {
	for _, e := range g.Emails {
		if e == address {
			return true
		}
	}
	return false
}
