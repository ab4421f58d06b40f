package models

import "time"

// Grade bounds for students and notification settings.
const (
	MinGrade = 1
	MaxGrade = 12
)

// Student is a tracked learner with their running yellow card and demerit counts.
type Student struct {
	ID          int64     `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"fullName"`
	Grade       int       `db:"grade" json:"grade"`
	YellowCards int       `db:"yellow_cards" json:"yellowCards"`
	Demerits    int       `db:"demerits" json:"demerits"`
	Version     int64     `db:"version" json:"version"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ValidGrade reports whether grade is within the school's range.
func ValidGrade(grade int) bool {
	return grade >= MinGrade && grade <= MaxGrade
}
