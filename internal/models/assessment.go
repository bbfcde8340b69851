package models

import (
	"time"
)

// Assessment statuses. Legacy variants from older imports are normalized
// on write, see NormalizeStatus.
const (
	StatusNotStarted = "Not started"
	StatusInProgress = "In progress"
	StatusSubmitted  = "Submitted"
	StatusMissed     = "Missed"
)

type Assessment struct {
	ID             string    `json:"id" db:"id"`
	SemesterID     string    `json:"semester_id" db:"semester_id"`
	CourseName     string    `json:"course_name" db:"course_name"`
	AssignmentName string    `json:"assignment_name" db:"assignment_name"`
	DueDate        string    `json:"due_date" db:"due_date"`  // YYYY-MM-DD
	DueTime        string    `json:"due_time" db:"due_time"`  // HH:MM, 24-hour
	Weight         float64   `json:"weight" db:"weight"`      // percentage points, [0,100]
	Status         string    `json:"status" db:"status"`
	Mark           *float64  `json:"mark" db:"mark"` // nil = ungraded
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ValidStatus reports whether s is one of the authoritative statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusSubmitted, StatusMissed:
		return true
	}
	return false
}

// NormalizeStatus maps legacy status variants onto the authoritative set.
// Unknown values are returned unchanged so validation can reject them.
func NormalizeStatus(s string) string {
	switch s {
	case "Draft":
		return StatusNotStarted
	case "Under Review":
		return StatusInProgress
	}
	return s
}

// ClampWeight constrains a weight edit to [0,100].
func ClampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 100 {
		return 100
	}
	return w
}

// ClampMark constrains a mark edit to >= 0. There is no upper bound so
// bonus marks above 100 are allowed.
func ClampMark(m *float64) *float64 {
	if m == nil {
		return nil
	}
	if *m < 0 {
		zero := 0.0
		return &zero
	}
	return m
}

// DueAt combines DueDate and DueTime into a single local timestamp.
// A missing or malformed time component defaults to midnight.
func (a *Assessment) DueAt() (time.Time, error) {
	if a.DueTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04", a.DueDate+" "+a.DueTime, time.Local); err == nil {
			return t, nil
		}
	}
	return time.ParseInLocation("2006-01-02", a.DueDate, time.Local)
}
