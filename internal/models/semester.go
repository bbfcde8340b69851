package models

import (
	"time"
)

type Semester struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SemesterWithStats struct {
	Semester
	TotalAssessments     int `json:"total_assessments" db:"total_assessments"`
	CompletedAssessments int `json:"completed_assessments" db:"completed_assessments"`
	PendingAssessments   int `json:"pending_assessments" db:"pending_assessments"`
}
