package models

import "time"

// Data Transfer Objects

type CreateSemesterRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type UpdateSemesterPositionRequest struct {
	Position int `json:"position" validate:"gte=0"`
}

type CreateAssessmentRequest struct {
	CourseName     string   `json:"course_name" validate:"required,min=1,max=255"`
	AssignmentName string   `json:"assignment_name" validate:"required,min=1,max=255"`
	DueDate        string   `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime        string   `json:"due_time" validate:"omitempty,datetime=15:04"`
	Weight         float64  `json:"weight" validate:"gte=0"`
	Status         string   `json:"status"`
	Mark           *float64 `json:"mark"`
}

type UpdateAssessmentRequest struct {
	CourseName     string   `json:"course_name" validate:"required,min=1,max=255"`
	AssignmentName string   `json:"assignment_name" validate:"required,min=1,max=255"`
	DueDate        string   `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime        string   `json:"due_time" validate:"omitempty,datetime=15:04"`
	Weight         float64  `json:"weight" validate:"gte=0"`
	Status         string   `json:"status"`
	Mark           *float64 `json:"mark"`
}

type UpdateAssessmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssessmentSnapshotEntry is one row of the auto-save payload: the editable
// fields of a single assessment as currently held by the client.
type AssessmentSnapshotEntry struct {
	ID     string   `json:"id" validate:"required,uuid"`
	Mark   *float64 `json:"mark"`
	Weight float64  `json:"weight"`
	Status string   `json:"status"`
}

type AutoSaveRequest struct {
	Entries []AssessmentSnapshotEntry `json:"entries" validate:"required,dive"`
}

type PutSettingRequest struct {
	Key   string `json:"key" validate:"required,min=1,max=255"`
	Value string `json:"value" validate:"max=1024"`
}

type OutlineUploadResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

type AutoSaveResponse struct {
	State     string     `json:"state"`
	SavedAt   *time.Time `json:"saved_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}
