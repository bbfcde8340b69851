package models

import (
	"time"
)

// CourseOutline is the metadata record for an uploaded outline PDF. The
// document itself lives in object storage under ObjectKey.
type CourseOutline struct {
	ID         string    `json:"id" db:"id"`
	SemesterID string    `json:"semester_id" db:"semester_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	ObjectKey  string    `json:"object_key" db:"object_key"`
	Size       int64     `json:"size" db:"size"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
