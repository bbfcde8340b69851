package models

type OutlineUploadedEvent struct {
	OutlineID  string `json:"outline_id"`
	SemesterID string `json:"semester_id"`
	UserID     string `json:"user_id"`
	ObjectKey  string `json:"object_key"`
	FileName   string `json:"file_name"`
	Timestamp  int64  `json:"timestamp"`
}

type SemesterDeletedEvent struct {
	SemesterID        string `json:"semester_id"`
	UserID            string `json:"user_id"`
	AssessmentsPurged int    `json:"assessments_purged"`
	Timestamp         int64  `json:"timestamp"`
}
