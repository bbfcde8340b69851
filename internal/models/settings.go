package models

import "time"

// UserSetting is a single per-user key-value preference: UI column toggles,
// dark mode, stats bar, and per-course target grades (key "target_grade.<course>").
type UserSetting struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultTargetGrade is used when no per-course target grade is configured.
const DefaultTargetGrade = 85.0
