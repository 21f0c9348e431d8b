package models

import (
	"encoding/json"
	"time"
)

// The row types mirror the persistence service's tables column for column.
// Durations travel as strings and materials as raw JSON.

type UserRow struct {
	ID          string     `json:"id"`
	ExternalRef string     `json:"external_ref"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	CreatedAt   *time.Time `json:"created_at"`
}

type CourseRow struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Thumbnail     string     `json:"thumbnail"`
	Category      string     `json:"category"`
	Prerequisites []string   `json:"prerequisites"`
	Duration      string     `json:"duration"`
	Level         string     `json:"level"`
	Instructor    string     `json:"instructor"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type LessonRow struct {
	ID          string          `json:"id"`
	CourseID    string          `json:"course_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OrderNum    int             `json:"order_num"`
	VideoURL    string          `json:"video_url"`
	Materials   json.RawMessage `json:"materials"`
	Duration    string          `json:"duration"`
	Type        string          `json:"type"`
	CreatedAt   *time.Time      `json:"created_at"`
}

type EnrollmentRow struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	CourseID             string     `json:"course_id"`
	EnrolledAt           *time.Time `json:"enrolled_at"`
	Status               string     `json:"status"`
	CompletionPercentage *int       `json:"completion_percentage"`
}

type ProgressRow struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CourseID       string     `json:"course_id"`
	LessonID       string     `json:"lesson_id"`
	Completed      *bool      `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
}

type StatsRow struct {
	TotalCourses     int64 `json:"total_courses"`
	TotalUsers       int64 `json:"total_users"`
	TotalEnrollments int64 `json:"total_enrollments"`
}
