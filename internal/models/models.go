package models

import "time"

// Role is the single authorization role a user holds.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Level is a course difficulty.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// LessonType describes how a lesson is consumed.
type LessonType string

const (
	LessonVideo   LessonType = "video"
	LessonReading LessonType = "reading"
	LessonQuiz    LessonType = "quiz"
)

type MaterialType string

const (
	MaterialPDF      MaterialType = "pdf"
	MaterialDocument MaterialType = "document"
	MaterialSlide    MaterialType = "slide"
	MaterialLink     MaterialType = "link"
)

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	StatusActive    EnrollmentStatus = "active"
	StatusCompleted EnrollmentStatus = "completed"
	StatusDropped   EnrollmentStatus = "dropped"
)

// User is a platform account. ExternalRef is the identity provider's subject.
type User struct {
	ID          string    `json:"id"`
	ExternalRef string    `json:"externalRef"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Course is a catalog entry. Duration is in hours.
type Course struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Thumbnail     string    `json:"thumbnail"`
	Category      string    `json:"category"`
	Prerequisites []string  `json:"prerequisites"`
	Duration      float64   `json:"duration"`
	Level         Level     `json:"level"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Lesson belongs to one course. Order is 1-based and unique within the course.
// Duration is in minutes.
type Lesson struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"courseId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Order       int        `json:"order"`
	VideoURL    string     `json:"videoUrl"`
	Materials   []Material `json:"materials"`
	Duration    int        `json:"duration"`
	Type        LessonType `json:"type"`
}

// Material is embedded in a lesson and not addressable on its own.
type Material struct {
	ID    string       `json:"id"`
	Title string       `json:"title" validate:"required"`
	Type  MaterialType `json:"type" validate:"oneof=pdf document slide link"`
	URL   string       `json:"url" validate:"required"`
	Size  string       `json:"size,omitempty"`
}

// Enrollment links a user to a course. CompletionPercentage is always derived
// from progress records.
type Enrollment struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"userId"`
	CourseID             string           `json:"courseId"`
	EnrolledAt           time.Time        `json:"enrolledAt"`
	Status               EnrollmentStatus `json:"status"`
	CompletionPercentage int              `json:"completionPercentage"`
}

// Progress is one user's state on one lesson. CompletedAt is set iff Completed.
type Progress struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	CourseID       string     `json:"courseId"`
	LessonID       string     `json:"lessonId"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
}

// DashboardStats are platform-wide counts for the admin dashboard.
type DashboardStats struct {
	TotalCourses     int64 `json:"totalCourses"`
	TotalUsers       int64 `json:"totalUsers"`
	TotalEnrollments int64 `json:"totalEnrollments"`
}
