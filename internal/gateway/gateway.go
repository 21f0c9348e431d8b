// Package gateway is the store's only path to the persistence service. Each
// entity has its own contract; the REST adapter in this package implements
// all of them against the row API.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"swiss-hub/internal/models"
)

var (
	// ErrConstraint is a uniqueness or foreign-key violation reported by the backend.
	ErrConstraint = errors.New("constraint violation")
	// ErrNotFound is returned by writes that target a row that no longer exists.
	// Single-row reads report absence as a nil result instead.
	ErrNotFound = errors.New("row not found")
	// ErrRejected covers requests the backend refused as malformed or unauthorized.
	ErrRejected = errors.New("request rejected")
	// ErrTransport is a network failure or a backend-side error.
	ErrTransport = errors.New("transport failure")
)

// Error carries the backend's message and status alongside one of the
// sentinel kinds above.
type Error struct {
	Op      string
	Status  int
	Message string
	Kind    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.Kind }

type Users interface {
	ByExternalRef(ctx context.Context, ref string) (*models.User, error)
	Create(ctx context.Context, in models.NewUser) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type Courses interface {
	// List returns newest first.
	List(ctx context.Context) ([]models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, in models.CourseInput) (*models.Course, error)
	Update(ctx context.Context, id string, p models.CoursePatch) (*models.Course, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Lessons interface {
	// ListByCourse returns the course's lessons by ascending order.
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	Create(ctx context.Context, in models.LessonInput) (*models.Lesson, error)
	Update(ctx context.Context, id string, p models.LessonPatch) (*models.Lesson, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Enrollments interface {
	ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
	// Create fails with ErrConstraint when the pair is already enrolled.
	Create(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Delete(ctx context.Context, userID, courseID string) (bool, error)
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	// SetCompletion stores the derived completion fields of an enrollment.
	SetCompletion(ctx context.Context, id string, percent int, status models.EnrollmentStatus) (*models.Enrollment, error)
}

type Progress interface {
	ListByUserAndCourse(ctx context.Context, userID, courseID string) ([]models.Progress, error)
	// Upsert creates the row if absent, otherwise sets completed, completedAt
	// and lastAccessedAt.
	Upsert(ctx context.Context, userID, courseID, lessonID string, completed bool) (*models.Progress, error)
	// Touch only moves lastAccessedAt on an existing row; an absent row is
	// created incomplete.
	Touch(ctx context.Context, userID, courseID, lessonID string) (*models.Progress, error)
	// Completion is the rounded share of the course's lessons the user completed.
	Completion(ctx context.Context, userID, courseID string) (int, error)
	DeleteByUserAndCourse(ctx context.Context, userID, courseID string) (int, error)
}

type Stats interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
}

// Gateway bundles one adapter per entity.
type Gateway struct {
	Users       Users
	Courses     Courses
	Lessons     Lessons
	Enrollments Enrollments
	Progress    Progress
	Stats       Stats
}
