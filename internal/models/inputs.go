package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks input rejected before any remote call is made.
var ErrInvalid = errors.New("invalid input")

var validate = validator.New()

// NewUser is what session bootstrap sends when no account exists yet.
type NewUser struct {
	ExternalRef string `validate:"required"`
	Email       string `validate:"required,email"`
	Name        string `validate:"required"`
	Role        Role   `validate:"oneof=admin student"`
}

// CourseInput holds every writable course field for creation.
type CourseInput struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Thumbnail     string   `json:"thumbnail"`
	Category      string   `json:"category"`
	Prerequisites []string `json:"prerequisites" validate:"dive,required"`
	Duration      float64  `json:"duration" validate:"gte=0"`
	Level         Level    `json:"level" validate:"oneof=beginner intermediate advanced"`
	CreatedBy     string   `json:"createdBy" validate:"required"`
}

// CoursePatch is a partial course update; nil fields are left alone.
type CoursePatch struct {
	Title         *string   `json:"title,omitempty" validate:"omitempty,min=1"`
	Description   *string   `json:"description,omitempty"`
	Thumbnail     *string   `json:"thumbnail,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Prerequisites *[]string `json:"prerequisites,omitempty" validate:"omitempty,dive,required"`
	Duration      *float64  `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Level         *Level    `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	CreatedBy     *string   `json:"createdBy,omitempty"`
}

// LessonInput holds every writable lesson field for creation.
type LessonInput struct {
	CourseID    string     `json:"courseId" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Order       int        `json:"order" validate:"gte=1"`
	VideoURL    string     `json:"videoUrl"`
	Materials   []Material `json:"materials" validate:"dive"`
	Duration    int        `json:"duration" validate:"gte=0"`
	Type        LessonType `json:"type" validate:"oneof=video reading quiz"`
}

// LessonPatch is a partial lesson update; nil fields are left alone.
type LessonPatch struct {
	CourseID    *string     `json:"courseId,omitempty" validate:"omitempty,min=1"`
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string     `json:"description,omitempty"`
	Order       *int        `json:"order,omitempty" validate:"omitempty,gte=1"`
	VideoURL    *string     `json:"videoUrl,omitempty"`
	Materials   *[]Material `json:"materials,omitempty" validate:"omitempty,dive"`
	Duration    *int        `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Type        *LessonType `json:"type,omitempty" validate:"omitempty,oneof=video reading quiz"`
}

// Validate runs the struct tags of v and wraps failures in ErrInvalid.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateCoursePatch also rejects a course that lists itself as a prerequisite.
func ValidateCoursePatch(courseID string, p CoursePatch) error {
	if err := Validate(p); err != nil {
		return err
	}
	if p.Prerequisites != nil && slices.Contains(*p.Prerequisites, courseID) {
		return fmt.Errorf("%w: course %s cannot be its own prerequisite", ErrInvalid, courseID)
	}
	return nil
}
