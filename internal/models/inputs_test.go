package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCourse() CourseInput {
	return CourseInput{
		Title:     "Go Basics",
		Duration:  4,
		Level:     LevelBeginner,
		CreatedBy: "admin-1",
	}
}

func TestValidateCourseInput(t *testing.T) {
	require.NoError(t, Validate(validCourse()))

	in := validCourse()
	in.Level = "expert"
	assert.ErrorIs(t, Validate(in), ErrInvalid)

	in = validCourse()
	in.Duration = -1
	assert.ErrorIs(t, Validate(in), ErrInvalid)

	in = validCourse()
	in.Prerequisites = []string{""}
	assert.ErrorIs(t, Validate(in), ErrInvalid)
}

func TestValidateLessonInput(t *testing.T) {
	in := LessonInput{CourseID: "c1", Title: "Intro", Order: 1, Type: LessonVideo}
	require.NoError(t, Validate(in))

	in.Order = 0
	assert.ErrorIs(t, Validate(in), ErrInvalid)

	in.Order = 1
	in.Materials = []Material{{Title: "Slides", Type: "zip", URL: "https://x"}}
	assert.ErrorIs(t, Validate(in), ErrInvalid)
}

func TestValidateCoursePatchRejectsSelfPrerequisite(t *testing.T) {
	prereqs := []string{"c2", "c1"}
	err := ValidateCoursePatch("c1", CoursePatch{Prerequisites: &prereqs})
	assert.ErrorIs(t, err, ErrInvalid)

	prereqs = []string{"c2"}
	assert.NoError(t, ValidateCoursePatch("c1", CoursePatch{Prerequisites: &prereqs}))

	bad := Level("expert")
	assert.ErrorIs(t, ValidateCoursePatch("c1", CoursePatch{Level: &bad}), ErrInvalid)
	assert.NoError(t, ValidateCoursePatch("c1", CoursePatch{}))
}
