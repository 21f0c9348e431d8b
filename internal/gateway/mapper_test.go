package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"swiss-hub/internal/models"
)

func TestNumericStrings(t *testing.T) {
	assert.Equal(t, 2.5, number("2.5"))
	assert.Equal(t, 0.0, number(""))
	assert.Equal(t, 0.0, number("two"))
	assert.Equal(t, "2.5", formatHours(2.5))
	assert.Equal(t, "3", formatHours(3))
}

func TestEnrollmentStatusMapping(t *testing.T) {
	e := enrollmentFromRow(models.EnrollmentRow{Status: "cancelled"})
	assert.Equal(t, models.StatusDropped, e.Status)
	assert.Equal(t, 0, e.CompletionPercentage)

	pct := 40
	e = enrollmentFromRow(models.EnrollmentRow{Status: "active", CompletionPercentage: &pct})
	assert.Equal(t, models.StatusActive, e.Status)
	assert.Equal(t, 40, e.CompletionPercentage)
}

func TestLessonFromRowToleratesBadMaterials(t *testing.T) {
	l := lessonFromRow(models.LessonRow{Materials: json.RawMessage(`{"not":"a list"}`), Duration: "15"})
	assert.Equal(t, []models.Material{}, l.Materials)
	assert.Equal(t, 15, l.Duration)

	l = lessonFromRow(models.LessonRow{Materials: json.RawMessage(`null`)})
	assert.Equal(t, []models.Material{}, l.Materials)
}

func TestProgressCompletedAtOnlyWhenCompleted(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	no := false
	p := progressFromRow(models.ProgressRow{Completed: &no, CompletedAt: &at})
	assert.Nil(t, p.CompletedAt)

	yes := true
	p = progressFromRow(models.ProgressRow{Completed: &yes, CompletedAt: &at})
	assert.Equal(t, &at, p.CompletedAt)
}

func TestCoursePatchRowOnlySetsGivenFields(t *testing.T) {
	title := "New"
	hours := 1.5
	assert.Equal(t, row{"title": "New", "duration": "1.5"}, coursePatchRow(models.CoursePatch{Title: &title, Duration: &hours}))
	assert.Empty(t, coursePatchRow(models.CoursePatch{}))
}
