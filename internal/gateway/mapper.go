package gateway

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"swiss-hub/internal/models"
)

// row is a write payload in the backend's column names.
type row map[string]any

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// number reads a numeric-as-string column. Anything unparsable counts as zero.
func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func userFromRow(r models.UserRow) models.User {
	return models.User{
		ID:          r.ID,
		ExternalRef: r.ExternalRef,
		Name:        r.Name,
		Email:       r.Email,
		Role:        models.Role(r.Role),
		CreatedAt:   timeOf(r.CreatedAt),
	}
}

func courseFromRow(r models.CourseRow) models.Course {
	prereqs := r.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	return models.Course{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Thumbnail:     r.Thumbnail,
		Category:      r.Category,
		Prerequisites: prereqs,
		Duration:      number(r.Duration),
		Level:         models.Level(r.Level),
		CreatedBy:     r.Instructor,
		CreatedAt:     timeOf(r.CreatedAt),
		UpdatedAt:     timeOf(r.UpdatedAt),
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func courseInputRow(in models.CourseInput) row {
	prereqs := in.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	return row{
		"title":         in.Title,
		"description":   in.Description,
		"thumbnail":     in.Thumbnail,
		"category":      in.Category,
		"prerequisites": prereqs,
		"duration":      formatHours(in.Duration),
		"level":         string(in.Level),
		"instructor":    in.CreatedBy,
	}
}

func coursePatchRow(p models.CoursePatch) row {
	out := row{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Thumbnail != nil {
		out["thumbnail"] = *p.Thumbnail
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.Prerequisites != nil {
		prereqs := *p.Prerequisites
		if prereqs == nil {
			prereqs = []string{}
		}
		out["prerequisites"] = prereqs
	}
	if p.Duration != nil {
		out["duration"] = formatHours(*p.Duration)
	}
	if p.Level != nil {
		out["level"] = string(*p.Level)
	}
	if p.CreatedBy != nil {
		out["instructor"] = *p.CreatedBy
	}
	return out
}

func lessonFromRow(r models.LessonRow) models.Lesson {
	materials := []models.Material{}
	if len(r.Materials) > 0 {
		if err := json.Unmarshal(r.Materials, &materials); err != nil || materials == nil {
			materials = []models.Material{}
		}
	}
	return models.Lesson{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		Order:       r.OrderNum,
		VideoURL:    r.VideoURL,
		Materials:   materials,
		Duration:    int(number(r.Duration)),
		Type:        models.LessonType(r.Type),
	}
}

// withMaterialIDs gives every material without an id a fresh one.
func withMaterialIDs(ms []models.Material) []models.Material {
	out := make([]models.Material, len(ms))
	for i, m := range ms {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		out[i] = m
	}
	return out
}

func lessonInputRow(in models.LessonInput) row {
	return row{
		"course_id":   in.CourseID,
		"title":       in.Title,
		"description": in.Description,
		"order_num":   in.Order,
		"video_url":   in.VideoURL,
		"materials":   withMaterialIDs(in.Materials),
		"duration":    strconv.Itoa(in.Duration),
		"type":        string(in.Type),
	}
}

func lessonPatchRow(p models.LessonPatch) row {
	out := row{}
	if p.CourseID != nil {
		out["course_id"] = *p.CourseID
	}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Order != nil {
		out["order_num"] = *p.Order
	}
	if p.VideoURL != nil {
		out["video_url"] = *p.VideoURL
	}
	if p.Materials != nil {
		out["materials"] = withMaterialIDs(*p.Materials)
	}
	if p.Duration != nil {
		out["duration"] = strconv.Itoa(*p.Duration)
	}
	if p.Type != nil {
		out["type"] = string(*p.Type)
	}
	return out
}

func enrollmentFromRow(r models.EnrollmentRow) models.Enrollment {
	status := models.EnrollmentStatus(r.Status)
	if r.Status == "cancelled" {
		status = models.StatusDropped
	}
	pct := 0
	if r.CompletionPercentage != nil {
		pct = *r.CompletionPercentage
	}
	return models.Enrollment{
		ID:                   r.ID,
		UserID:               r.UserID,
		CourseID:             r.CourseID,
		EnrolledAt:           timeOf(r.EnrolledAt),
		Status:               status,
		CompletionPercentage: pct,
	}
}

func progressFromRow(r models.ProgressRow) models.Progress {
	p := models.Progress{
		ID:             r.ID,
		UserID:         r.UserID,
		CourseID:       r.CourseID,
		LessonID:       r.LessonID,
		Completed:      r.Completed != nil && *r.Completed,
		LastAccessedAt: timeOf(r.LastAccessedAt),
	}
	if p.Completed && r.CompletedAt != nil {
		at := *r.CompletedAt
		p.CompletedAt = &at
	}
	return p
}

func mapRows[R, E any](rows []R, fn func(R) E) []E {
	out := make([]E, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}
