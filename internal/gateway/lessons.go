package gateway

import (
	"context"
	"net/url"

	"swiss-hub/internal/models"
)

type restLessons struct{ c *Client }

func (a *restLessons) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var rows []models.LessonRow
	q := url.Values{"course_id": {courseID}, "order": {"order_num.asc"}}
	if err := a.c.list(ctx, "lessons.listByCourse", "lessons", q, &rows); err != nil {
		return nil, err
	}
	return mapRows(rows, lessonFromRow), nil
}

func (a *restLessons) Create(ctx context.Context, in models.LessonInput) (*models.Lesson, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	var out models.LessonRow
	if err := a.c.create(ctx, "lessons.create", "lessons", lessonInputRow(in), &out); err != nil {
		return nil, err
	}
	lesson := lessonFromRow(out)
	return &lesson, nil
}

func (a *restLessons) Update(ctx context.Context, id string, p models.LessonPatch) (*models.Lesson, error) {
	if err := models.Validate(p); err != nil {
		return nil, err
	}
	var out models.LessonRow
	if err := a.c.patch(ctx, "lessons.update", "lessons", id, lessonPatchRow(p), &out); err != nil {
		return nil, err
	}
	lesson := lessonFromRow(out)
	return &lesson, nil
}

func (a *restLessons) Delete(ctx context.Context, id string) (bool, error) {
	n, err := a.c.remove(ctx, "lessons.delete", "lessons", id)
	return n > 0, err
}
