package gateway

import (
	"context"
	"net/url"

	"swiss-hub/internal/models"
)

type restCourses struct{ c *Client }

func (a *restCourses) List(ctx context.Context) ([]models.Course, error) {
	var rows []models.CourseRow
	if err := a.c.list(ctx, "courses.list", "courses", url.Values{"order": {"created_at.desc"}}, &rows); err != nil {
		return nil, err
	}
	return mapRows(rows, courseFromRow), nil
}

func (a *restCourses) Get(ctx context.Context, id string) (*models.Course, error) {
	var out models.CourseRow
	found, err := a.c.get(ctx, "courses.get", "courses", id, &out)
	if err != nil || !found {
		return nil, err
	}
	course := courseFromRow(out)
	return &course, nil
}

func (a *restCourses) Create(ctx context.Context, in models.CourseInput) (*models.Course, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	var out models.CourseRow
	if err := a.c.create(ctx, "courses.create", "courses", courseInputRow(in), &out); err != nil {
		return nil, err
	}
	course := courseFromRow(out)
	return &course, nil
}

func (a *restCourses) Update(ctx context.Context, id string, p models.CoursePatch) (*models.Course, error) {
	if err := models.ValidateCoursePatch(id, p); err != nil {
		return nil, err
	}
	var out models.CourseRow
	if err := a.c.patch(ctx, "courses.update", "courses", id, coursePatchRow(p), &out); err != nil {
		return nil, err
	}
	course := courseFromRow(out)
	return &course, nil
}

func (a *restCourses) Delete(ctx context.Context, id string) (bool, error) {
	n, err := a.c.remove(ctx, "courses.delete", "courses", id)
	return n > 0, err
}
