package gateway

import (
	"context"
	"net/url"

	"swiss-hub/internal/models"
)

type restEnrollments struct{ c *Client }

func pair(userID, courseID string) url.Values {
	return url.Values{"user_id": {userID}, "course_id": {courseID}}
}

func (a *restEnrollments) ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	var rows []models.EnrollmentRow
	q := url.Values{"user_id": {userID}, "order": {"enrolled_at.desc"}}
	if err := a.c.list(ctx, "enrollments.listByUser", "enrollments", q, &rows); err != nil {
		return nil, err
	}
	return mapRows(rows, enrollmentFromRow), nil
}

func (a *restEnrollments) Create(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	var out models.EnrollmentRow
	body := row{
		"user_id":               userID,
		"course_id":             courseID,
		"status":                string(models.StatusActive),
		"completion_percentage": 0,
	}
	if err := a.c.create(ctx, "enrollments.create", "enrollments", body, &out); err != nil {
		return nil, err
	}
	e := enrollmentFromRow(out)
	return &e, nil
}

func (a *restEnrollments) Delete(ctx context.Context, userID, courseID string) (bool, error) {
	n, err := a.c.removeWhere(ctx, "enrollments.delete", "enrollments", pair(userID, courseID))
	return n > 0, err
}

func (a *restEnrollments) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	var rows []models.EnrollmentRow
	if err := a.c.list(ctx, "enrollments.exists", "enrollments", pair(userID, courseID), &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (a *restEnrollments) SetCompletion(ctx context.Context, id string, percent int, status models.EnrollmentStatus) (*models.Enrollment, error) {
	var out models.EnrollmentRow
	body := row{"completion_percentage": percent, "status": string(status)}
	if err := a.c.patch(ctx, "enrollments.setCompletion", "enrollments", id, body, &out); err != nil {
		return nil, err
	}
	e := enrollmentFromRow(out)
	return &e, nil
}
