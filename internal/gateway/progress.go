package gateway

import (
	"context"
	"net/url"

	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

type restProgress struct{ c *Client }

func (a *restProgress) ListByUserAndCourse(ctx context.Context, userID, courseID string) ([]models.Progress, error) {
	var rows []models.ProgressRow
	if err := a.c.list(ctx, "progress.listByUserAndCourse", "progress", pair(userID, courseID), &rows); err != nil {
		return nil, err
	}
	return mapRows(rows, progressFromRow), nil
}

func (a *restProgress) find(ctx context.Context, op, userID, lessonID string) (*models.ProgressRow, error) {
	var rows []models.ProgressRow
	q := url.Values{"user_id": {userID}, "lesson_id": {lessonID}}
	if err := a.c.list(ctx, op, "progress", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (a *restProgress) Upsert(ctx context.Context, userID, courseID, lessonID string, completed bool) (*models.Progress, error) {
	existing, err := a.find(ctx, "progress.upsert", userID, lessonID)
	if err != nil {
		return nil, err
	}
	now := a.c.now().UTC()
	body := row{
		"completed":        completed,
		"completed_at":     nil,
		"last_accessed_at": now,
	}
	if completed {
		body["completed_at"] = now
	}

	var out models.ProgressRow
	if existing != nil {
		err = a.c.patch(ctx, "progress.upsert", "progress", existing.ID, body, &out)
	} else {
		body["user_id"] = userID
		body["course_id"] = courseID
		body["lesson_id"] = lessonID
		err = a.c.create(ctx, "progress.upsert", "progress", body, &out)
	}
	if err != nil {
		return nil, err
	}
	p := progressFromRow(out)
	return &p, nil
}

func (a *restProgress) Touch(ctx context.Context, userID, courseID, lessonID string) (*models.Progress, error) {
	existing, err := a.find(ctx, "progress.touch", userID, lessonID)
	if err != nil {
		return nil, err
	}
	now := a.c.now().UTC()

	var out models.ProgressRow
	if existing != nil {
		err = a.c.patch(ctx, "progress.touch", "progress", existing.ID, row{"last_accessed_at": now}, &out)
	} else {
		body := row{
			"user_id":          userID,
			"course_id":        courseID,
			"lesson_id":        lessonID,
			"completed":        false,
			"last_accessed_at": now,
		}
		err = a.c.create(ctx, "progress.touch", "progress", body, &out)
	}
	if err != nil {
		return nil, err
	}
	p := progressFromRow(out)
	return &p, nil
}

func (a *restProgress) Completion(ctx context.Context, userID, courseID string) (int, error) {
	var lessons []models.LessonRow
	if err := a.c.list(ctx, "progress.completion", "lessons", url.Values{"course_id": {courseID}}, &lessons); err != nil {
		return 0, err
	}
	if len(lessons) == 0 {
		return 0, nil
	}
	var done []models.ProgressRow
	q := pair(userID, courseID)
	q.Set("completed", "true")
	if err := a.c.list(ctx, "progress.completion", "progress", q, &done); err != nil {
		return 0, err
	}

	inCourse := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		inCourse[l.ID] = true
	}
	counted := make(map[string]bool, len(done))
	for _, p := range done {
		if inCourse[p.LessonID] {
			counted[p.LessonID] = true
		}
	}
	return rules.Percent(len(counted), len(lessons)), nil
}

func (a *restProgress) DeleteByUserAndCourse(ctx context.Context, userID, courseID string) (int, error) {
	return a.c.removeWhere(ctx, "progress.deleteByUserAndCourse", "progress", pair(userID, courseID))
}

type restStats struct{ c *Client }

func (a *restStats) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var out models.StatsRow
	resp, err := a.c.request(ctx).SetResult(&out).Get("/rest/stats")
	if err := a.c.check("stats.dashboard", resp, err); err != nil {
		return models.DashboardStats{}, err
	}
	return models.DashboardStats{
		TotalCourses:     out.TotalCourses,
		TotalUsers:       out.TotalUsers,
		TotalEnrollments: out.TotalEnrollments,
	}, nil
}
