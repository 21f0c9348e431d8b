package store

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/models"
)

// MarkLessonComplete records the lesson as done and re-derives the
// enrollment's completion from the backend.
func (s *Store) MarkLessonComplete(ctx context.Context, courseID, lessonID string) (*models.Progress, error) {
	return s.setLessonCompleted(ctx, courseID, lessonID, true)
}

// MarkLessonIncomplete clears completion and puts the enrollment back to active.
func (s *Store) MarkLessonIncomplete(ctx context.Context, courseID, lessonID string) (*models.Progress, error) {
	return s.setLessonCompleted(ctx, courseID, lessonID, false)
}

func (s *Store) setLessonCompleted(ctx context.Context, courseID, lessonID string, completed bool) (*models.Progress, error) {
	u, err := s.require(authz.TrackProgress)
	if err != nil {
		return nil, err
	}
	unlock := s.pairLock(u.ID, courseID)
	defer unlock()
	s.begin()
	defer s.end()

	p, err := s.gw.Progress.Upsert(ctx, u.ID, courseID, lessonID, completed)
	if err != nil {
		return nil, err
	}
	s.mergeProgress(*p)

	pct, err := s.gw.Progress.Completion(ctx, u.ID, courseID)
	if err != nil {
		s.persist()
		return nil, fmt.Errorf("recompute completion: %w", err)
	}
	status := models.StatusActive
	if completed && pct == 100 {
		status = models.StatusCompleted
	}
	s.patchEnrollment(ctx, u.ID, courseID, pct, status)
	s.persist()
	return p, nil
}

func (s *Store) mergeProgress(p models.Progress) {
	s.mu.Lock()
	s.progress = replaceByID(s.progress, p, progressIDOf)
	s.mu.Unlock()
}

// patchEnrollment applies derived completion to the user's enrollment and
// stores it remotely. An enrollment that is not loaded is looked up on the
// backend first. A failed remote write is logged; the value is recomputed on
// the next progress change.
func (s *Store) patchEnrollment(ctx context.Context, userID, courseID string, pct int, status models.EnrollmentStatus) {
	match := func(e models.Enrollment) bool {
		return e.UserID == userID && e.CourseID == courseID
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.enrollments, match)
	if i < 0 {
		s.mu.Unlock()
		remote, err := s.gw.Enrollments.ListByUser(ctx, userID)
		if err != nil {
			s.log.Warn("enrollment lookup failed", zap.String("course_id", courseID), zap.Error(err))
			return
		}
		j := slices.IndexFunc(remote, match)
		if j < 0 {
			return
		}
		s.mu.Lock()
		if i = slices.IndexFunc(s.enrollments, match); i < 0 {
			s.enrollments = append(s.enrollments, remote[j])
			i = len(s.enrollments) - 1
		}
	}
	s.enrollments[i].CompletionPercentage = pct
	s.enrollments[i].Status = status
	id := s.enrollments[i].ID
	s.mu.Unlock()

	if _, err := s.gw.Enrollments.SetCompletion(ctx, id, pct, status); err != nil {
		s.log.Warn("enrollment completion not saved",
			zap.String("enrollment_id", id),
			zap.Int("percent", pct),
			zap.Error(err))
	}
}

// UpdateLastAccessed stamps the lesson as opened without changing whether it
// is completed.
func (s *Store) UpdateLastAccessed(ctx context.Context, courseID, lessonID string) (*models.Progress, error) {
	u, err := s.require(authz.TrackProgress)
	if err != nil {
		return nil, err
	}
	unlock := s.pairLock(u.ID, courseID)
	defer unlock()
	s.begin()
	defer s.end()

	p, err := s.gw.Progress.Touch(ctx, u.ID, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	s.mergeProgress(*p)
	s.persist()
	return p, nil
}

// FetchCourseProgress replaces the user's loaded progress for one course.
func (s *Store) FetchCourseProgress(ctx context.Context, courseID string) ([]models.Progress, error) {
	u, err := s.require(authz.TrackProgress)
	if err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	v, err, _ := s.flight.Do("progress/"+u.ID+"/"+courseID, func() (any, error) {
		return s.gw.Progress.ListByUserAndCourse(context.WithoutCancel(ctx), u.ID, courseID)
	})
	if err != nil {
		return nil, err
	}
	fetched := slices.Clone(v.([]models.Progress))

	s.mu.Lock()
	kept := slices.DeleteFunc(slices.Clone(s.progress), func(p models.Progress) bool {
		return p.UserID == u.ID && p.CourseID == courseID
	})
	s.progress = append(kept, fetched...)
	s.mu.Unlock()
	s.persist()
	return fetched, nil
}

// CourseProgress asks the backend for the user's completion of a course.
func (s *Store) CourseProgress(ctx context.Context, courseID string) (int, error) {
	u, err := s.require(authz.TrackProgress)
	if err != nil {
		return 0, err
	}
	return s.gw.Progress.Completion(ctx, u.ID, courseID)
}
