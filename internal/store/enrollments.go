package store

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/cache"
	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

// IsUserEnrolled checks the loaded enrollments only; it never fetches.
func (s *Store) IsUserEnrolled(courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	return rules.IsEnrolled(s.user.ID, courseID, s.enrollments)
}

// EnsureEnrollmentsLoaded fetches the user's enrollments once. Later calls
// are no-ops until force is set or the user logs out, even after the cache
// expires.
func (s *Store) EnsureEnrollmentsLoaded(ctx context.Context, force bool) error {
	u := s.CurrentUser()
	if u == nil {
		return authz.ErrUnauthenticated
	}
	s.mu.Lock()
	if s.enrollmentsLoaded && !force {
		s.mu.Unlock()
		return nil
	}
	s.enrollmentsLoaded = false
	s.mu.Unlock()

	if !force && s.cache.Fresh(cache.Enrollments) {
		s.mu.Lock()
		s.enrollmentsLoaded = true
		s.mu.Unlock()
		s.log.Debug("enrollments served from cache")
		return nil
	}

	s.begin()
	defer s.end()
	v, err, _ := s.flight.Do("enrollments/"+u.ID, func() (any, error) {
		return s.gw.Enrollments.ListByUser(context.WithoutCancel(ctx), u.ID)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.enrollments = slices.Clone(v.([]models.Enrollment))
	s.enrollmentsLoaded = true
	s.mu.Unlock()
	s.cache.RecordFetch(cache.Enrollments, s.now())
	s.persist()
	return nil
}

// Enroll creates the current user's enrollment in a course. A second
// enrollment for the same course fails with gateway.ErrConstraint.
func (s *Store) Enroll(ctx context.Context, courseID string) (*models.Enrollment, error) {
	u, err := s.require(authz.Enroll)
	if err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	e, err := s.gw.Enrollments.Create(ctx, u.ID, courseID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.enrollments, func(x models.Enrollment) bool {
		return x.UserID == e.UserID && x.CourseID == e.CourseID
	})
	if i >= 0 {
		s.enrollments[i] = *e
	} else {
		s.enrollments = append(s.enrollments, *e)
	}
	s.mu.Unlock()
	s.cache.Refresh(cache.Enrollments)
	s.persist()
	s.log.Info("enrolled", zap.String("user_id", u.ID), zap.String("course_id", courseID))
	return e, nil
}

// Unenroll deletes the enrollment and then the user's progress in the course.
// If only the progress deletion fails the enrollment stays removed and the
// error is returned.
func (s *Store) Unenroll(ctx context.Context, courseID string) error {
	u, err := s.require(authz.Enroll)
	if err != nil {
		return err
	}
	unlock := s.pairLock(u.ID, courseID)
	defer unlock()
	s.begin()
	defer s.end()

	if _, err := s.gw.Enrollments.Delete(ctx, u.ID, courseID); err != nil {
		return err
	}
	_, progressErr := s.gw.Progress.DeleteByUserAndCourse(ctx, u.ID, courseID)

	s.mu.Lock()
	s.enrollments = slices.DeleteFunc(s.enrollments, func(e models.Enrollment) bool {
		return e.UserID == u.ID && e.CourseID == courseID
	})
	if progressErr == nil {
		s.progress = slices.DeleteFunc(s.progress, func(p models.Progress) bool {
			return p.UserID == u.ID && p.CourseID == courseID
		})
	}
	s.mu.Unlock()
	s.cache.Refresh(cache.Enrollments)
	s.persist()

	if progressErr != nil {
		return fmt.Errorf("remove progress after unenrolling: %w", progressErr)
	}
	s.log.Info("unenrolled", zap.String("user_id", u.ID), zap.String("course_id", courseID))
	return nil
}
