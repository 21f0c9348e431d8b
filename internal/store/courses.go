package store

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/cache"
	"swiss-hub/internal/models"
)

// FetchCourses replaces the course collection unless a fresh non-empty copy is
// already loaded. Failures go to Err and leave the collection as it was.
func (s *Store) FetchCourses(ctx context.Context, force bool) {
	s.mu.RLock()
	have := len(s.courses) > 0
	s.mu.RUnlock()
	if !force && have && s.cache.Fresh(cache.Courses) {
		s.log.Debug("courses served from cache")
		return
	}

	s.begin()
	defer s.end()
	// Joined callers share this fetch, so it must not die with the first
	// caller's context.
	v, err, _ := s.flight.Do("courses", func() (any, error) {
		return s.gw.Courses.List(context.WithoutCancel(ctx))
	})
	if err != nil {
		s.fail("courses", err)
		return
	}

	s.mu.Lock()
	s.courses = slices.Clone(v.([]models.Course))
	s.lastErr = nil
	s.mu.Unlock()
	s.cache.RecordFetch(cache.Courses, s.now())
	s.persist()
}

// GetCourse returns the loaded course with id, asking the gateway when it is
// not in memory. Absent courses are (nil, nil).
func (s *Store) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	s.mu.RLock()
	i := slices.IndexFunc(s.courses, func(c models.Course) bool { return c.ID == id })
	if i >= 0 {
		c := s.courses[i]
		s.mu.RUnlock()
		return &c, nil
	}
	s.mu.RUnlock()

	s.begin()
	defer s.end()
	c, err := s.gw.Courses.Get(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	s.mu.Lock()
	s.courses = replaceByID(s.courses, *c, courseIDOf)
	s.mu.Unlock()
	s.persist()
	return c, nil
}

func (s *Store) AddCourse(ctx context.Context, in models.CourseInput) (*models.Course, error) {
	if _, err := s.require(authz.ManageCourses); err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	c, err := s.gw.Courses.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.courses = append(s.courses, *c)
	s.mu.Unlock()
	s.cache.Refresh(cache.Courses)
	s.persist()
	s.log.Info("course added", zap.String("course_id", c.ID))
	return c, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id string, p models.CoursePatch) (*models.Course, error) {
	if _, err := s.require(authz.ManageCourses); err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	c, err := s.gw.Courses.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.courses = replaceByID(s.courses, *c, courseIDOf)
	s.mu.Unlock()
	s.cache.Refresh(cache.Courses)
	s.persist()
	return c, nil
}

// DeleteCourse removes the course and, in memory, its lessons, enrollments
// and progress. The backend cascades the same rows.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.require(authz.ManageCourses); err != nil {
		return err
	}
	s.begin()
	defer s.end()

	if _, err := s.gw.Courses.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.courses = slices.DeleteFunc(s.courses, func(c models.Course) bool { return c.ID == id })
	s.lessons = slices.DeleteFunc(s.lessons, func(l models.Lesson) bool { return l.CourseID == id })
	s.enrollments = slices.DeleteFunc(s.enrollments, func(e models.Enrollment) bool { return e.CourseID == id })
	s.progress = slices.DeleteFunc(s.progress, func(p models.Progress) bool { return p.CourseID == id })
	s.mu.Unlock()
	s.cache.Refresh(cache.Courses)
	s.cache.InvalidateLessons(id)
	s.persist()
	s.log.Info("course deleted", zap.String("course_id", id))
	return nil
}
