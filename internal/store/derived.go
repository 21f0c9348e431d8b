package store

import (
	"slices"

	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

// LessonState is the current user's lock state for a loaded lesson. Unknown
// lessons and signed-out users see it locked.
func (s *Store) LessonState(lessonID string) rules.LessonState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.lessons, func(l models.Lesson) bool { return l.ID == lessonID })
	if s.user == nil || i < 0 {
		return rules.Locked
	}
	return rules.LessonStatus(s.user.ID, s.lessons[i], s.lessons, s.progress, s.enrollments)
}

// CourseLocked reports whether unmet prerequisites lock the course for the
// current user.
func (s *Store) CourseLocked(courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.courses, func(c models.Course) bool { return c.ID == courseID })
	if i < 0 {
		return false
	}
	userID := ""
	if s.user != nil {
		userID = s.user.ID
	}
	return rules.CourseLocked(userID, s.courses[i], s.enrollments)
}

// CourseCompletion is the local completion estimate from loaded progress.
func (s *Store) CourseCompletion(courseID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return 0
	}
	return rules.CourseCompletion(s.user.ID, courseID, s.lessons, s.progress)
}
