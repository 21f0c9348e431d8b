package store

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

// FetchLessonsByCourse loads one course's lessons unless that course's copy is
// fresh, replacing only that course's subset.
func (s *Store) FetchLessonsByCourse(ctx context.Context, courseID string, force bool) ([]models.Lesson, error) {
	if !force && s.cache.FreshLessons(courseID) {
		s.log.Debug("lessons served from cache", zap.String("course_id", courseID))
		return s.LessonsByCourse(courseID), nil
	}

	s.begin()
	defer s.end()
	v, err, _ := s.flight.Do("lessons/"+courseID, func() (any, error) {
		return s.gw.Lessons.ListByCourse(context.WithoutCancel(ctx), courseID)
	})
	if err != nil {
		return nil, err
	}

	fetched := v.([]models.Lesson)
	s.mu.Lock()
	kept := slices.DeleteFunc(slices.Clone(s.lessons), func(l models.Lesson) bool { return l.CourseID == courseID })
	s.lessons = append(kept, fetched...)
	s.mu.Unlock()
	s.cache.RecordLessons(courseID, s.now())
	s.persist()
	return s.LessonsByCourse(courseID), nil
}

// LessonsByCourse returns the loaded lessons of a course by ascending order.
func (s *Store) LessonsByCourse(courseID string) []models.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rules.SortByOrder(courseID, s.lessons)
}

func (s *Store) AddLesson(ctx context.Context, in models.LessonInput) (*models.Lesson, error) {
	if _, err := s.require(authz.ManageLessons); err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	l, err := s.gw.Lessons.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lessons = append(s.lessons, *l)
	s.mu.Unlock()
	s.cache.RefreshLessons(l.CourseID)
	s.persist()
	return l, nil
}

func (s *Store) UpdateLesson(ctx context.Context, id string, p models.LessonPatch) (*models.Lesson, error) {
	if _, err := s.require(authz.ManageLessons); err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	l, err := s.gw.Lessons.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lessons = replaceByID(s.lessons, *l, lessonIDOf)
	s.mu.Unlock()
	s.cache.RefreshLessons(l.CourseID)
	s.persist()
	return l, nil
}

// DeleteLesson removes the lesson and its progress records. Sibling orders are
// left as they are; see CompactLessonOrder.
func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	if _, err := s.require(authz.ManageLessons); err != nil {
		return err
	}
	s.begin()
	defer s.end()

	if _, err := s.gw.Lessons.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	var courseID string
	if i := slices.IndexFunc(s.lessons, func(l models.Lesson) bool { return l.ID == id }); i >= 0 {
		courseID = s.lessons[i].CourseID
	}
	s.lessons = slices.DeleteFunc(s.lessons, func(l models.Lesson) bool { return l.ID == id })
	s.progress = slices.DeleteFunc(s.progress, func(p models.Progress) bool { return p.LessonID == id })
	s.mu.Unlock()
	if courseID != "" {
		s.cache.RefreshLessons(courseID)
	}
	s.persist()
	return nil
}

// CompactLessonOrder renumbers a course's loaded lessons to 1..N, keeping
// their relative order, and returns the moves it applied.
func (s *Store) CompactLessonOrder(ctx context.Context, courseID string) ([]rules.OrderChange, error) {
	if _, err := s.require(authz.ManageLessons); err != nil {
		return nil, err
	}
	plan := rules.Renumber(courseID, s.Lessons())
	for i, ch := range plan {
		to := ch.To
		if _, err := s.UpdateLesson(ctx, ch.LessonID, models.LessonPatch{Order: &to}); err != nil {
			return plan[:i], fmt.Errorf("move lesson %s to %d: %w", ch.LessonID, to, err)
		}
	}
	if len(plan) > 0 {
		s.log.Info("lesson order compacted", zap.String("course_id", courseID), zap.Int("moved", len(plan)))
	}
	return plan, nil
}
