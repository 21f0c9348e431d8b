package store

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"swiss-hub/internal/cache"
	"swiss-hub/internal/models"
)

const stateKey = "store/state"

// State is what the store writes to its snapshot after each change.
type State struct {
	User              *models.User        `json:"user"`
	Users             []models.User       `json:"users"`
	Courses           []models.Course     `json:"courses"`
	Lessons           []models.Lesson     `json:"lessons"`
	Enrollments       []models.Enrollment `json:"enrollments"`
	Progress          []models.Progress   `json:"progress"`
	EnrollmentsLoaded bool                `json:"enrollmentsLoaded"`
	Cache             cache.Metadata      `json:"cache"`
	SavedAt           time.Time           `json:"savedAt"`
}

// State returns a copy of everything the snapshot would hold.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Users:             slices.Clone(s.users),
		Courses:           slices.Clone(s.courses),
		Lessons:           slices.Clone(s.lessons),
		Enrollments:       slices.Clone(s.enrollments),
		Progress:          slices.Clone(s.progress),
		EnrollmentsLoaded: s.enrollmentsLoaded,
		Cache:             s.cache.Metadata(),
		SavedAt:           s.now(),
	}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// persist writes the snapshot. Failures are logged; the snapshot is a cache.
func (s *Store) persist() {
	if s.snaps == nil {
		return
	}
	if err := s.snaps.Put(stateKey, s.State()); err != nil {
		s.log.Error("snapshot write failed", zap.Error(err))
	}
}

// Hydrate restores the last snapshot, if any, and reports whether one was found.
func (s *Store) Hydrate() (bool, error) {
	if s.snaps == nil {
		return false, nil
	}
	var st State
	found, err := s.snaps.Get(stateKey, &st)
	if err != nil || !found {
		return false, err
	}

	s.mu.Lock()
	s.user = st.User
	s.users = st.Users
	s.courses = st.Courses
	s.lessons = st.Lessons
	s.enrollments = st.Enrollments
	s.progress = st.Progress
	s.enrollmentsLoaded = st.EnrollmentsLoaded
	s.mu.Unlock()
	s.cache.Restore(st.Cache)

	s.log.Debug("store hydrated", zap.Time("saved_at", st.SavedAt), zap.Int("courses", len(st.Courses)))
	return true, nil
}

// reset drops every collection, cache timestamp and progress lock.
func (s *Store) reset() {
	s.mu.Lock()
	s.user = nil
	s.users = nil
	s.courses = nil
	s.lessons = nil
	s.enrollments = nil
	s.progress = nil
	s.enrollmentsLoaded = false
	s.lastErr = nil
	s.mu.Unlock()
	s.pairMu.Lock()
	s.pairs = make(map[string]*sync.Mutex)
	s.pairMu.Unlock()
	s.cache.Invalidate(cache.All)
}
