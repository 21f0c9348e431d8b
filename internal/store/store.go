// Package store is the client-side application state: it mirrors server rows
// in memory, reuses fetched collections while the cache is fresh, and keeps
// enrollment completion derived from progress. All mutation goes through the
// action methods; readers get copies.
package store

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/cache"
	"swiss-hub/internal/gateway"
	"swiss-hub/internal/models"
)

// Snapshots persists store state between runs.
type Snapshots interface {
	Put(key string, v any) error
	Get(key string, v any) (bool, error)
	Delete(key string) error
}

type Store struct {
	gw     *gateway.Gateway
	cache  *cache.Tracker
	log    *zap.Logger
	snaps  Snapshots
	now    func() time.Time
	ttl    time.Duration
	flight singleflight.Group

	pairMu sync.Mutex
	pairs  map[string]*sync.Mutex

	mu                sync.RWMutex
	user              *models.User
	users             []models.User
	courses           []models.Course
	lessons           []models.Lesson
	enrollments       []models.Enrollment
	progress          []models.Progress
	enrollmentsLoaded bool
	loading           int
	lastErr           error
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTTL overrides the cache lifetime. Production uses cache.TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithSnapshots(snaps Snapshots) Option {
	return func(s *Store) { s.snaps = snaps }
}

func New(gw *gateway.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:    gw,
		log:   zap.NewNop(),
		now:   time.Now,
		ttl:   cache.TTL,
		pairs: make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	s.cache = cache.NewTracker(s.ttl, s.now)
	return s
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) Courses() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.courses)
}

func (s *Store) Lessons() []models.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lessons)
}

func (s *Store) Enrollments() []models.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.enrollments)
}

func (s *Store) Progress() []models.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.progress)
}

// Loading reports whether any action is waiting on the gateway.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Err is the last failure recorded by a background read.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

// InvalidateCache forces the next read of key (or every collection for
// cache.All) to go to the gateway.
func (s *Store) InvalidateCache(key cache.Key) {
	s.cache.Invalidate(key)
	s.persist()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

// fail records a background read failure without touching collections.
func (s *Store) fail(op string, err error) {
	s.log.Warn("store read failed", zap.String("op", op), zap.Error(err))
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// require checks the current user's capability before any gateway call.
func (s *Store) require(c authz.Capability) (models.User, error) {
	u := s.CurrentUser()
	if err := authz.Require(u, c); err != nil {
		return models.User{}, err
	}
	return *u, nil
}

// pairLock serializes progress mutations for one user and course.
func (s *Store) pairLock(userID, courseID string) func() {
	key := userID + "/" + courseID
	s.pairMu.Lock()
	m, ok := s.pairs[key]
	if !ok {
		m = &sync.Mutex{}
		s.pairs[key] = m
	}
	s.pairMu.Unlock()
	m.Lock()
	return m.Unlock
}

// replaceByID swaps the element with the same id or appends v.
func replaceByID[T any](items []T, v T, id func(T) string) []T {
	i := slices.IndexFunc(items, func(x T) bool { return id(x) == id(v) })
	if i < 0 {
		return append(items, v)
	}
	items[i] = v
	return items
}

func courseIDOf(c models.Course) string { return c.ID }
func lessonIDOf(l models.Lesson) string { return l.ID }
func progressIDOf(p models.Progress) string { return p.ID }
