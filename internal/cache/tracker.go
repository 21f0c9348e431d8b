// Package cache records when each store collection was last fetched in full
// and answers whether that copy is still fresh.
package cache

import (
	"maps"
	"sync"
	"time"
)

// TTL is how long a fetched collection is reused before refetching.
const TTL = 5 * time.Minute

// Key names a tracked collection. Lessons are tracked per course instead.
type Key string

const (
	Courses     Key = "courses"
	Enrollments Key = "enrollments"
	Users       Key = "users"
	Lessons     Key = "lessons"
	All         Key = "all"
)

// IsFresh reports whether lastFetchedAt is set and younger than ttl at now.
func IsFresh(lastFetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	return !lastFetchedAt.IsZero() && now.Sub(lastFetchedAt) < ttl
}

// Metadata is the serializable form of a Tracker.
type Metadata struct {
	Collections map[Key]time.Time    `json:"collections"`
	Lessons     map[string]time.Time `json:"lessons"`
}

type Tracker struct {
	mu          sync.Mutex
	ttl         time.Duration
	now         func() time.Time
	collections map[Key]time.Time
	lessons     map[string]time.Time
}

// NewTracker returns an empty tracker. A nil now defaults to time.Now.
func NewTracker(ttl time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = TTL
	}
	return &Tracker{
		ttl:         ttl,
		now:         now,
		collections: make(map[Key]time.Time),
		lessons:     make(map[string]time.Time),
	}
}

func (t *Tracker) Now() time.Time { return t.now() }

func (t *Tracker) TTL() time.Duration { return t.ttl }

// RecordFetch stamps a whole collection as fetched at the given time.
func (t *Tracker) RecordFetch(key Key, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collections[key] = at
}

// RecordLessons stamps the lesson subset of one course.
func (t *Tracker) RecordLessons(courseID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lessons[courseID] = at
}

// Refresh re-stamps a collection at now if it has been fetched before.
func (t *Tracker) Refresh(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.collections[key]; ok {
		t.collections[key] = t.now()
	}
}

func (t *Tracker) RefreshLessons(courseID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.lessons[courseID]; ok {
		t.lessons[courseID] = t.now()
	}
}

func (t *Tracker) Fresh(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return IsFresh(t.collections[key], t.ttl, t.now())
}

func (t *Tracker) FreshLessons(courseID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return IsFresh(t.lessons[courseID], t.ttl, t.now())
}

// Invalidate clears one collection, every lesson subset (Lessons), or
// everything (All), so the next access refetches.
func (t *Tracker) Invalidate(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch key {
	case All:
		clear(t.collections)
		clear(t.lessons)
	case Lessons:
		clear(t.lessons)
	default:
		delete(t.collections, key)
	}
}

func (t *Tracker) InvalidateLessons(courseID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lessons, courseID)
}

// Metadata returns a copy of the recorded timestamps.
func (t *Tracker) Metadata() Metadata {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Metadata{
		Collections: maps.Clone(t.collections),
		Lessons:     maps.Clone(t.lessons),
	}
}

// Restore replaces the recorded timestamps with m.
func (t *Tracker) Restore(m Metadata) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collections = make(map[Key]time.Time, len(m.Collections))
	maps.Copy(t.collections, m.Collections)
	t.lessons = make(map[string]time.Time, len(m.Lessons))
	maps.Copy(t.lessons, m.Lessons)
}
