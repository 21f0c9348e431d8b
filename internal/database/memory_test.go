package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func table(t *testing.T, name string) Table {
	t.Helper()
	tbl, ok := Lookup(name)
	require.True(t, ok, name)
	return tbl
}

func insert(t *testing.T, m *Memory, name string, r Row) Row {
	t.Helper()
	tbl := table(t, name)
	out, err := m.Insert(context.Background(), tbl, tbl.WithDefaults(r, t0))
	require.NoError(t, err)
	return out
}

func seed(t *testing.T) (*Memory, Row, Row, Row) {
	m := NewMemory()
	user := insert(t, m, "users", Row{"external_ref": "ext-1", "email": "a@b.c", "name": "Ann"})
	course := insert(t, m, "courses", Row{"title": "Go"})
	lesson := insert(t, m, "lessons", Row{"course_id": course["id"], "title": "Intro", "order_num": int64(1)})
	return m, user, course, lesson
}

func TestInsertAppliesDefaults(t *testing.T) {
	_, user, course, lesson := seed(t)

	assert.NotEmpty(t, user["id"])
	assert.Equal(t, "student", user["role"])
	assert.Equal(t, t0, user["created_at"])
	assert.Equal(t, []string{}, course["prerequisites"])
	assert.Equal(t, "0", course["duration"])
	assert.JSONEq(t, "[]", string(lesson["materials"].(json.RawMessage)))
}

func TestUniqueConstraints(t *testing.T) {
	m, user, course, lesson := seed(t)
	ctx := context.Background()
	users := table(t, "users")

	_, err := m.Insert(ctx, users, users.WithDefaults(Row{"external_ref": "ext-1", "email": "x@y.z", "name": "Dup"}, t0))
	assert.ErrorIs(t, err, ErrUniqueViolation)

	lessons := table(t, "lessons")
	_, err = m.Insert(ctx, lessons, lessons.WithDefaults(Row{"course_id": course["id"], "title": "Clash", "order_num": int64(1)}, t0))
	assert.ErrorIs(t, err, ErrUniqueViolation)

	enrollments := table(t, "enrollments")
	pair := Row{"user_id": user["id"], "course_id": course["id"]}
	_, err = m.Insert(ctx, enrollments, enrollments.WithDefaults(pair, t0))
	require.NoError(t, err)
	_, err = m.Insert(ctx, enrollments, enrollments.WithDefaults(pair, t0))
	assert.ErrorIs(t, err, ErrUniqueViolation)

	progress := table(t, "progress")
	p := Row{"user_id": user["id"], "course_id": course["id"], "lesson_id": lesson["id"]}
	_, err = m.Insert(ctx, progress, progress.WithDefaults(p, t0))
	require.NoError(t, err)
	_, err = m.Insert(ctx, progress, progress.WithDefaults(p, t0))
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestUpdateKeepsUniqueness(t *testing.T) {
	m, _, course, _ := seed(t)
	second := insert(t, m, "lessons", Row{"course_id": course["id"], "title": "Next", "order_num": int64(2)})

	_, err := m.Update(context.Background(), table(t, "lessons"), second["id"].(string), Row{"order_num": int64(1)})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	got, err := m.Update(context.Background(), table(t, "lessons"), second["id"].(string), Row{"order_num": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got["order_num"])

	_, err = m.Update(context.Background(), table(t, "lessons"), "missing", Row{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForeignKeys(t *testing.T) {
	m, _, _, _ := seed(t)
	lessons := table(t, "lessons")

	_, err := m.Insert(context.Background(), lessons, lessons.WithDefaults(Row{"course_id": "nope", "title": "x", "order_num": int64(1)}, t0))
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestDeleteCascades(t *testing.T) {
	m, user, course, lesson := seed(t)
	ctx := context.Background()
	other := insert(t, m, "courses", Row{"title": "Rust"})
	otherLesson := insert(t, m, "lessons", Row{"course_id": other["id"], "title": "Ownership", "order_num": int64(1)})
	insert(t, m, "enrollments", Row{"user_id": user["id"], "course_id": course["id"]})
	insert(t, m, "enrollments", Row{"user_id": user["id"], "course_id": other["id"]})
	insert(t, m, "progress", Row{"user_id": user["id"], "course_id": course["id"], "lesson_id": lesson["id"]})
	insert(t, m, "progress", Row{"user_id": user["id"], "course_id": other["id"], "lesson_id": otherLesson["id"]})

	n, err := m.Delete(ctx, table(t, "courses"), map[string]any{"id": course["id"]})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for name, want := range map[string]int64{"courses": 1, "lessons": 1, "enrollments": 1, "progress": 1, "users": 1} {
		got, err := m.Count(ctx, table(t, name))
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	rest, err := m.List(ctx, table(t, "progress"), Query{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, otherLesson["id"], rest[0]["lesson_id"])
}

func TestListFiltersAndOrders(t *testing.T) {
	m, _, course, _ := seed(t)
	insert(t, m, "lessons", Row{"course_id": course["id"], "title": "Third", "order_num": int64(3)})
	insert(t, m, "lessons", Row{"course_id": course["id"], "title": "Second", "order_num": int64(2)})

	got, err := m.List(context.Background(), table(t, "lessons"), Query{
		Where:   map[string]any{"course_id": course["id"]},
		OrderBy: "order_num",
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []any{"Intro", "Second", "Third"}, []any{got[0]["title"], got[1]["title"], got[2]["title"]})

	got, err = m.List(context.Background(), table(t, "lessons"), Query{OrderBy: "order_num", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, "Third", got[0]["title"])

	got, err = m.List(context.Background(), table(t, "lessons"), Query{Where: map[string]any{"course_id": "other"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}
