package database

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory keeps every table in process. It backs tests and ROWS_BACKEND=memory.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]Row)}
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		switch x := v.(type) {
		case []string:
			out[k] = slices.Clone(x)
		case json.RawMessage:
			out[k] = slices.Clone(x)
		default:
			out[k] = v
		}
	}
	return out
}

// compare orders two values of a filterable column; nil sorts first.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func matches(r Row, where map[string]any) bool {
	for k, v := range where {
		if compare(r[k], v) != 0 {
			return false
		}
	}
	return true
}

func (m *Memory) List(_ context.Context, t Table, q Query) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Row{}
	for _, r := range m.tables[t.Name] {
		if matches(r, q.Where) {
			out = append(out, cloneRow(r))
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][q.OrderBy], out[j][q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, t Table, id string) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(t.Name, id); i >= 0 {
		return cloneRow(m.tables[t.Name][i]), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) indexOf(table, id string) int {
	for i, r := range m.tables[table] {
		if r["id"] == id {
			return i
		}
	}
	return -1
}

// check enforces uniqueness and references for candidate, ignoring the row at skip.
func (m *Memory) check(t Table, candidate Row, skip int) error {
	if j := m.indexOf(t.Name, fmt.Sprint(candidate["id"])); j >= 0 && j != skip {
		return fmt.Errorf("%w: %s.id", ErrUniqueViolation, t.Name)
	}
	for _, cols := range t.Unique {
		for i, r := range m.tables[t.Name] {
			if i == skip {
				continue
			}
			same := true
			for _, c := range cols {
				if compare(r[c], candidate[c]) != 0 {
					same = false
					break
				}
			}
			if same {
				return fmt.Errorf("%w: %s(%s)", ErrUniqueViolation, t.Name, strings.Join(cols, ", "))
			}
		}
	}
	for _, ref := range t.References {
		v, ok := candidate[ref.Column].(string)
		if !ok {
			continue
		}
		if m.indexOf(ref.Table, v) < 0 {
			return fmt.Errorf("%w: %s.%s references missing %s %s", ErrForeignKey, t.Name, ref.Column, ref.Table, v)
		}
	}
	return nil
}

func (m *Memory) Insert(_ context.Context, t Table, r Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(t, r, -1); err != nil {
		return nil, err
	}
	m.tables[t.Name] = append(m.tables[t.Name], cloneRow(r))
	return cloneRow(r), nil
}

func (m *Memory) Update(_ context.Context, t Table, id string, changes Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(t.Name, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	next := cloneRow(m.tables[t.Name][i])
	for k, v := range changes {
		next[k] = v
	}
	next["id"] = id
	if err := m.check(t, next, i); err != nil {
		return nil, err
	}
	m.tables[t.Name][i] = next
	return cloneRow(next), nil
}

func (m *Memory) Delete(_ context.Context, t Table, where map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteWhere(t.Name, func(r Row) bool { return matches(r, where) }), nil
}

// deleteWhere removes matching rows and then every row referencing them.
func (m *Memory) deleteWhere(table string, pred func(Row) bool) int64 {
	var kept []Row
	removed := map[string]bool{}
	for _, r := range m.tables[table] {
		if pred(r) {
			removed[fmt.Sprint(r["id"])] = true
			continue
		}
		kept = append(kept, r)
	}
	if len(removed) == 0 {
		return 0
	}
	m.tables[table] = kept

	for _, child := range tables {
		for _, ref := range child.References {
			if ref.Table != table {
				continue
			}
			col := ref.Column
			m.deleteWhere(child.Name, func(r Row) bool {
				v, ok := r[col].(string)
				return ok && removed[v]
			})
		}
	}
	return int64(len(removed))
}

func (m *Memory) Count(_ context.Context, t Table) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.tables[t.Name])), nil
}

func (m *Memory) Close() error { return nil }
