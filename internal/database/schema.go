package database

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the storage type of a column.
type Kind int

const (
	Text Kind = iota
	Int
	Bool
	Time
	TextArray
	JSON
)

type generated int

const (
	// NewID fills a column with a random UUID.
	NewID generated = iota + 1
	// Now fills a column with the insert time.
	Now
)

type Column struct {
	Name     string
	Kind     Kind
	Required bool
	// Default is used on insert when the column is absent. NewID and Now are
	// computed per row; anything else is copied.
	Default any
	// Touch columns are set to the current time on every update.
	Touch bool
	// Filter marks columns usable in equality filters and ordering.
	Filter bool
}

// Reference is a foreign key whose rows are deleted with the parent.
type Reference struct {
	Column string
	Table  string
}

type Table struct {
	Name       string
	Columns    []Column
	Unique     [][]string
	References []Reference
}

// Row maps column names to values of type string, int64, bool, time.Time,
// []string, json.RawMessage or nil.
type Row map[string]any

func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var tables = []Table{
	{
		Name: "users",
		Columns: []Column{
			{Name: "id", Kind: Text, Default: NewID, Filter: true},
			{Name: "external_ref", Kind: Text, Required: true, Filter: true},
			{Name: "email", Kind: Text, Required: true, Filter: true},
			{Name: "name", Kind: Text, Required: true},
			{Name: "role", Kind: Text, Default: "student", Filter: true},
			{Name: "created_at", Kind: Time, Default: Now, Filter: true},
		},
		Unique: [][]string{{"external_ref"}},
	},
	{
		Name: "courses",
		Columns: []Column{
			{Name: "id", Kind: Text, Default: NewID, Filter: true},
			{Name: "title", Kind: Text, Required: true, Filter: true},
			{Name: "description", Kind: Text, Default: ""},
			{Name: "thumbnail", Kind: Text, Default: ""},
			{Name: "category", Kind: Text, Default: "", Filter: true},
			{Name: "prerequisites", Kind: TextArray, Default: []string{}},
			{Name: "duration", Kind: Text, Default: "0"},
			{Name: "level", Kind: Text, Default: "beginner", Filter: true},
			{Name: "instructor", Kind: Text, Default: "", Filter: true},
			{Name: "created_at", Kind: Time, Default: Now, Filter: true},
			{Name: "updated_at", Kind: Time, Default: Now, Touch: true, Filter: true},
		},
	},
	{
		Name: "lessons",
		Columns: []Column{
			{Name: "id", Kind: Text, Default: NewID, Filter: true},
			{Name: "course_id", Kind: Text, Required: true, Filter: true},
			{Name: "title", Kind: Text, Required: true},
			{Name: "description", Kind: Text, Default: ""},
			{Name: "order_num", Kind: Int, Required: true, Filter: true},
			{Name: "video_url", Kind: Text, Default: ""},
			{Name: "materials", Kind: JSON, Default: json.RawMessage("[]")},
			{Name: "duration", Kind: Text, Default: "0"},
			{Name: "type", Kind: Text, Default: "video", Filter: true},
			{Name: "created_at", Kind: Time, Default: Now, Filter: true},
		},
		Unique:     [][]string{{"course_id", "order_num"}},
		References: []Reference{{Column: "course_id", Table: "courses"}},
	},
	{
		Name: "enrollments",
		Columns: []Column{
			{Name: "id", Kind: Text, Default: NewID, Filter: true},
			{Name: "user_id", Kind: Text, Required: true, Filter: true},
			{Name: "course_id", Kind: Text, Required: true, Filter: true},
			{Name: "enrolled_at", Kind: Time, Default: Now, Filter: true},
			{Name: "status", Kind: Text, Default: "active", Filter: true},
			{Name: "completion_percentage", Kind: Int, Default: int64(0), Filter: true},
		},
		Unique: [][]string{{"user_id", "course_id"}},
		References: []Reference{
			{Column: "user_id", Table: "users"},
			{Column: "course_id", Table: "courses"},
		},
	},
	{
		Name: "progress",
		Columns: []Column{
			{Name: "id", Kind: Text, Default: NewID, Filter: true},
			{Name: "user_id", Kind: Text, Required: true, Filter: true},
			{Name: "course_id", Kind: Text, Required: true, Filter: true},
			{Name: "lesson_id", Kind: Text, Required: true, Filter: true},
			{Name: "completed", Kind: Bool, Default: false, Filter: true},
			{Name: "completed_at", Kind: Time},
			{Name: "last_accessed_at", Kind: Time, Default: Now, Filter: true},
		},
		Unique: [][]string{{"user_id", "lesson_id"}},
		References: []Reference{
			{Column: "user_id", Table: "users"},
			{Column: "course_id", Table: "courses"},
			{Column: "lesson_id", Table: "lessons"},
		},
	},
}

// Lookup returns the table definition by name.
func Lookup(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Tables lists every table in dependency order.
func Tables() []Table { return slices.Clone(tables) }

// Coerce converts decoded JSON values into column values. Unknown columns are
// rejected; with partial unset, required columns must be present.
func (t Table) Coerce(in map[string]any, partial bool) (Row, error) {
	out := make(Row, len(in))
	for name, raw := range in {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no column %q", ErrInvalidValue, t.Name, name)
		}
		v, err := coerce(col, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	if !partial {
		for _, col := range t.Columns {
			if col.Required && out[col.Name] == nil {
				return nil, fmt.Errorf("%w: %s.%s is required", ErrInvalidValue, t.Name, col.Name)
			}
		}
	}
	return out, nil
}

// WithDefaults fills absent columns for an insert.
func (t Table) WithDefaults(r Row, now time.Time) Row {
	out := make(Row, len(t.Columns))
	for k, v := range r {
		out[k] = v
	}
	for _, col := range t.Columns {
		if _, ok := out[col.Name]; ok {
			continue
		}
		switch d := col.Default.(type) {
		case nil:
			out[col.Name] = nil
		case generated:
			if d == NewID {
				out[col.Name] = uuid.NewString()
			} else {
				out[col.Name] = now
			}
		case []string:
			out[col.Name] = slices.Clone(d)
		default:
			out[col.Name] = d
		}
	}
	return out
}

// Touched adds the update timestamp to a change set.
func (t Table) Touched(changes Row, now time.Time) Row {
	out := make(Row, len(changes)+1)
	for k, v := range changes {
		out[k] = v
	}
	for _, col := range t.Columns {
		if col.Touch {
			out[col.Name] = now
		}
	}
	return out
}

// ParseFilter reads a query-string value for an equality filter.
func (t Table) ParseFilter(name, raw string) (any, error) {
	col, ok := t.Column(name)
	if !ok || !col.Filter {
		return nil, fmt.Errorf("%w: cannot filter %s by %q", ErrInvalidValue, t.Name, name)
	}
	return coerce(col, raw)
}

// ParseOrder reads "column.asc" or "column.desc".
func (t Table) ParseOrder(raw string) (string, bool, error) {
	name, dir, _ := strings.Cut(raw, ".")
	col, ok := t.Column(name)
	if !ok || !col.Filter {
		return "", false, fmt.Errorf("%w: cannot order %s by %q", ErrInvalidValue, t.Name, name)
	}
	switch dir {
	case "", "asc":
		return col.Name, false, nil
	case "desc":
		return col.Name, true, nil
	}
	return "", false, fmt.Errorf("%w: bad order direction %q", ErrInvalidValue, dir)
}

func coerce(col Column, raw any) (any, error) {
	bad := func() error {
		return fmt.Errorf("%w: column %s got %T", ErrInvalidValue, col.Name, raw)
	}
	if raw == nil {
		if col.Required {
			return nil, fmt.Errorf("%w: column %s cannot be null", ErrInvalidValue, col.Name)
		}
		switch col.Kind {
		case Time:
			return nil, nil
		case TextArray:
			return []string{}, nil
		case JSON:
			return json.RawMessage("null"), nil
		}
		return nil, bad()
	}

	switch col.Kind {
	case Text:
		switch v := raw.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	case Int:
		switch v := raw.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, nil
			}
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, nil
			}
		}
	case Bool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
	case Time:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
				return ts, nil
			}
		}
	case TextArray:
		switch v := raw.(type) {
		case []string:
			return slices.Clone(v), nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, bad()
				}
				out = append(out, s)
			}
			return out, nil
		}
	case JSON:
		if v, ok := raw.(json.RawMessage); ok {
			return v, nil
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, bad()
		}
		return json.RawMessage(b), nil
	}
	return nil, bad()
}
