package database

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("row not found")
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrForeignKey      = errors.New("foreign key violated")
	ErrInvalidValue    = errors.New("invalid column value")
)

// Query selects rows by column equality.
type Query struct {
	Where   map[string]any
	OrderBy string
	Desc    bool
}

// Rows is the storage engine behind the row API. Implementations enforce the
// table's unique constraints and delete referencing rows with their parent.
type Rows interface {
	List(ctx context.Context, t Table, q Query) ([]Row, error)
	Get(ctx context.Context, t Table, id string) (Row, error)
	// Insert expects defaults already applied.
	Insert(ctx context.Context, t Table, r Row) (Row, error)
	Update(ctx context.Context, t Table, id string, changes Row) (Row, error)
	Delete(ctx context.Context, t Table, where map[string]any) (int64, error)
	Count(ctx context.Context, t Table) (int64, error)
	Close() error
}
