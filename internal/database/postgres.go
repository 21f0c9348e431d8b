package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres stores rows in the tables created by schema.sql.
type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// mapError translates driver errors into this package's sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
		case "22P02", "22007", "23502":
			return fmt.Errorf("%w: %s", ErrInvalidValue, pgErr.Message)
		}
	}
	return err
}

func columnList(t Table) string {
	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = pq.QuoteIdentifier(c.Name)
	}
	return strings.Join(quoted, ", ")
}

// arg converts a column value into a driver argument.
func arg(col Column, v any) any {
	switch col.Kind {
	case TextArray:
		s, _ := v.([]string)
		if s == nil {
			s = []string{}
		}
		return pq.Array(s)
	case JSON:
		raw, _ := v.(json.RawMessage)
		if raw == nil {
			return nil
		}
		return string(raw)
	}
	return v
}

// scanRow reads one row in column order and converts NULLs per kind.
func scanRow(t Table, sc interface{ Scan(...any) error }) (Row, error) {
	dest := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		switch c.Kind {
		case Text:
			dest[i] = new(sql.NullString)
		case Int:
			dest[i] = new(sql.NullInt64)
		case Bool:
			dest[i] = new(sql.NullBool)
		case Time:
			dest[i] = new(sql.NullTime)
		case TextArray:
			dest[i] = new(pq.StringArray)
		case JSON:
			dest[i] = new([]byte)
		}
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	r := make(Row, len(t.Columns))
	for i, c := range t.Columns {
		switch d := dest[i].(type) {
		case *sql.NullString:
			r[c.Name] = d.String
		case *sql.NullInt64:
			r[c.Name] = d.Int64
		case *sql.NullBool:
			r[c.Name] = d.Bool
		case *sql.NullTime:
			if d.Valid {
				r[c.Name] = d.Time
			} else {
				r[c.Name] = nil
			}
		case *pq.StringArray:
			if *d == nil {
				r[c.Name] = []string{}
			} else {
				r[c.Name] = []string(*d)
			}
		case *[]byte:
			if *d == nil {
				r[c.Name] = json.RawMessage("null")
			} else {
				r[c.Name] = json.RawMessage(slices.Clone(*d))
			}
		}
	}
	return r, nil
}

// where builds an AND of equality predicates in a stable column order.
func where(t Table, filters map[string]any, args []any) (string, []any) {
	if len(filters) == 0 {
		return "", args
	}
	var parts []string
	for _, c := range t.Columns {
		v, ok := filters[c.Name]
		if !ok {
			continue
		}
		if v == nil {
			parts = append(parts, pq.QuoteIdentifier(c.Name)+" IS NULL")
			continue
		}
		args = append(args, arg(c, v))
		parts = append(parts, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.Name), len(args)))
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func (p *Postgres) List(ctx context.Context, t Table, q Query) ([]Row, error) {
	clause, args := where(t, q.Where, nil)
	query := "SELECT " + columnList(t) + " FROM " + pq.QuoteIdentifier(t.Name) + clause
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		query += " ORDER BY " + pq.QuoteIdentifier(q.OrderBy) + " " + dir
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r, err := scanRow(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, mapError(rows.Err())
}

func (p *Postgres) Get(ctx context.Context, t Table, id string) (Row, error) {
	query := "SELECT " + columnList(t) + " FROM " + pq.QuoteIdentifier(t.Name) + " WHERE id = $1"
	r, err := scanRow(t, p.DB.QueryRowContext(ctx, query, id))
	return r, mapError(err)
}

func (p *Postgres) Insert(ctx context.Context, t Table, r Row) (Row, error) {
	var names, marks []string
	var args []any
	for _, c := range t.Columns {
		v, ok := r[c.Name]
		if !ok {
			continue
		}
		args = append(args, arg(c, v))
		names = append(names, pq.QuoteIdentifier(c.Name))
		marks = append(marks, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		pq.QuoteIdentifier(t.Name), strings.Join(names, ", "), strings.Join(marks, ", "), columnList(t))

	out, err := scanRow(t, p.DB.QueryRowContext(ctx, query, args...))
	return out, mapError(err)
}

func (p *Postgres) Update(ctx context.Context, t Table, id string, changes Row) (Row, error) {
	var sets []string
	var args []any
	for _, c := range t.Columns {
		v, ok := changes[c.Name]
		if !ok || c.Name == "id" {
			continue
		}
		args = append(args, arg(c, v))
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.Name), len(args)))
	}
	if len(sets) == 0 {
		return p.Get(ctx, t, id)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		pq.QuoteIdentifier(t.Name), strings.Join(sets, ", "), len(args), columnList(t))

	out, err := scanRow(t, p.DB.QueryRowContext(ctx, query, args...))
	return out, mapError(err)
}

// Delete relies on ON DELETE CASCADE in the schema for dependent rows.
func (p *Postgres) Delete(ctx context.Context, t Table, filters map[string]any) (int64, error) {
	clause, args := where(t, filters, nil)
	res, err := p.DB.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(t.Name)+clause, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (p *Postgres) Count(ctx context.Context, t Table) (int64, error) {
	var n int64
	err := p.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+pq.QuoteIdentifier(t.Name)).Scan(&n)
	return n, mapError(err)
}

func (p *Postgres) Close() error { return p.DB.Close() }
