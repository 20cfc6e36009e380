package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arkilian/fetchbench/pkg/types"
)

// Projection queries used by the fetch strategies. Aliases are quoted so
// PostgreSQL keeps their case.
const (
	CustomerTupleQuery  = `SELECT id, first_name, last_name FROM customers`
	CustomerMappedQuery = `SELECT id AS "id", first_name AS "firstName", last_name AS "lastName" FROM customers`
)

// Binder maps result column names onto setters of T. It replaces
// name-based reflection with an explicit table: a column without a setter
// is an error, never a silently dropped value.
type Binder[T any] map[string]func(dst *T, v any) error

// CustomerBinder binds the aliased customer projection onto types.Customer.
var CustomerBinder = Binder[types.Customer]{
	"id": func(c *types.Customer, v any) (err error) {
		c.ID, err = AsInt64(v)
		return err
	},
	"firstName": func(c *types.Customer, v any) (err error) {
		c.FirstName, err = AsString(v)
		return err
	},
	"lastName": func(c *types.Customer, v any) (err error) {
		c.LastName, err = AsString(v)
		return err
	},
}

// QueryTuples runs query inside the session and returns every row as a
// positional tuple of column values.
func (s *Session) QueryTuples(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := s.querier().QueryContext(ctx, s.store.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: failed to read columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		tuple := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range tuple {
			ptrs[i] = &tuple[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("store: failed to scan row: %w", err)
		}
		out = append(out, tuple)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: row iteration failed: %w", err)
	}
	return out, nil
}

// QueryMapped runs query inside the session and maps each row onto a new T
// by matching result column names against binder. Mapped values are plain
// DTOs and are not attached to the identity map.
func QueryMapped[T any](ctx context.Context, s *Session, query string, binder Binder[T], args ...any) ([]*T, error) {
	rows, err := s.querier().QueryContext(ctx, s.store.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: failed to read columns: %w", err)
	}

	// Resolve setters once per query, not once per row.
	setters := make([]func(*T, any) error, len(cols))
	for i, col := range cols {
		set, ok := binder[col]
		if !ok {
			return nil, &UnmappedColumnError{Column: col}
		}
		setters[i] = set
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var out []*T
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("store: failed to scan row: %w", err)
		}
		dst := new(T)
		for i, set := range setters {
			if err := set(dst, values[i]); err != nil {
				return nil, fmt.Errorf("store: column %q: %w", cols[i], err)
			}
		}
		out = append(out, dst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: row iteration failed: %w", err)
	}
	return out, nil
}

// UnmappedColumnError reports a result column the binder has no setter for.
type UnmappedColumnError struct {
	Column string
}

func (e *UnmappedColumnError) Error() string {
	return fmt.Sprintf("store: no binding for column %q", e.Column)
}

// AsInt64 converts a driver value into an int64.
func AsInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

// AsString converts a driver value into a string.
func AsString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}
