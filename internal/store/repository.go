package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/arkilian/fetchbench/pkg/types"
)

// Entity describes how a record type is stored in a table.
type Entity[T any] struct {
	// Table is the backing table name
	Table string

	// Columns lists the selected columns; the first is the identifier
	Columns []string

	// Scan reads one row into a new T
	Scan func(rows *sql.Rows) (*T, error)

	// ID returns the identifier of a loaded T
	ID func(*T) int64
}

// CustomerEntity maps types.Customer onto the customers table.
var CustomerEntity = Entity[types.Customer]{
	Table:   CustomersTable,
	Columns: []string{"id", "first_name", "last_name"},
	Scan: func(rows *sql.Rows) (*types.Customer, error) {
		c := new(types.Customer)
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName); err != nil {
			return nil, err
		}
		return c, nil
	},
	ID: func(c *types.Customer) int64 { return c.ID },
}

// Repository provides generic whole-table access for an entity type through
// a tracked Session. Loaded instances are managed: a row whose identifier is
// already in the identity map resolves to the existing instance.
type Repository[T any] struct {
	session *Session
	entity  Entity[T]
	query   string
}

// NewRepository creates a repository for entity bound to session.
func NewRepository[T any](session *Session, entity Entity[T]) *Repository[T] {
	return &Repository[T]{
		session: session,
		entity:  entity,
		query:   fmt.Sprintf("SELECT %s FROM %s", strings.Join(entity.Columns, ", "), entity.Table),
	}
}

// FindAll loads every row of the entity table.
func (r *Repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	rows, err := r.session.querier().QueryContext(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query %s: %w", r.entity.Table, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		loaded, err := r.entity.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan %s row: %w", r.entity.Table, err)
		}
		managed := r.session.attach(r.entity.Table, r.entity.ID(loaded), loaded).(*T)
		out = append(out, managed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: row iteration failed: %w", err)
	}
	return out, nil
}

// Count returns the number of rows in the entity table.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.session.querier().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.entity.Table).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: failed to count %s: %w", r.entity.Table, err)
	}
	return n, nil
}
