package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arkilian/fetchbench/pkg/types"
)

const insertCustomerSQL = `INSERT INTO customers (first_name, last_name) VALUES (?, ?) RETURNING id`

// entityKey addresses one managed instance in the identity map.
type entityKey struct {
	table string
	id    int64
}

// Session is the ordinary, tracked unit of work. Persisted customers are
// buffered until Flush; loaded entities are kept in an identity map until
// Clear. A Session is not safe for concurrent use.
type Session struct {
	store *Store
	tx    *sql.Tx

	pending  []*types.Customer
	identity map[entityKey]any

	insertStmt *sql.Stmt
}

// NewSession creates a session with an empty persistence context.
func (s *Store) NewSession() *Session {
	return &Session{
		store:    s,
		identity: make(map[entityKey]any),
	}
}

// Begin starts the session transaction.
func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("store: session transaction already active")
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	s.closeStmts()
	s.tx = tx
	return nil
}

// Commit commits the session transaction. Unflushed customers are not
// written; call Flush first.
func (s *Session) Commit() error {
	if s.tx == nil {
		return fmt.Errorf("store: no active transaction")
	}
	s.closeStmts()
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("store: failed to commit: %w", err)
	}
	return nil
}

// Rollback aborts the session transaction. It is a no-op without one, so it
// can be deferred unconditionally after Begin.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	s.closeStmts()
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("store: failed to roll back: %w", err)
	}
	return nil
}

// Persist schedules c for insertion. Its ID is assigned on Flush.
func (s *Session) Persist(c *types.Customer) {
	s.pending = append(s.pending, c)
}

// Flush writes every pending customer, assigns the generated identifiers
// and makes the customers managed.
func (s *Session) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	stmt, err := s.insertStatement(ctx)
	if err != nil {
		return err
	}
	for i, c := range s.pending {
		if err := stmt.QueryRowContext(ctx, c.FirstName, c.LastName).Scan(&c.ID); err != nil {
			// Keep the unwritten tail so the caller can inspect or retry it.
			s.pending = s.pending[i:]
			return fmt.Errorf("store: failed to insert customer: %w", err)
		}
		s.identity[entityKey{CustomersTable, c.ID}] = c
	}
	s.pending = s.pending[:0]
	return nil
}

// Clear detaches every managed entity and drops unflushed customers,
// releasing the memory held by the persistence context.
func (s *Session) Clear() {
	s.identity = make(map[entityKey]any)
	s.pending = nil
}

// Managed returns the number of entities in the identity map.
func (s *Session) Managed() int {
	return len(s.identity)
}

// Pending returns the number of customers waiting for Flush.
func (s *Session) Pending() int {
	return len(s.pending)
}

// attach returns the managed instance for (table, id), registering v when
// none exists yet.
func (s *Session) attach(table string, id int64, v any) any {
	key := entityKey{table, id}
	if existing, ok := s.identity[key]; ok {
		return existing
	}
	s.identity[key] = v
	return v
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.store.db
}

func (s *Session) insertStatement(ctx context.Context) (*sql.Stmt, error) {
	if s.insertStmt != nil {
		return s.insertStmt, nil
	}
	stmt, err := s.querier().PrepareContext(ctx, s.store.dialect.rebind(insertCustomerSQL))
	if err != nil {
		return nil, fmt.Errorf("store: failed to prepare insert statement: %w", err)
	}
	s.insertStmt = stmt
	return stmt, nil
}

func (s *Session) closeStmts() {
	if s.insertStmt != nil {
		s.insertStmt.Close()
		s.insertStmt = nil
	}
}
