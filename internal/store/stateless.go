package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arkilian/fetchbench/pkg/types"
)

// StatelessSession is a read handle that bypasses the persistence context:
// no identity map, no write-behind, no caching. It owns a dedicated
// connection and its own transaction, both released by Close.
type StatelessSession struct {
	store  *Store
	conn   *sql.Conn
	tx     *sql.Tx
	closed bool
}

// OpenStateless acquires a dedicated connection for a stateless session.
func (s *Store) OpenStateless(ctx context.Context) (*StatelessSession, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: failed to acquire connection: %w", err)
	}
	return &StatelessSession{store: s, conn: conn}, nil
}

// Begin starts the session's own transaction.
func (ss *StatelessSession) Begin(ctx context.Context) error {
	if ss.closed {
		return fmt.Errorf("store: stateless session is closed")
	}
	if ss.tx != nil {
		return fmt.Errorf("store: stateless transaction already active")
	}
	tx, err := ss.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: ss.store.driver == DriverPgx})
	if err != nil {
		return fmt.Errorf("store: failed to begin stateless transaction: %w", err)
	}
	ss.tx = tx
	return nil
}

// Commit commits the session's transaction.
func (ss *StatelessSession) Commit() error {
	if ss.tx == nil {
		return fmt.Errorf("store: no active stateless transaction")
	}
	err := ss.tx.Commit()
	ss.tx = nil
	if err != nil {
		return fmt.Errorf("store: failed to commit stateless transaction: %w", err)
	}
	return nil
}

// Close rolls back any uncommitted transaction and returns the connection
// to the pool. Close is idempotent.
func (ss *StatelessSession) Close() error {
	if ss.closed {
		return nil
	}
	ss.closed = true
	if ss.tx != nil {
		ss.tx.Rollback()
		ss.tx = nil
	}
	return ss.conn.Close()
}

// Scroll opens a forward-only cursor over every customer.
func (ss *StatelessSession) Scroll(ctx context.Context) (*Cursor, error) {
	if ss.tx == nil {
		return nil, fmt.Errorf("store: scroll requires an active stateless transaction")
	}
	rows, err := ss.tx.QueryContext(ctx, CustomerTupleQuery)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open cursor: %w", err)
	}
	return &Cursor{rows: rows}, nil
}

// Cursor is a forward-only iterator that buffers a single row.
type Cursor struct {
	rows *sql.Rows
	cur  types.Customer
	err  error
}

// Next advances to the next row, reporting false at the end or on error.
func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	if err := c.rows.Scan(&c.cur.ID, &c.cur.FirstName, &c.cur.LastName); err != nil {
		c.err = fmt.Errorf("store: failed to scan cursor row: %w", err)
		return false
	}
	return true
}

// Customer returns a detached copy of the current row.
func (c *Cursor) Customer() *types.Customer {
	return c.cur.Clone()
}

// Err returns the first error met while iterating.
func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("store: cursor iteration failed: %w", err)
	}
	return nil
}

// Close releases the cursor. It is safe to call more than once.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
