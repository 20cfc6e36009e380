// Package lifecycle releases the resources of a run in reverse order of
// acquisition.
package lifecycle

import (
	"errors"
	"io"
	"sync"
)

// Closers collects resources to release when a run ends.
type Closers struct {
	mu      sync.Mutex
	closers []io.Closer
	closed  bool
}

// RegisterCloser adds a closer. Closers are called in reverse order of
// registration (LIFO). Registering after Close closes c immediately.
func (c *Closers) RegisterCloser(closer io.Closer) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return closer.Close()
	}
	c.closers = append(c.closers, closer)
	c.mu.Unlock()
	return nil
}

// RegisterFunc adds a function as a closer.
func (c *Closers) RegisterFunc(fn func() error) error {
	return c.RegisterCloser(CloserFunc(fn))
}

// Close closes every registered closer once, returning all their errors joined.
func (c *Closers) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of closers waiting to be closed.
func (c *Closers) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.closers)
}

// CloserFunc is an adapter to allow ordinary functions to be used as io.Closer.
type CloserFunc func() error

// Close calls the underlying function.
func (f CloserFunc) Close() error {
	return f()
}
