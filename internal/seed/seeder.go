// Package seed populates the backing store with synthetic customers.
package seed

import (
	"context"
	"fmt"
	"log"

	bencherrors "github.com/arkilian/fetchbench/internal/errors"
	"github.com/arkilian/fetchbench/internal/store"
	"github.com/arkilian/fetchbench/pkg/types"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of customers buffered between flushes.
const DefaultBatchSize = 1000

// TokenSource returns a random token for a customer name field.
type TokenSource func() string

// UUIDTokens renders a random (version 4) UUID in canonical form.
func UUIDTokens() string {
	return uuid.NewString()
}

// ProgressFunc is called at every batch boundary with the number of
// customers persisted so far.
type ProgressFunc func(done, total int)

// Config holds seeder configuration.
type Config struct {
	// BatchSize is the number of customers buffered before flush and clear (default: 1000)
	BatchSize int

	// Tokens generates first and last names (default: UUIDTokens)
	Tokens TokenSource

	// Progress is notified at each batch boundary (optional)
	Progress ProgressFunc

	// Quiet suppresses the per-batch progress log line
	Quiet bool
}

// DefaultConfig returns the default seeder configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize: DefaultBatchSize,
		Tokens:    UUIDTokens,
	}
}

// Seeder writes synthetic customers through a tracked session.
type Seeder struct {
	store  *store.Store
	config Config
}

// NewSeeder creates a seeder for s.
func NewSeeder(s *store.Store, config Config) *Seeder {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Tokens == nil {
		config.Tokens = UUIDTokens
	}
	return &Seeder{store: s, config: config}
}

// Seed inserts count customers in a single transaction. Every BatchSize
// customers the session is flushed and cleared so that at most one batch of
// tracked state is held in memory. Any rejected write rolls the whole
// transaction back. Seed is not idempotent: calling it twice doubles the
// dataset.
func (s *Seeder) Seed(ctx context.Context, count int) error {
	if count <= 0 {
		return bencherrors.NewValidationError(bencherrors.CodeInvalidCount,
			fmt.Sprintf("customer count must be positive, got %d", count))
	}

	log.Printf("Seeder: loading %d customer records (batch size %d)", count, s.config.BatchSize)

	sess := s.store.NewSession()
	if err := sess.Begin(ctx); err != nil {
		return bencherrors.NewSeedError(bencherrors.CodeWriteRejected, "failed to start seeding transaction", err)
	}
	defer sess.Rollback()

	for i := 1; i <= count; i++ {
		sess.Persist(&types.Customer{
			FirstName: s.config.Tokens(),
			LastName:  s.config.Tokens(),
		})

		if i%s.config.BatchSize == 0 {
			if err := s.flushBatch(ctx, sess, i); err != nil {
				return err
			}
			s.reportProgress(i, count)
		}
	}

	// The last partial batch, if any.
	if err := sess.Flush(ctx); err != nil {
		return s.rejected(count, err)
	}
	sess.Clear()

	if err := sess.Commit(); err != nil {
		return s.rejected(count, err)
	}
	if count%s.config.BatchSize != 0 {
		s.reportProgress(count, count)
	}
	return nil
}

func (s *Seeder) flushBatch(ctx context.Context, sess *store.Session, done int) error {
	if err := sess.Flush(ctx); err != nil {
		return s.rejected(done, err)
	}
	sess.Clear()
	return nil
}

func (s *Seeder) reportProgress(done, total int) {
	if !s.config.Quiet {
		log.Printf("Seeder: loaded customer %d of %d", done, total)
	}
	if s.config.Progress != nil {
		s.config.Progress(done, total)
	}
}

func (s *Seeder) rejected(at int, cause error) error {
	return bencherrors.NewSeedError(bencherrors.CodeWriteRejected, "backing store rejected seed write", cause).
		WithDetails(map[string]interface{}{"at": at})
}
