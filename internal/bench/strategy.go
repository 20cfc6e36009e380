// Package bench times the full-table fetch strategies against a seeded store.
package bench

import (
	"context"
	"errors"
	"fmt"

	bencherrors "github.com/arkilian/fetchbench/internal/errors"
	"github.com/arkilian/fetchbench/internal/store"
	"github.com/arkilian/fetchbench/pkg/types"
)

// Strategy fetches every customer of the store once.
type Strategy interface {
	Name() types.StrategyName
	Fetch(ctx context.Context) ([]*types.Customer, error)
}

// CacheClearer is implemented by strategies that read through a tracked
// session, so the runner can empty its identity map before each trial.
type CacheClearer interface {
	ClearCache()
}

// tracked is embedded by the strategies bound to a tracked session.
type tracked struct {
	session *store.Session
}

func (t tracked) ClearCache() {
	t.session.Clear()
}

// MappedStrategy runs the aliased projection and maps each row onto a
// Customer by column name through store.CustomerBinder.
type MappedStrategy struct {
	tracked
	query string
}

// NewMappedStrategy binds the mapped projection strategy to a session.
func NewMappedStrategy(session *store.Session) *MappedStrategy {
	return &MappedStrategy{tracked: tracked{session}, query: store.CustomerMappedQuery}
}

func (s *MappedStrategy) Name() types.StrategyName { return types.StrategyMapped }

func (s *MappedStrategy) Fetch(ctx context.Context) ([]*types.Customer, error) {
	customers, err := store.QueryMapped(ctx, s.session, s.query, store.CustomerBinder)
	var unmapped *store.UnmappedColumnError
	if errors.As(err, &unmapped) {
		return nil, bencherrors.NewStoreError(bencherrors.CodeUnmappedColumn,
			fmt.Sprintf("column %q has no customer binding", unmapped.Column), err)
	}
	return customers, err
}

// TupleStrategy runs the projection and builds each Customer by hand from
// the positional column values.
type TupleStrategy struct {
	tracked
}

// NewTupleStrategy binds the raw tuple strategy to a session.
func NewTupleStrategy(session *store.Session) *TupleStrategy {
	return &TupleStrategy{tracked{session}}
}

func (s *TupleStrategy) Name() types.StrategyName { return types.StrategyTuple }

func (s *TupleStrategy) Fetch(ctx context.Context) ([]*types.Customer, error) {
	tuples, err := s.session.QueryTuples(ctx, store.CustomerTupleQuery)
	if err != nil {
		return nil, err
	}

	customers := make([]*types.Customer, 0, len(tuples))
	for _, row := range tuples {
		if len(row) != 3 {
			return nil, fmt.Errorf("bench: expected 3 columns per tuple, got %d", len(row))
		}
		id, err := store.AsInt64(row[0])
		if err != nil {
			return nil, err
		}
		first, err := store.AsString(row[1])
		if err != nil {
			return nil, err
		}
		last, err := store.AsString(row[2])
		if err != nil {
			return nil, err
		}
		customers = append(customers, &types.Customer{ID: id, FirstName: first, LastName: last})
	}
	return customers, nil
}

// RepositoryStrategy loads every customer through the generic repository,
// which attaches each one to the session's identity map.
type RepositoryStrategy struct {
	tracked
	repo *store.Repository[types.Customer]
}

// NewRepositoryStrategy binds the repository strategy to a session.
func NewRepositoryStrategy(session *store.Session) *RepositoryStrategy {
	return &RepositoryStrategy{
		tracked: tracked{session},
		repo:    store.NewRepository(session, store.CustomerEntity),
	}
}

func (s *RepositoryStrategy) Name() types.StrategyName { return types.StrategyRepository }

func (s *RepositoryStrategy) Fetch(ctx context.Context) ([]*types.Customer, error) {
	return s.repo.FindAll(ctx)
}

// StatelessStrategy streams every customer through a stateless session with
// its own connection and transaction. It never touches a tracked session.
type StatelessStrategy struct {
	store *store.Store
}

// NewStatelessStrategy creates the stateless cursor strategy.
func NewStatelessStrategy(s *store.Store) *StatelessStrategy {
	return &StatelessStrategy{store: s}
}

func (s *StatelessStrategy) Name() types.StrategyName { return types.StrategyStateless }

func (s *StatelessStrategy) Fetch(ctx context.Context) ([]*types.Customer, error) {
	ss, err := s.store.OpenStateless(ctx)
	if err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeSessionOpenFailed,
			"failed to open stateless session", err)
	}
	defer ss.Close()

	if err := ss.Begin(ctx); err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeSessionOpenFailed,
			"failed to begin stateless transaction", err)
	}

	cursor, err := ss.Scroll(ctx)
	if err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeQueryFailed, "failed to scroll customers", err)
	}
	defer cursor.Close()

	var customers []*types.Customer
	for cursor.Next() {
		customers = append(customers, cursor.Customer())
	}
	if err := cursor.Err(); err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeQueryFailed, "failed to scroll customers", err)
	}

	// The cursor must be drained and closed before the transaction ends.
	if err := cursor.Close(); err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeQueryFailed, "failed to close cursor", err)
	}
	if err := ss.Commit(); err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeQueryFailed, "failed to commit stateless read", err)
	}
	return customers, nil
}

// New creates the named strategy. Tracked strategies read through session;
// the stateless strategy only needs the store.
func New(name types.StrategyName, session *store.Session, s *store.Store) (Strategy, error) {
	switch name {
	case types.StrategyMapped:
		return NewMappedStrategy(session), nil
	case types.StrategyTuple:
		return NewTupleStrategy(session), nil
	case types.StrategyRepository:
		return NewRepositoryStrategy(session), nil
	case types.StrategyStateless:
		return NewStatelessStrategy(s), nil
	default:
		return nil, bencherrors.NewValidationError(bencherrors.CodeUnknownStrategy,
			fmt.Sprintf("unknown strategy %q", name))
	}
}
