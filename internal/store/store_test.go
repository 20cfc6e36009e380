package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/arkilian/fetchbench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.db")
	s, err := Open(context.Background(), Config{Driver: driver, DSN: SQLiteDSN(driver, path)})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedN inserts n customers named first-i / last-i in one transaction.
func seedN(t *testing.T, s *Store, n int) {
	t.Helper()
	ctx := context.Background()
	sess := s.NewSession()
	require.NoError(t, sess.Begin(ctx))
	for i := 0; i < n; i++ {
		sess.Persist(&types.Customer{FirstName: fmt.Sprintf("first-%d", i), LastName: fmt.Sprintf("last-%d", i)})
	}
	require.NoError(t, sess.Flush(ctx))
	require.NoError(t, sess.Commit())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverSQLite3})
	require.Error(t, err)
}

func TestStore_BothSQLiteDrivers(t *testing.T) {
	for _, driver := range []string{DriverSQLite3, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			seedN(t, s, 25)

			n, err := s.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 25, n)
			assert.Equal(t, driver, s.Driver())
		})
	}
}

func TestStore_Reset(t *testing.T) {
	s := openTestStore(t, DriverSQLite3)
	seedN(t, s, 10)
	require.NoError(t, s.Reset(context.Background()))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDialect_Rebind(t *testing.T) {
	pg := dialects[DriverPgx]
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", pg.rebind("INSERT INTO t (a, b) VALUES (?, ?)"))

	lite := dialects[DriverSQLite3]
	assert.Equal(t, "SELECT ? FROM t", lite.rebind("SELECT ? FROM t"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "/tmp/x.db?_journal_mode=WAL&_busy_timeout=5000", SQLiteDSN(DriverSQLite3, "/tmp/x.db"))
	assert.Equal(t, "file:/tmp/x.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", SQLiteDSN(DriverSQLite, "/tmp/x.db"))
}

func TestAsConversions(t *testing.T) {
	n, err := AsInt64([]byte("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = AsInt64(int32(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = AsInt64(3.5)
	assert.Error(t, err)

	str, err := AsString([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", str)

	_, err = AsString(int64(1))
	assert.Error(t, err)
}
