package inventory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rh-ai-quickstart/inventory-mcp/internal/config"
)

// swapOpenDB replaces the package-level opener for the duration of the
// test. Tests using it must not run in parallel.
func swapOpenDB(t *testing.T, fn func(driver, dsn string) (*sql.DB, error)) {
	t.Helper()
	orig := openDB
	openDB = fn
	t.Cleanup(func() { openDB = orig })
}

func TestColdStartWithoutDatabase(t *testing.T) {
	swapOpenDB(t, func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("dial tcp 10.0.0.1:5432: connection refused")
	})

	sup := startSupervisor(t, "unreachable")

	// The process is up; the supervisor never leaves the pre-connection
	// states.
	require.Eventually(t, func() bool {
		s := sup.State()
		return s == StateDisconnected || s == StateConnecting
	}, time.Second, 5*time.Millisecond)

	// Data operations fail fast with a typed error, never hang.
	start := time.Now()
	_, err := sup.Acquire(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrDatabaseUnavailable)
	assert.Less(t, elapsed, 500*time.Millisecond, "Acquire must not wait on the backoff timer")

	status := NewHealthReporter(sup).Check()
	assert.Equal(t, "up", status.ServiceStatus)
	assert.False(t, status.DatabaseAvailable)
	assert.Contains(t, []string{"Disconnected", "Connecting"}, status.DatabaseStatus)
}

func TestRecoveryAfterDatabaseComesBack(t *testing.T) {
	var reachable atomic.Bool
	swapOpenDB(t, func(driverName, dsn string) (*sql.DB, error) {
		if !reachable.Load() {
			return nil, errors.New("connection refused")
		}
		return sql.Open(driverName, dsn)
	})

	sup := startSupervisor(t, testDSN(t))

	_, err := sup.Acquire(context.Background())
	require.ErrorIs(t, err, ErrDatabaseUnavailable)

	reachable.Store(true)

	// Backoff base is 10ms with a 100ms cap, so Connected arrives well
	// within the window.
	require.Eventually(t, sup.Available, 5*time.Second, 10*time.Millisecond)

	store := NewStore(sup, StoreConfig{})
	p := mustAddProduct(t, store, "Widget", 1, "1")
	assert.Equal(t, int64(1), p.ID)
}

func TestReportFailureTriggersReconnect(t *testing.T) {
	sup := startSupervisor(t, testDSN(t))
	require.Eventually(t, sup.Available, 5*time.Second, 10*time.Millisecond)

	sup.ReportFailure(io.EOF)

	// The supervisor reconnects on its own schedule.
	require.Eventually(t, sup.Available, 5*time.Second, 10*time.Millisecond)

	_, err := sup.Acquire(context.Background())
	require.NoError(t, err)
}

func TestReportFailureIgnoresStatementErrors(t *testing.T) {
	sup := startSupervisor(t, testDSN(t))
	require.Eventually(t, sup.Available, 5*time.Second, 10*time.Millisecond)

	sup.ReportFailure(errors.New(`near "SELEC": syntax error`))

	assert.Equal(t, StateConnected, sup.State(),
		"a statement-level failure must not tear down the connection")
}

func TestSchemaIncompatibleIsSticky(t *testing.T) {
	dsn := config.SQLiteDSN(filepath.Join(t.TempDir(), "inventory.db"))

	// Stamp a schema version from the future.
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_version (version INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	sup := startSupervisor(t, dsn)

	require.Eventually(t, func() bool {
		return sup.State() == StateSchemaIncompatible
	}, 5*time.Second, 10*time.Millisecond)

	_, err = sup.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrSchemaIncompatible)

	// Sticky: no amount of waiting re-enters the connect loop.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateSchemaIncompatible, sup.State())

	_, err = sup.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrSchemaIncompatible)

	status := NewHealthReporter(sup).Check()
	assert.Equal(t, "up", status.ServiceStatus)
	assert.False(t, status.DatabaseAvailable)
	assert.Equal(t, "SchemaIncompatible", status.DatabaseStatus)
}

func TestShutdownCancelsBackoffWait(t *testing.T) {
	swapOpenDB(t, func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("connection refused")
	})

	sup := NewSupervisor(SupervisorConfig{
		Driver:      "sqlite",
		DSN:         "unreachable",
		BackoffBase: 10 * time.Second, // would block shutdown if waited out
		BackoffMax:  10 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(50 * time.Millisecond) // let the first attempt fail
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after cancellation")
	}
}

func TestIsConnectivityError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", sql.ErrConnDone, true},
		{"eof", io.EOF, true},
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"reset", errors.New("read: connection reset by peer"), true},
		{"closed db", errors.New("sql: database is closed"), true},
		{"syntax error", errors.New(`near "SELEC": syntax error`), false},
		{"constraint", errors.New("UNIQUE constraint failed: products.name"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isConnectivityError(tc.err))
		})
	}
}

func TestAcquireTimeoutBoundsPoolWait(t *testing.T) {
	sup := NewSupervisor(SupervisorConfig{
		Driver:         "sqlite",
		DSN:            testDSN(t),
		MaxOpenConns:   1,
		AcquireTimeout: 50 * time.Millisecond,
		BackoffBase:    10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() { cancel(); <-done })
	require.Eventually(t, sup.Available, 5*time.Second, 10*time.Millisecond)

	// Hold the single pool slot.
	held, err := sup.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = held.Close() }()

	start := time.Now()
	_, err = sup.Acquire(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrDatabaseUnavailable)
	assert.Less(t, elapsed, time.Second)
	// Pool exhaustion is not an outage.
	assert.Equal(t, StateConnected, sup.State())
}
