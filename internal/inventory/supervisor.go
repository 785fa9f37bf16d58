package inventory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// State is the connection supervisor's availability state.
type State int

const (
	// StateDisconnected is the initial state, before the first
	// successful connection.
	StateDisconnected State = iota

	// StateConnecting means a connection attempt is in flight.
	StateConnecting

	// StateConnected is the steady serving state.
	StateConnected

	// StateReconnecting means a connectivity failure was observed after
	// being Connected and the backoff schedule is running.
	StateReconnecting

	// StateSchemaIncompatible is degraded-terminal: the stored schema
	// version cannot be served by this build. Requires a restart against
	// a compatible build.
	StateSchemaIncompatible

	// StateMigrationFailed is degraded-terminal: schema creation or
	// migration raised an error. Requires operator intervention.
	StateMigrationFailed
)

var allStates = []State{
	StateDisconnected, StateConnecting, StateConnected,
	StateReconnecting, StateSchemaIncompatible, StateMigrationFailed,
}

// String returns the wire name of the state, as reported by health_check.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateReconnecting:
		return "Reconnecting"
	case StateSchemaIncompatible:
		return "SchemaIncompatible"
	case StateMigrationFailed:
		return "MigrationFailed"
	default:
		return "Unknown"
	}
}

// SupervisorConfig holds connection, pool and backoff settings.
type SupervisorConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration

	// AcquireTimeout bounds the wait for a pool slot when Connected.
	// In any other state Acquire fails immediately without waiting.
	AcquireTimeout time.Duration

	// ConnectTimeout bounds a single connect attempt (ping + schema).
	ConnectTimeout time.Duration

	BackoffBase time.Duration
	BackoffMax  time.Duration

	Logger  *slog.Logger
	Metrics *Metrics
}

func (c SupervisorConfig) withDefaults() SupervisorConfig {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 2 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Supervisor owns the lifecycle of the underlying connection pool, the
// current availability state, and the reconnection schedule. One
// instance per process; injected into the repository and the health
// reporter, never imported globally.
type Supervisor struct {
	cfg    SupervisorConfig
	log    *slog.Logger
	schema *SchemaManager

	mu            sync.Mutex
	state         State
	db            *sql.DB
	everConnected bool

	// retry wakes the run loop when a connectivity failure is reported
	// while Connected. Buffered so ReportFailure never blocks.
	retry chan struct{}
}

// NewSupervisor creates a supervisor in the Disconnected state. Call
// Run to start connecting.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	cfg = cfg.withDefaults()
	return &Supervisor{
		cfg:    cfg,
		log:    cfg.Logger,
		schema: NewSchemaManager(cfg.Logger),
		state:  StateDisconnected,
		retry:  make(chan struct{}, 1),
	}
}

// State returns the current availability state. Pure locked read; no
// caller ever observes a transitional half-state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Available reports whether data operations can currently be served.
func (s *Supervisor) Available() bool {
	return s.State() == StateConnected
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	if prev != state {
		s.log.Info("database state changed", "from", prev.String(), "to", state.String())
	}
	s.cfg.Metrics.recordState(state)
}

// Run drives the connection lifecycle until ctx is cancelled. It owns
// the backoff timer, so in-flight requests never wait on it: while not
// Connected they fail fast through Acquire.
func (s *Supervisor) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.BackoffBase
	bo.Multiplier = 2
	bo.MaxInterval = s.cfg.BackoffMax
	bo.RandomizationFactor = 0.2
	bo.Reset()

	for {
		if ctx.Err() != nil {
			s.teardown()
			return nil
		}

		s.setState(StateConnecting)
		s.cfg.Metrics.recordConnectAttempt()

		db, err := s.connect(ctx)
		switch {
		case err == nil:
			s.mu.Lock()
			s.db = db
			s.state = StateConnected
			s.everConnected = true
			s.mu.Unlock()
			s.cfg.Metrics.recordState(StateConnected)
			s.log.Info("database connected", "driver", s.cfg.Driver)
			bo.Reset()

			select {
			case <-ctx.Done():
				s.teardown()
				return nil
			case <-s.retry:
				// ReportFailure already moved the state to Reconnecting
				// and discarded the pool.
			}

		case errors.Is(err, ErrSchemaIncompatible):
			s.log.Error("schema incompatible; data operations disabled until restart", "err", err)
			s.setState(StateSchemaIncompatible)
			<-ctx.Done()
			return nil

		case errors.Is(err, ErrMigrationFailed):
			s.log.Error("schema migration failed; data operations disabled until restart", "err", err)
			s.setState(StateMigrationFailed)
			<-ctx.Done()
			return nil

		default:
			if ctx.Err() != nil {
				s.teardown()
				return nil
			}
			s.cfg.Metrics.recordConnectFailure()
			s.setState(s.idleState())
			wait := bo.NextBackOff()
			s.log.Warn("database connect failed", "err", err, "retry_in", wait.String())

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.teardown()
				return nil
			case <-timer.C:
			}
		}
	}
}

// idleState is the state shown while waiting out a backoff interval:
// Disconnected before the first successful connection, Reconnecting after.
func (s *Supervisor) idleState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.everConnected {
		return StateReconnecting
	}
	return StateDisconnected
}

func (s *Supervisor) connect(ctx context.Context) (*sql.DB, error) {
	db, err := openDB(s.cfg.Driver, s.cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(s.cfg.ConnMaxIdleTime)

	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(attemptCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.schema.Ensure(attemptCtx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Acquire hands out a pooled connection when Connected, waiting at most
// the configured acquire timeout for a pool slot. In every other state
// it fails immediately with the matching typed error — a single locked
// state read followed by a branch, never a queue.
//
// The caller owns the returned connection and must Close it to release
// the pool slot.
func (s *Supervisor) Acquire(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	state, db := s.state, s.db
	s.mu.Unlock()

	switch state {
	case StateConnected:
		// fall through to the pool
	case StateSchemaIncompatible:
		return nil, schemaIncompatiblef("stored schema version is not served by this build; restart against a compatible build")
	case StateMigrationFailed:
		return nil, migrationFailed(nil)
	default:
		return nil, unavailablef("database is %s", state)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, s.cfg.AcquireTimeout)
	defer cancel()

	conn, err := db.Conn(acquireCtx)
	if err != nil {
		// A context timeout here means pool exhaustion or caller
		// cancellation, not an outage; only hard failures count.
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			s.ReportFailure(err)
		}
		return nil, unavailablef("no database connection available within %s", s.cfg.AcquireTimeout)
	}
	return conn, nil
}

// ReportFailure is called by the repository after a failed operation.
// The supervisor, not the repository, decides whether the failure is a
// connectivity loss worth a transition to Reconnecting.
func (s *Supervisor) ReportFailure(err error) {
	if !isConnectivityError(err) {
		return
	}

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	s.state = StateReconnecting
	db := s.db
	s.db = nil
	s.mu.Unlock()

	s.cfg.Metrics.recordState(StateReconnecting)
	s.log.Warn("connectivity failure observed; reconnecting", "err", err)
	if db != nil {
		_ = db.Close()
	}

	select {
	case s.retry <- struct{}{}:
	default:
	}
}

func (s *Supervisor) teardown() {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.state = StateDisconnected
	s.mu.Unlock()
	s.cfg.Metrics.recordState(StateDisconnected)
	if db != nil {
		_ = db.Close()
	}
}

// isConnectivityError reports whether err indicates the backing store
// became unreachable, as opposed to a statement-level failure.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
		"unable to open database",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
