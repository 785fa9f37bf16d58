// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds configuration knobs for the database core, the MCP
// server and the optional health sidecar.
type Config struct {
	DBDriver string
	DBDSN    string

	MaxOpenConns   int
	MaxIdleConns   int
	AcquireTimeout time.Duration
	ConnectTimeout time.Duration
	BackoffBase    time.Duration
	BackoffMax     time.Duration

	DefaultPageSize int
	MaxPageSize     int

	// HealthAddr enables the HTTP liveness/metrics sidecar when set
	// (e.g. ":8081"). Empty disables it; the health_check MCP tool is
	// always available regardless.
	HealthAddr string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

// SQLiteDSN builds a DSN for the bundled sqlite driver with the
// settings every pooled connection needs: immediate transactions so
// concurrent writers serialize at BEGIN, WAL journaling, a busy timeout
// covering writer contention, and enforced foreign keys.
func SQLiteDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		path,
	)
}

func defaultDSN() string {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".inventory-mcp")
	_ = os.MkdirAll(dir, 0700)
	return SQLiteDSN(filepath.Join(dir, "inventory.db"))
}

// Load collects configuration from environment with defaults.
func Load() Config {
	dsn := getenv("DB_DSN", "")
	if dsn == "" {
		dsn = defaultDSN()
	}
	return Config{
		DBDriver:        getenv("DB_DRIVER", "sqlite"),
		DBDSN:           dsn,
		MaxOpenConns:    atoienv("DB_MAX_OPEN_CONNS", 4),
		MaxIdleConns:    atoienv("DB_MAX_IDLE_CONNS", 4),
		AcquireTimeout:  durenvms("DB_ACQUIRE_TIMEOUT_MS", 2000),
		ConnectTimeout:  durenvms("DB_CONNECT_TIMEOUT_MS", 10000),
		BackoffBase:     durenvms("DB_BACKOFF_BASE_MS", 1000),
		BackoffMax:      durenvms("DB_BACKOFF_MAX_MS", 60000),
		DefaultPageSize: atoienv("PAGE_SIZE_DEFAULT", 20),
		MaxPageSize:     atoienv("PAGE_SIZE_MAX", 100),
		HealthAddr:      getenv("HEALTH_ADDR", ""),
	}
}
