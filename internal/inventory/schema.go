package inventory

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// SchemaVersion is the structural revision of the store this build
// expects. Bump it together with a new entry in migrations.
const SchemaVersion = 2

// schemaDDL is the full current-version schema. Creation is idempotent:
// running it against an already-correct store is safe.
const schemaDDL = `
	CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL UNIQUE,
		description TEXT    NOT NULL DEFAULT '',
		inventory   INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
		price       TEXT    NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS orders (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		reference   TEXT    NOT NULL DEFAULT '',
		product_id  INTEGER NOT NULL,
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		customer_id TEXT    NOT NULL,
		created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_orders_product ON orders(product_id);
	CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC);
`

// migrations maps a target version to the statements that bring a store
// at version-1 up to it. Applied in order inside one transaction.
var migrations = map[int]string{
	// v1 stores predate order references.
	2: `ALTER TABLE orders ADD COLUMN reference TEXT NOT NULL DEFAULT ''`,
}

// SchemaManager verifies and establishes schema compatibility. It runs
// once per connect attempt, before the supervisor declares Connected.
type SchemaManager struct {
	log *slog.Logger
}

// NewSchemaManager creates a SchemaManager.
func NewSchemaManager(log *slog.Logger) *SchemaManager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SchemaManager{log: log}
}

// Ensure makes the store serveable by this build or reports why it
// cannot. Outcomes are distinct on purpose: a raw error means the
// attempt can simply be retried (connectivity), ErrMigrationFailed
// means an operator should look at the store, and ErrSchemaIncompatible
// means the build and the store disagree on versions and no amount of
// retrying will fix it.
func (m *SchemaManager) Ensure(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
	); err != nil {
		return err
	}

	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		version = 0
	case err != nil:
		return err
	}

	switch {
	case version == SchemaVersion:
		return nil
	case version == 0:
		return m.create(ctx, db)
	case version < SchemaVersion:
		return m.migrate(ctx, db, version)
	default:
		return schemaIncompatiblef(
			"stored schema version %d is newer than the expected %d", version, SchemaVersion)
	}
}

// create builds a fresh store at the current version and stamps it.
func (m *SchemaManager) create(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return migrationFailed(err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion,
	); err != nil {
		return migrationFailed(err)
	}
	if err := tx.Commit(); err != nil {
		return migrationFailed(err)
	}

	m.log.Info("schema created", "version", SchemaVersion)
	return nil
}

// migrate brings an older store up to the current version. The whole
// path is validated before anything mutates, so a hole in the migration
// chain is reported as incompatibility with the store untouched.
func (m *SchemaManager) migrate(ctx context.Context, db *sql.DB, from int) error {
	for v := from + 1; v <= SchemaVersion; v++ {
		if _, ok := migrations[v]; !ok {
			return schemaIncompatiblef(
				"no migration path from stored schema version %d to %d", from, SchemaVersion)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for v := from + 1; v <= SchemaVersion; v++ {
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			return migrationFailed(err)
		}
		m.log.Info("schema migration applied", "to_version", v)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE schema_version SET version = ?`, SchemaVersion); err != nil {
		return migrationFailed(err)
	}
	if err := tx.Commit(); err != nil {
		return migrationFailed(err)
	}

	m.log.Info("schema migrated", "from", from, "to", SchemaVersion)
	return nil
}
