package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nhle/todo/internal/model"
)

// Store owns the database handle. All reads and writes go through a
// transaction obtained from ReadTx or WriteTx.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database described by driver and dsn and runs any
// pending schema migrations.
//
// For sqlite, foreign keys and WAL mode are enabled on every connection,
// writers wait for each other (see sqliteDSN) and timestamps are written in
// a sortable text format. An in-memory sqlite
// database is limited to a single connection, otherwise each pooled
// connection would see its own empty database.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case model.DriverSQLite:
		dsn = sqliteDSN(dsn)
	case model.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q: %w", driver, model.ErrValidation)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driver, err)
	}
	if driver == model.DriverSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := New(db, driver)
	if err := s.runMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// New wraps an already opened handle without running migrations.
func New(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReadTx runs fn inside a transaction that is always rolled back.
func (s *Store) ReadTx(ctx context.Context, fn func(tx *Tx) error) error {
	// Only postgres honors READ ONLY; the sqlite driver rejects the option.
	opts := &sql.TxOptions{ReadOnly: s.driver == model.DriverPostgres}
	return s.withTx(ctx, opts, false, fn)
}

// WriteTx runs fn inside a transaction that is committed when fn returns
// nil and rolled back otherwise.
func (s *Store) WriteTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.withTx(ctx, nil, true, fn)
}

func (s *Store) withTx(
	ctx context.Context,
	opts *sql.TxOptions,
	commit bool,
	fn func(tx *Tx) error,
) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		// Reached on error and on panic.
		_ = sqlTx.Rollback()
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if !commit {
		done = true
		if err := sqlTx.Rollback(); err != nil {
			return fmt.Errorf("ending read transaction: %w", err)
		}
		return nil
	}

	done = true
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Tx is a transaction-scoped handle exposing row-level operations. It is
// only valid inside the callback that received it.
type Tx struct {
	tx *sqlx.Tx
}

func (t *Tx) rebind(query string) string {
	return t.tx.Rebind(query)
}
