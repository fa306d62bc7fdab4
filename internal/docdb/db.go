// ABOUTME: Document database handle backed by SQLite
// ABOUTME: Opens the database, applies pragmas, creates collections and runs transactions

package docdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is an open document database.
type DB struct {
	sql        *sql.DB
	mapper     *Mapper
	descriptor Descriptor
	logger     *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures Open.
type Option func(*DB)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Open opens the database named by descriptor. Parent directories of file
// databases are created if needed.
func Open(descriptor string, mapper *Mapper, opts ...Option) (*DB, error) {
	d, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	if mapper == nil {
		return nil, ErrNoMapper
	}

	db := &DB{
		mapper:     mapper,
		descriptor: d,
		logger:     slog.Default(),
		ensured:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.logger = db.logger.With("component", "docdb")

	if !d.InMemory() {
		if err := os.MkdirAll(filepath.Dir(d.Filename), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open(d.Driver, d.Filename)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// only lives as long as its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := applyPragmas(sqlDB, d); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("applying pragmas: %w", err)
	}

	db.sql = sqlDB
	db.logger.Info("document database opened", "filename", d.Filename, "driver", d.Driver)
	return db, nil
}

func applyPragmas(db *sql.DB, d Descriptor) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", d.BusyTimeout.Milliseconds()),
	}
	if !d.InMemory() {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	return nil
}

// Mapper returns the schema registry the database was opened with.
func (db *DB) Mapper() *Mapper { return db.mapper }

// Descriptor returns the parsed connection descriptor.
func (db *DB) Descriptor() Descriptor { return db.descriptor }

// Close releases the database. Later calls return the first result.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		db.closed.Store(true)
		db.closeErr = db.sql.Close()
		db.logger.Info("document database closed", "filename", db.descriptor.Filename)
	})
	return db.closeErr
}

// Closed reports whether Close has been called.
func (db *DB) Closed() bool { return db.closed.Load() }

func (db *DB) checkOpen() error {
	if db.closed.Load() {
		return ErrClosed
	}
	return nil
}

// ensureCollection creates the collection table once per process.
func (db *DB) ensureCollection(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.ensured[name] {
		return nil
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id  TEXT PRIMARY KEY,
		doc BLOB NOT NULL
	)`, name)
	if _, err := db.sql.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	db.ensured[name] = true
	db.logger.Debug("collection ready", "collection", name)
	return nil
}

// Tx is a transaction in progress.
type Tx struct {
	tx *sql.Tx
}

// Tx runs fn inside one transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (db *DB) Tx(ctx context.Context, fn func(tx *Tx) error) error {
	if err := db.checkOpen(); err != nil {
		return err
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
