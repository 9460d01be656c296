// Package storage owns mditgo's single embedded SQLite database: the
// vault/doc/segment/segment_vec/link/wiki_link_ref tables, the doc_fts
// full-text index, ordered schema migrations, and the process-wide
// vector-similarity SQL function registration.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite" // pure-Go driver, primary read/write connection

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// DB wraps the single SQLite connection pool mditgo uses for its database
// file (one file shared by every vault), plus a lazily-opened secondary
// connection carrying the
// cosine_distance scalar function for vector-similarity subqueries.
type DB struct {
	path   string
	write  *sql.DB
	logger *slog.Logger

	vecOnce sync.Once
	vec     *sql.DB
	vecErr  error
}

// Open opens (creating if necessary) the SQLite database at path, enables
// foreign keys, applies WAL mode, and runs any pending migrations. path may
// be ":memory:" for tests that don't need the vector SQL connection.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registerVecExtension()

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	}

	write, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "opening database")
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)

	if path == ":memory:" {
		if _, err := write.Exec("PRAGMA foreign_keys = ON"); err != nil {
			write.Close()
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "enabling foreign keys")
		}
	}

	if err := runMigrations(write); err != nil {
		write.Close()
		return nil, err
	}

	return &DB{path: path, write: write, logger: logger}, nil
}

// Conn returns the primary read/write connection.
func (d *DB) Conn() *sql.DB {
	return d.write
}

// VecConn returns a read-only connection carrying the cosine_distance SQL
// function, opened lazily and memoized. It is unavailable for ":memory:"
// databases since the vector connection is a distinct SQLite connection
// over the same file and cannot see an in-process-only memory database;
// callers needing vector search in tests should open a temp-file database.
func (d *DB) VecConn() (*sql.DB, error) {
	d.vecOnce.Do(func() {
		if d.path == ":memory:" {
			d.vecErr = fmt.Errorf("storage: vector connection unavailable for :memory: databases")
			return
		}
		dsn := d.path + "?mode=ro&_pragma=busy_timeout(5000)"
		vec, err := sql.Open(vecDriverName, dsn)
		if err != nil {
			d.vecErr = mditerrors.Wrap(mditerrors.CodeInternalError, err, "opening vector connection")
			return
		}
		d.vec = vec
	})
	return d.vec, d.vecErr
}

// Close releases both connections.
func (d *DB) Close() error {
	if d.vec != nil {
		_ = d.vec.Close()
	}
	return d.write.Close()
}
