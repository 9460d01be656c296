package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = "__mditgo_migrations"

// statementBreakpoint separates statements within one migration file.
const statementBreakpoint = "--> statement-breakpoint"

// migration is one ordered, embedded schema file.
type migration struct {
	id  string
	sql string
}

func loadAvailableMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "reading embedded migrations")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "reading migration "+name)
		}
		migrations = append(migrations, migration{id: name, sql: string(content)})
	}
	return migrations, nil
}

func splitStatements(sqlText string) []string {
	parts := strings.Split(sqlText, statementBreakpoint)
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			stmts = append(stmts, p)
		}
	}
	return stmts
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`, migrationsTable))
	return err
}

func loadAppliedMigrations(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT id FROM %s", migrationsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// runMigrations applies every embedded migration not yet recorded in the
// tracking table, each inside its own transaction, in lexicographic id order.
func runMigrations(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "ensuring migrations table")
	}

	applied, err := loadAppliedMigrations(db)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "loading applied migrations")
	}

	available, err := loadAvailableMigrations()
	if err != nil {
		return err
	}

	for _, m := range available {
		if applied[m.id] {
			continue
		}
		if err := applySingleMigration(db, m); err != nil {
			return mditerrors.Wrap(mditerrors.CodeInternalError, err, "applying migration "+m.id)
		}
	}
	return nil
}

func applySingleMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(m.sql) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement failed in %s: %w", m.id, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s(id, applied_at) VALUES (?, ?)", migrationsTable),
		m.id, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}
