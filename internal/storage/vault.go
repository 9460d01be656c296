package storage

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// Vault mirrors one row of the vault table.
type Vault struct {
	ID                int64
	WorkspaceRoot     string
	EmbeddingProvider sql.NullString
	EmbeddingModel    sql.NullString
	CreatedAt         int64
	LastOpenedAt      int64
}

// CanonicalizeRoot canonicalizes a workspace root path the way every vault
// accessor expects: absolute, forward-slash normalized, no trailing slash.
// Every storage entry point runs this before touching the vault table.
func CanonicalizeRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", mditerrors.Wrap(mditerrors.CodeInternalError, err, "canonicalizing workspace root")
	}
	normalized := filepath.ToSlash(abs)
	for len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = normalized[:len(normalized)-1]
	}
	return normalized, nil
}

// EnsureVault returns the vault id for canonicalRoot, inserting a new row
// if none exists yet. A vault row, once created, is never silently
// mutated except via touch/config calls.
func EnsureVault(db *sql.DB, canonicalRoot string) (int64, error) {
	id, ok, err := FindVaultID(db, canonicalRoot)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	now := nowMillis()
	res, err := db.Exec(
		`INSERT INTO vault(workspace_root, created_at, last_opened_at) VALUES (?, ?, ?)`,
		canonicalRoot, now, now,
	)
	if err != nil {
		return 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "inserting vault row")
	}
	return res.LastInsertId()
}

// FindVaultID looks up a vault id by its canonical workspace root.
func FindVaultID(db *sql.DB, canonicalRoot string) (int64, bool, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM vault WHERE workspace_root = ?`, canonicalRoot).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mditerrors.Wrap(mditerrors.CodeInternalError, err, "looking up vault")
	}
	return id, true, nil
}

// GetEmbeddingConfig returns the configured provider and model for root's
// vault, if any.
func GetEmbeddingConfig(db *sql.DB, canonicalRoot string) (provider, model string, ok bool, err error) {
	var p, m sql.NullString
	qerr := db.QueryRow(`SELECT embedding_provider, embedding_model FROM vault WHERE workspace_root = ?`, canonicalRoot).Scan(&p, &m)
	if qerr == sql.ErrNoRows {
		return "", "", false, nil
	}
	if qerr != nil {
		return "", "", false, mditerrors.Wrap(mditerrors.CodeInternalError, qerr, "reading embedding config")
	}
	if !m.Valid || m.String == "" {
		return "", "", false, nil
	}
	provider = p.String
	if provider == "" {
		provider = "ollama"
	}
	return provider, m.String, true, nil
}

// SetEmbeddingConfig sets root's vault embedding provider+model. An empty
// model clears the configuration; an empty provider defaults to the
// standard provider name.
func SetEmbeddingConfig(db *sql.DB, canonicalRoot, provider, model string) error {
	if model == "" {
		_, err := db.Exec(`UPDATE vault SET embedding_provider = NULL, embedding_model = NULL WHERE workspace_root = ?`, canonicalRoot)
		if err != nil {
			return mditerrors.Wrap(mditerrors.CodeInternalError, err, "clearing embedding config")
		}
		return nil
	}
	if provider == "" {
		provider = "ollama"
	}
	_, err := db.Exec(`UPDATE vault SET embedding_provider = ?, embedding_model = ? WHERE workspace_root = ?`, provider, model, canonicalRoot)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "setting embedding config")
	}
	return nil
}

// TouchWorkspace updates last_opened_at for root's vault to the current
// time, creating the row if necessary.
func TouchWorkspace(db *sql.DB, canonicalRoot string) error {
	id, err := EnsureVault(db, canonicalRoot)
	if err != nil {
		return err
	}
	_, err = db.Exec(`UPDATE vault SET last_opened_at = ? WHERE id = ?`, nowMillis(), id)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "touching workspace")
	}
	return nil
}

// ListWorkspaces returns every vault row, most-recently-opened first.
func ListWorkspaces(db *sql.DB) ([]Vault, error) {
	rows, err := db.Query(`SELECT id, workspace_root, embedding_provider, embedding_model, created_at, last_opened_at
		FROM vault ORDER BY last_opened_at DESC, id DESC`)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "listing workspaces")
	}
	defer rows.Close()

	var out []Vault
	for rows.Next() {
		var v Vault
		if err := rows.Scan(&v.ID, &v.WorkspaceRoot, &v.EmbeddingProvider, &v.EmbeddingModel, &v.CreatedAt, &v.LastOpenedAt); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning vault row")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RemoveWorkspace deletes both the canonicalized row and any stale
// raw-input row for root, since rows may have been inserted before
// canonicalization existed.
func RemoveWorkspace(db *sql.DB, rawRoot, canonicalRoot string) error {
	_, err := db.Exec(`DELETE FROM vault WHERE workspace_root IN (?, ?)`, rawRoot, canonicalRoot)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "removing workspace")
	}
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
