package storage

import (
	"database/sql"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// Doc mirrors the subset of the doc table's columns the synchronizer needs
// to decide what work a file requires.
type Doc struct {
	ID                 int64
	RelPath            string
	ChunkingVersion    int
	LastHash           sql.NullString
	LastSourceSize     int64
	LastSourceMtimeNS  int64
	LastEmbeddingModel sql.NullString
	LastEmbeddingDim   sql.NullInt64
}

// LoadDocs returns every doc row for vaultID, keyed by rel_path.
func LoadDocs(db *sql.DB, vaultID int64) (map[string]*Doc, error) {
	rows, err := db.Query(`SELECT id, rel_path, chunking_version, last_hash, last_source_size,
		last_source_mtime_ns, last_embedding_model, last_embedding_dim
		FROM doc WHERE vault_id = ?`, vaultID)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "loading docs")
	}
	defer rows.Close()

	out := map[string]*Doc{}
	for rows.Next() {
		d := &Doc{}
		if err := rows.Scan(&d.ID, &d.RelPath, &d.ChunkingVersion, &d.LastHash, &d.LastSourceSize,
			&d.LastSourceMtimeNS, &d.LastEmbeddingModel, &d.LastEmbeddingDim); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning doc row")
		}
		out[d.RelPath] = d
	}
	return out, rows.Err()
}

// InsertDoc inserts a new doc row with null metadata and empty content,
// returning its id.
func InsertDoc(db *sql.DB, vaultID int64, relPath string, chunkingVersion int) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO doc(vault_id, rel_path, chunking_version, content) VALUES (?, ?, ?, '')`,
		vaultID, relPath, chunkingVersion,
	)
	if err != nil {
		return 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "inserting doc")
	}
	return res.LastInsertId()
}

// DeleteDocsNotIn deletes doc rows for vaultID whose rel_path is not in
// keep, returning the rel_paths actually deleted. Segments, links, and
// wiki_link_ref rows cascade via foreign keys.
func DeleteDocsNotIn(db *sql.DB, vaultID int64, keep map[string]bool) ([]string, error) {
	rows, err := db.Query(`SELECT rel_path FROM doc WHERE vault_id = ?`, vaultID)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning docs for prune")
	}
	var toDelete []string
	for rows.Next() {
		var relPath string
		if err := rows.Scan(&relPath); err != nil {
			rows.Close()
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning doc rel_path")
		}
		if !keep[relPath] {
			toDelete = append(toDelete, relPath)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "iterating docs for prune")
	}

	for _, relPath := range toDelete {
		if _, err := db.Exec(`DELETE FROM doc WHERE vault_id = ? AND rel_path = ?`, vaultID, relPath); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "deleting doc "+relPath)
		}
	}
	return toDelete, nil
}

// DeleteAllDocs deletes every doc row for vaultID (used by force reindex).
func DeleteAllDocs(db *sql.DB, vaultID int64) error {
	_, err := db.Exec(`DELETE FROM doc WHERE vault_id = ?`, vaultID)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "deleting all docs")
	}
	return nil
}

// DeleteAllSegmentVecsForVault deletes every segment_vec row belonging to
// vaultID's docs. The table is created by the initial migration, so it
// always exists; any error is returned.
func DeleteAllSegmentVecsForVault(db *sql.DB, vaultID int64) error {
	_, err := db.Exec(`DELETE FROM segment_vec WHERE segment_id IN (
		SELECT segment.id FROM segment JOIN doc ON doc.id = segment.doc_id WHERE doc.vault_id = ?
	)`, vaultID)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "deleting segment vectors")
	}
	return nil
}

// UpdateDocStat updates only a doc's stat columns (size, mtime), used when
// content is unchanged but the filesystem stat drifted.
func UpdateDocStat(db *sql.DB, docID int64, size, mtimeNS int64) error {
	_, err := db.Exec(`UPDATE doc SET last_source_size = ?, last_source_mtime_ns = ? WHERE id = ?`, size, mtimeNS, docID)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "updating doc stat")
	}
	return nil
}

// UpdateDocHashAndContent updates a doc's hash, stat, and content without
// touching its embedding metadata (the "no embedding context" path).
func UpdateDocHashAndContent(db *sql.DB, docID int64, hash string, size, mtimeNS int64, content string) error {
	_, err := db.Exec(
		`UPDATE doc SET last_hash = ?, last_source_size = ?, last_source_mtime_ns = ?, content = ? WHERE id = ?`,
		hash, size, mtimeNS, content, docID,
	)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "updating doc hash and content")
	}
	return nil
}

// UpdateDocFullMetadata updates every metadata column tracked for a doc
// after a full chunk/embedding rebuild.
func UpdateDocFullMetadata(db *sql.DB, docID int64, hash string, size, mtimeNS int64, model string, dim int, content string) error {
	_, err := db.Exec(
		`UPDATE doc SET last_hash = ?, last_source_size = ?, last_source_mtime_ns = ?,
			last_embedding_model = ?, last_embedding_dim = ?, content = ? WHERE id = ?`,
		hash, size, mtimeNS, model, dim, content, docID,
	)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "updating doc full metadata")
	}
	return nil
}

// RebindUnresolvedLinks sets link.target_doc_id for every unresolved link
// whose target_path equals relPath, now that docID exists. This rebinds
// markdown link targets without re-parsing the source.
func RebindUnresolvedLinks(db *sql.DB, vaultID, docID int64, relPath string) (int64, error) {
	res, err := db.Exec(
		`UPDATE link SET target_doc_id = ? WHERE vault_id = ? AND target_doc_id IS NULL AND target_path = ?`,
		docID, vaultID, relPath,
	)
	if err != nil {
		return 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "rebinding unresolved links")
	}
	return res.RowsAffected()
}

// DistinctDimsForVault returns the distinct non-null embedding dims
// currently stored across this vault's docs, used to detect an embedding
// dimension mismatch before a non-forced run.
func DistinctDimsForVault(db *sql.DB, vaultID int64) ([]int64, error) {
	rows, err := db.Query(
		`SELECT DISTINCT last_embedding_dim FROM doc WHERE vault_id = ? AND last_embedding_dim IS NOT NULL`,
		vaultID,
	)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "reading distinct embedding dims")
	}
	defer rows.Close()

	var dims []int64
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning embedding dim")
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// IndexedDocCount returns the number of docs in vaultID with a non-null
// last_hash, i.e. successfully indexed at least once.
func IndexedDocCount(db *sql.DB, vaultID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM doc WHERE vault_id = ? AND last_hash IS NOT NULL`, vaultID).Scan(&count)
	if err != nil {
		return 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "counting indexed docs")
	}
	return count, nil
}

// FindDocByRelPath looks up a single doc row by rel_path.
func FindDocByRelPath(db *sql.DB, vaultID int64, relPath string) (*Doc, error) {
	d := &Doc{}
	err := db.QueryRow(`SELECT id, rel_path, chunking_version, last_hash, last_source_size,
		last_source_mtime_ns, last_embedding_model, last_embedding_dim
		FROM doc WHERE vault_id = ? AND rel_path = ?`, vaultID, relPath).Scan(
		&d.ID, &d.RelPath, &d.ChunkingVersion, &d.LastHash, &d.LastSourceSize,
		&d.LastSourceMtimeNS, &d.LastEmbeddingModel, &d.LastEmbeddingDim)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "finding doc")
	}
	return d, nil
}
