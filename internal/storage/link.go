package storage

import (
	"database/sql"
	"strconv"

	mditerrors "github.com/mditgo/mditgo/internal/errors"

	"github.com/mditgo/mditgo/internal/links"
)

// ReplaceLinksForSource atomically replaces every link and wiki_link_ref
// row belonging to sourceDocID with resolution's contents in one
// transaction. Returns (linksWritten, linksDeleted).
func ReplaceLinksForSource(db *sql.DB, vaultID, sourceDocID int64, resolution links.Resolution) (int, int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "beginning link replace transaction")
	}
	defer tx.Rollback()

	deletedLinks, err := execRowsAffected(tx, `DELETE FROM link WHERE source_doc_id = ?`, sourceDocID)
	if err != nil {
		return 0, 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "deleting existing links")
	}
	if _, err := tx.Exec(`DELETE FROM wiki_link_ref WHERE source_doc_id = ?`, sourceDocID); err != nil {
		return 0, 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "deleting existing wiki link refs")
	}

	for _, link := range resolution.Links {
		if _, err := tx.Exec(
			`INSERT INTO link(vault_id, source_doc_id, target_doc_id, target_path, kind) VALUES (?, ?, ?, ?, ?)`,
			vaultID, sourceDocID, link.TargetDocID, link.TargetPath, link.Kind,
		); err != nil {
			return 0, 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "inserting link")
		}
	}
	for key := range resolution.WikiQueryKeys {
		if _, err := tx.Exec(
			`INSERT INTO wiki_link_ref(vault_id, source_doc_id, query_key) VALUES (?, ?, ?)`,
			vaultID, sourceDocID, key,
		); err != nil {
			return 0, 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "inserting wiki link ref")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "committing link replace transaction")
	}
	return len(resolution.Links), int(deletedLinks), nil
}

func execRowsAffected(tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SourcesForQueryKeys returns the distinct source doc ids in vaultID whose
// wiki_link_ref rows match any of keys, i.e. the forced-link-refresh set.
func SourcesForQueryKeys(db *sql.DB, vaultID int64, keys map[string]struct{}) (map[int64]bool, error) {
	out := map[int64]bool{}
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := make([]any, 0, len(keys)+1)
	placeholders = append(placeholders, vaultID)
	query := `SELECT DISTINCT source_doc_id FROM wiki_link_ref WHERE vault_id = ? AND query_key IN (`
	first := true
	for key := range keys {
		if !first {
			query += ", "
		}
		first = false
		query += "?"
		placeholders = append(placeholders, key)
	}
	query += ")"

	rows, err := db.Query(query, placeholders...)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "selecting wiki-dependent sources")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning source doc id")
		}
		out[id] = true
	}
	return out, rows.Err()
}

// Backlink is one source document linking to a target.
type Backlink struct {
	SourceDocID int64
	RelPath     string
}

// Backlinks returns the deduped sources linking to targetRelPath, matched
// either via target_doc_id (resolved) or target_path (unresolved).
func Backlinks(db *sql.DB, vaultID, targetDocID int64, targetRelPath string) ([]Backlink, error) {
	rows, err := db.Query(
		`SELECT DISTINCT doc.id, doc.rel_path FROM link
		 JOIN doc ON doc.id = link.source_doc_id
		 WHERE link.vault_id = ? AND (link.target_doc_id = ? OR link.target_path = ?)
		 ORDER BY doc.rel_path`,
		vaultID, targetDocID, targetRelPath,
	)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "querying backlinks")
	}
	defer rows.Close()

	var out []Backlink
	for rows.Next() {
		var b Backlink
		if err := rows.Scan(&b.SourceDocID, &b.RelPath); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning backlink row")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GraphEdge is one deduped edge in the link graph view.
type GraphEdge struct {
	SourceDocID int64
	TargetDocID int64
	TargetNode  string // doc id as string, or "unresolved:<path>"
}

// GraphEdges returns every deduped edge for vaultID, synthesizing
// "unresolved:<path>" target node ids for unresolved links.
func GraphEdges(db *sql.DB, vaultID int64) ([]GraphEdge, error) {
	rows, err := db.Query(
		`SELECT DISTINCT source_doc_id, target_doc_id, target_path FROM link WHERE vault_id = ?`,
		vaultID,
	)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "querying graph edges")
	}
	defer rows.Close()

	seen := map[string]bool{}
	var out []GraphEdge
	for rows.Next() {
		var sourceID int64
		var targetID sql.NullInt64
		var targetPath string
		if err := rows.Scan(&sourceID, &targetID, &targetPath); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning graph edge row")
		}

		edge := GraphEdge{SourceDocID: sourceID}
		if targetID.Valid {
			edge.TargetDocID = targetID.Int64
			edge.TargetNode = formatDocNode(targetID.Int64)
		} else {
			edge.TargetNode = "unresolved:" + targetPath
		}

		key := formatDocNode(sourceID) + "->" + edge.TargetNode
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, edge)
	}
	return out, rows.Err()
}

func formatDocNode(id int64) string {
	return strconv.FormatInt(id, 10)
}
