package storage

import (
	"database/sql"
	"strings"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// BM25Row is one FTS5 match: a candidate doc plus its raw bm25() weight
// (lower is better, per SQLite's convention).
type BM25Row struct {
	DocID   int64
	RelPath string
	Raw     float64
}

// EscapeFTS5Phrase wraps query as a single literal FTS5 phrase, doubling
// any embedded double quotes. This keeps the match exact-phrase rather
// than letting FTS5 treat whitespace as an implicit AND of bareword terms.
func EscapeFTS5Phrase(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

// QueryBM25 runs query against vaultID's full-text index, returning the raw
// (un-inverted) bm25() weight for every matching doc.
func QueryBM25(db *sql.DB, vaultID int64, query string) ([]BM25Row, error) {
	rows, err := db.Query(
		`SELECT doc.id, doc.rel_path, bm25(doc_fts)
		 FROM doc_fts
		 JOIN doc ON doc.id = doc_fts.rowid
		 WHERE doc_fts MATCH ? AND doc.vault_id = ?`,
		EscapeFTS5Phrase(query), vaultID,
	)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "querying bm25 index")
	}
	defer rows.Close()

	var out []BM25Row
	for rows.Next() {
		var r BM25Row
		if err := rows.Scan(&r.DocID, &r.RelPath, &r.Raw); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning bm25 row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// VectorSegmentRow is one embedded segment belonging to a doc whose stored
// embedding model/dim match the query's.
type VectorSegmentRow struct {
	DocID     int64
	RelPath   string
	Embedding []byte
}

// QueryVectorCandidates returns every segment_vec row for vaultID's docs
// whose last_embedding_model/last_embedding_dim match model/dim. A fresh,
// never-embedded vault yields no rows (the segment_vec table always exists
// after migrations); query errors are returned.
func QueryVectorCandidates(db *sql.DB, vaultID int64, model string, dim int) ([]VectorSegmentRow, error) {
	rows, err := db.Query(
		`SELECT doc.id, doc.rel_path, segment_vec.embedding
		 FROM doc
		 JOIN segment ON segment.doc_id = doc.id
		 JOIN segment_vec ON segment_vec.segment_id = segment.id
		 WHERE doc.vault_id = ? AND doc.last_embedding_model = ? AND doc.last_embedding_dim = ?`,
		vaultID, model, dim,
	)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "querying vector candidates")
	}
	defer rows.Close()

	var out []VectorSegmentRow
	for rows.Next() {
		var r VectorSegmentRow
		if err := rows.Scan(&r.DocID, &r.RelPath, &r.Embedding); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning vector candidate row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
