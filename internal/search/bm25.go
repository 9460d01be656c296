package search

import (
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/mditgo/mditgo/internal/storage"
)

// bm25Scores runs the FTS5 subquery and returns, per doc, the inverted
// bm25 weight (larger is better) and rel_path. Non-finite weights and
// non-.md rel_paths are dropped.
func bm25Scores(db *sql.DB, vaultID int64, query string) (map[int64]float64, map[int64]string, error) {
	rows, err := storage.QueryBM25(db, vaultID, query)
	if err != nil {
		return nil, nil, err
	}

	scores := map[int64]float64{}
	relPaths := map[int64]string{}
	for _, r := range rows {
		if !isFinite(r.Raw) {
			continue
		}
		if !strings.EqualFold(filepath.Ext(r.RelPath), ".md") {
			continue
		}
		scores[r.DocID] = -r.Raw
		relPaths[r.DocID] = r.RelPath
	}
	return scores, relPaths, nil
}

// escapeFTS5Phrase mirrors storage.EscapeFTS5Phrase so callers in this
// package (and its tests) don't need the storage import just for this.
func escapeFTS5Phrase(query string) string {
	return storage.EscapeFTS5Phrase(query)
}
