package search

import (
	"database/sql"

	"github.com/mditgo/mditgo/internal/storage"
)

// vectorScores returns, per doc, the maximum 1-cosine_distance similarity
// between queryVec and any of the doc's segments whose stored embedding
// model/dim match, along with that doc's rel_path. Rows whose blob length
// doesn't match len(queryVec)*4 are skipped.
func vectorScores(db *sql.DB, vaultID int64, model string, queryVec []float32) (map[int64]float64, map[int64]string, error) {
	candidates, err := storage.QueryVectorCandidates(db, vaultID, model, len(queryVec))
	if err != nil {
		return nil, nil, err
	}

	scores := map[int64]float64{}
	relPaths := map[int64]string{}
	for _, c := range candidates {
		vec, err := storage.DecodeFloat32LE(c.Embedding)
		if err != nil || len(vec) != len(queryVec) {
			continue
		}

		similarity := storage.CosineSimilarity(queryVec, vec)
		if current, ok := scores[c.DocID]; !ok || similarity > current {
			scores[c.DocID] = similarity
			relPaths[c.DocID] = c.RelPath
		}
	}
	return scores, relPaths, nil
}
