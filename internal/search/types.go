// Package search implements mditgo's hybrid BM25 + vector ranker:
// search_notes_for_query combines a full-text subquery and a
// cosine-similarity subquery into one normalized, ranked result list.
package search

// Entry is one ranked, materialized search result.
type Entry struct {
	Path         string
	Name         string
	CreatedAtMS  *int64
	ModifiedAtMS *int64
	Similarity   float64
}
