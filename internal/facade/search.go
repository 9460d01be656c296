package facade

import (
	"context"

	"github.com/mditgo/mditgo/internal/search"
)

// SearchNotesForQuery runs the hybrid BM25/vector ranker over root's
// vault, validating query and limit against the façade boundary before
// delegating to internal/search.
func (f *Facade) SearchNotesForQuery(ctx context.Context, root, query string, limit int) ([]search.Entry, error) {
	if err := validateSearchQuery(query); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = f.cfg.Search.DefaultLimit
	}
	if err := validateSearchLimit(limit, f.cfg.Search.MaxLimit); err != nil {
		return nil, err
	}

	provider, model := f.resolvedEmbedding(root)
	entries, err := search.SearchNotesForQuery(ctx, f.conn(), root, query, provider, model)
	if err != nil {
		return nil, translateIndexError(err)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
