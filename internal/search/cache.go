package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mditgo/mditgo/internal/embedclient"
)

// queryEmbeddingCacheSize bounds how many distinct (provider, model, text)
// query embeddings are kept in memory across calls to SearchNotesForQuery
// within one process. Interactive search repeats queries often enough that
// re-hitting the embedding provider for each keystroke-adjacent call would
// dominate latency.
const queryEmbeddingCacheSize = 256

var queryEmbeddingCache = newQueryEmbeddingCache()

func newQueryEmbeddingCache() *lru.Cache[string, embedclient.Vector] {
	cache, _ := lru.New[string, embedclient.Vector](queryEmbeddingCacheSize)
	return cache
}

// generateQueryEmbedding returns the cached embedding for (provider, model,
// text) if present, otherwise generates and caches it.
func generateQueryEmbedding(ctx context.Context, embedder embedclient.Embedder, provider, model, text string) (embedclient.Vector, error) {
	key := queryEmbeddingCacheKey(provider, model, text)
	if vec, ok := queryEmbeddingCache.Get(key); ok {
		return vec, nil
	}

	vec, err := embedder.Generate(ctx, text)
	if err != nil {
		return embedclient.Vector{}, err
	}
	queryEmbeddingCache.Add(key, vec)
	return vec, nil
}

func queryEmbeddingCacheKey(provider, model, text string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
