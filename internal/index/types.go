package index

import (
	"context"

	"github.com/mditgo/mditgo/internal/embedclient"
)

// targetChunkingVersion is the chunking algorithm version every fresh or
// rebuilt doc is brought to, mirroring chunk.CurrentVersion.
const targetChunkingVersion = 1

// Summary reports what one index_workspace/index_note run did.
type Summary struct {
	FilesDiscovered   int
	FilesProcessed    int
	DocsInserted      int
	DocsDeleted       int
	SegmentsCreated   int
	SegmentsUpdated   int
	EmbeddingsWritten int
	LinksWritten      int
	LinksDeleted      int
	SkippedFiles      []string
}

// Meta is the lightweight status returned by get_indexing_meta.
type Meta struct {
	IndexedDocCount int
}

// embeddingContext bundles a resolved embedder with the dimension it
// produces, built once per run when provider+model are both configured.
type embeddingContext struct {
	embedder  embedclient.Embedder
	targetDim int
}

func newEmbeddingContext(ctx context.Context, provider, model, baseURL string) (*embeddingContext, error) {
	if provider == "" || model == "" {
		return nil, nil
	}
	embedder, err := embedclient.New(provider, model, baseURL, 0)
	if err != nil {
		return nil, err
	}
	dim, err := embedclient.ResolveEmbeddingDimension(ctx, embedder)
	if err != nil {
		return nil, err
	}
	return &embeddingContext{embedder: embedder, targetDim: dim}, nil
}
