package index

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"

	"github.com/mditgo/mditgo/internal/chunk"
	"github.com/mditgo/mditgo/internal/storage"
)

// embedFanout caps how many chunk embeddings rebuildDocChunks/
// syncSegmentsForDoc generate concurrently: an errgroup-plus-semaphore
// shape for bounded fan-out over a remote call.
const embedFanout = 4

// rebuildDocChunks regenerates every segment and embedding for docID from
// scratch after a chunking-version change. Every embedding is generated
// before the write transaction so SQL writers never block on network I/O.
func rebuildDocChunks(db *sql.DB, docID int64, chunks []string, embedding *embeddingContext, summary *Summary) error {
	prepared := make([]storage.PreparedSegment, len(chunks))
	g, ctx := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, embedFanout)

	for ordinal, content := range chunks {
		ordinal, content := ordinal, content
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			vec, err := embedding.embedder.Generate(ctx, content)
			if err != nil {
				return err
			}
			prepared[ordinal] = storage.PreparedSegment{
				Ordinal:   ordinal,
				Hash:      chunk.HashContent(content),
				Content:   content,
				Embedding: vec.Bytes,
				Dim:       vec.Dim,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := storage.RebuildSegments(db, docID, prepared); err != nil {
		return err
	}
	summary.SegmentsCreated += len(prepared)
	summary.EmbeddingsWritten += len(prepared)
	return nil
}

// pendingSegment is one chunk whose embedding needs (re)computing, along
// with the bookkeeping syncSegmentsForDoc needs once the vector is ready.
type pendingSegment struct {
	ordinal     int
	content     string
	hash        string
	hashChanged bool
	existingID  int64 // 0 if this ordinal has no existing segment row
}

// syncSegmentsForDoc is the fast-path segment sync: only ordinals whose
// hash changed, whose model/dim drifted, or that are missing an embedding
// are touched. Embeddings for every pending ordinal are generated
// concurrently before any row is written.
func syncSegmentsForDoc(db *sql.DB, docID int64, chunks []string, embedding *embeddingContext, forceReembedAll bool, summary *Summary) error {
	existing, err := storage.LoadSegmentsByOrdinal(db, docID)
	if err != nil {
		return err
	}

	var pending []pendingSegment
	for ordinal, content := range chunks {
		hash := chunk.HashContent(content)

		segment, ok := existing[ordinal]
		if !ok {
			pending = append(pending, pendingSegment{ordinal: ordinal, content: content, hash: hash})
			continue
		}

		hashChanged := segment.LastHash != hash
		if forceReembedAll || hashChanged || !segment.HasEmbedding {
			pending = append(pending, pendingSegment{
				ordinal: ordinal, content: content, hash: hash,
				hashChanged: hashChanged, existingID: segment.ID,
			})
		}
	}

	vectors := make([]embedclientVector, len(pending))
	g, ctx := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, embedFanout)
	for i, p := range pending {
		i, p := i, p
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			vec, err := embedding.embedder.Generate(ctx, p.content)
			if err != nil {
				return err
			}
			vectors[i] = embedclientVector{bytes: vec.Bytes, dim: vec.Dim}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, p := range pending {
		vec := vectors[i]
		if p.existingID == 0 {
			segmentID, err := storage.InsertSegment(db, docID, p.ordinal, p.hash, p.content)
			if err != nil {
				return err
			}
			summary.SegmentsCreated++
			if err := storage.UpsertSegmentVector(db, segmentID, vec.bytes, vec.dim); err != nil {
				storage.DeleteSegment(db, segmentID)
				storage.DeleteSegmentVector(db, segmentID)
				return err
			}
			summary.EmbeddingsWritten++
			continue
		}

		if err := storage.UpsertSegmentVector(db, p.existingID, vec.bytes, vec.dim); err != nil {
			return err
		}
		summary.EmbeddingsWritten++
		if p.hashChanged {
			if err := storage.UpdateSegmentHash(db, p.existingID, p.hash, p.content); err != nil {
				return err
			}
			summary.SegmentsUpdated++
		}
	}

	return storage.DeleteSegmentsWithOrdinalAtLeast(db, docID, len(chunks))
}

// embedclientVector is the subset of embedclient.Vector the segment
// writers need, kept local so this file doesn't need to import
// embedclient just for a two-field struct.
type embedclientVector struct {
	bytes []byte
	dim   int
}
