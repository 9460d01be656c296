package search

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mditgo/mditgo/internal/embedclient"
	"github.com/mditgo/mditgo/internal/storage"
)

const (
	vectorWeight  = 0.7
	bm25Weight    = 0.3
	minFinalScore = 0.05
	minNoteBytes  = 256
)

// SearchNotesForQuery runs the hybrid ranker over root's vault. An empty
// query, a missing vault, or a non-generatable query embedding all yield
// an empty (not error) result; only genuine failures (embedding provider
// errors, I/O errors) are returned as errors.
func SearchNotesForQuery(ctx context.Context, db *sql.DB, root, query, provider, model string) ([]Entry, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}

	var queryVec []float32
	if provider != "" && model != "" {
		embedder, err := embedclient.New(provider, model, "", 0)
		if err != nil {
			return nil, err
		}
		vec, err := generateQueryEmbedding(ctx, embedder, provider, model, trimmed)
		if err != nil {
			return nil, err
		}
		decoded, err := storage.DecodeFloat32LE(vec.Bytes)
		if err != nil {
			return nil, err
		}
		if len(decoded) == 0 || !allFinite32(decoded) {
			return nil, nil
		}
		queryVec = decoded
	}

	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}
	vaultID, ok, err := storage.FindVaultID(db, canonicalRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	bm25Raw, bm25Paths, err := bm25Scores(db, vaultID, trimmed)
	if err != nil {
		return nil, err
	}

	var vecRaw map[int64]float64
	var vecPaths map[int64]string
	if queryVec != nil {
		vecRaw, vecPaths, err = vectorScores(db, vaultID, model, queryVec)
		if err != nil {
			return nil, err
		}
	}

	relPaths := map[int64]string{}
	for id, p := range bm25Paths {
		relPaths[id] = p
	}
	for id, p := range vecPaths {
		relPaths[id] = p
	}

	combined := combineScores(bm25Raw, vecRaw)

	out := make([]Entry, 0, len(combined))
	for _, c := range combined {
		entry, ok := materialize(canonicalRoot, relPaths[c.docID], c.final)
		if !ok {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type scoredDoc struct {
	docID int64
	final float64
}

// combineScores normalizes each metric to [0,1] and blends them: when any
// vector scores exist the final score is the weighted mix, otherwise BM25
// alone. Non-finite or sub-floor results are dropped; output is sorted by
// final score descending, stable on ties.
func combineScores(bm25Raw, vecRaw map[int64]float64) []scoredDoc {
	bm25Norm := normalize(bm25Raw)
	vecNorm := normalize(vecRaw)

	docIDs := map[int64]struct{}{}
	for id := range bm25Norm {
		docIDs[id] = struct{}{}
	}
	for id := range vecNorm {
		docIDs[id] = struct{}{}
	}

	var combined []scoredDoc
	for docID := range docIDs {
		var final float64
		if len(vecNorm) > 0 {
			final = vectorWeight*vecNorm[docID] + bm25Weight*bm25Norm[docID]
		} else {
			final = bm25Norm[docID]
		}
		if !isFinite(final) || final < minFinalScore {
			continue
		}
		combined = append(combined, scoredDoc{docID: docID, final: final})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].final != combined[j].final {
			return combined[i].final > combined[j].final
		}
		return combined[i].docID < combined[j].docID
	})
	return combined
}

func allFinite32(vec []float32) bool {
	for _, v := range vec {
		if !isFinite(float64(v)) {
			return false
		}
	}
	return true
}

// materialize stats the candidate file on disk, applying the ≥256-byte
// floor and filling created/modified timestamps.
func materialize(workspaceRoot, relPath string, similarity float64) (Entry, bool) {
	if relPath == "" {
		return Entry{}, false
	}
	absPath := filepath.Join(workspaceRoot, filepath.FromSlash(relPath))
	info, err := os.Stat(absPath)
	if err != nil {
		return Entry{}, false
	}
	if info.Size() < minNoteBytes {
		return Entry{}, false
	}

	// os.FileInfo has no portable birth-time accessor; CreatedAtMS stays
	// nil and only ModifiedAtMS is populated from ModTime.
	entry := Entry{
		Path:         absPath,
		Name:         info.Name(),
		Similarity:   similarity,
		ModifiedAtMS: millisPtr(info.ModTime()),
	}
	return entry, true
}

func millisPtr(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}
