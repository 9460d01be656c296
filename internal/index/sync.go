package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/mditgo/mditgo/internal/chunk"
	mditerrors "github.com/mditgo/mditgo/internal/errors"
	"github.com/mditgo/mditgo/internal/links"
	"github.com/mditgo/mditgo/internal/markdown"
	"github.com/mditgo/mditgo/internal/storage"
)

// IndexWorkspace walks root, syncing every markdown file it finds against
// the vault's stored docs and pruning rows for files that disappeared.
func IndexWorkspace(ctx context.Context, db *sql.DB, root, provider, model string, force bool) (*Summary, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}

	files, err := collectMarkdownFiles(canonicalRoot)
	if err != nil {
		return nil, err
	}

	return runIndexingForFiles(ctx, db, canonicalRoot, provider, model, files, true, force)
}

// IndexNote syncs a single file; it never prunes and always runs unforced.
func IndexNote(ctx context.Context, db *sql.DB, root, notePath, provider, model string) (*Summary, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}

	f, err := buildSingleMarkdownFile(canonicalRoot, notePath)
	if err != nil {
		return nil, err
	}

	return runIndexingForFiles(ctx, db, canonicalRoot, provider, model, []file{f}, false, false)
}

// GetIndexingMeta returns the count of docs with a non-null last_hash for
// root's vault, or zero if the vault doesn't exist yet.
func GetIndexingMeta(db *sql.DB, root string) (*Meta, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}

	vaultID, ok, err := storage.FindVaultID(db, canonicalRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Meta{}, nil
	}

	count, err := storage.IndexedDocCount(db, vaultID)
	if err != nil {
		return nil, err
	}
	return &Meta{IndexedDocCount: count}, nil
}

func runIndexingForFiles(ctx context.Context, db *sql.DB, canonicalRoot, provider, model string, files []file, pruneDeleted, force bool) (*Summary, error) {
	embedding, err := newEmbeddingContext(ctx, provider, model, "")
	if err != nil {
		return nil, err
	}

	vaultID, err := storage.EnsureVault(db, canonicalRoot)
	if err != nil {
		return nil, err
	}

	if !force && embedding != nil {
		if err := ensureEmbeddingDimensionCompatible(db, vaultID, embedding.targetDim); err != nil {
			return nil, err
		}
	}

	summary := &Summary{FilesDiscovered: len(files)}

	if force {
		if embedding != nil {
			if err := storage.DeleteAllSegmentVecsForVault(db, vaultID); err != nil {
				return nil, err
			}
		}
		existing, err := storage.LoadDocs(db, vaultID)
		if err != nil {
			return nil, err
		}
		if err := storage.DeleteAllDocs(db, vaultID); err != nil {
			return nil, err
		}
		summary.DocsDeleted = len(existing)
	}

	if err := syncDocuments(db, vaultID, canonicalRoot, files, embedding, summary, pruneDeleted); err != nil {
		return nil, err
	}

	return summary, nil
}

func ensureEmbeddingDimensionCompatible(db *sql.DB, vaultID int64, targetDim int) error {
	dims, err := storage.DistinctDimsForVault(db, vaultID)
	if err != nil {
		return err
	}
	for _, d := range dims {
		if d != int64(targetDim) {
			return mditerrors.New(mditerrors.CodeConflictDimensionMismatch,
				"index: existing index uses a different embedding dimension; re-run with force=true")
		}
	}
	return nil
}

func syncDocuments(db *sql.DB, vaultID int64, canonicalRoot string, files []file, embedding *embeddingContext, summary *Summary, pruneDeleted bool) error {
	docs, err := storage.LoadDocs(db, vaultID)
	if err != nil {
		return err
	}

	discovered := map[string]bool{}
	for _, f := range files {
		discovered[f.relPath] = true
	}

	var deletedPaths []string
	if pruneDeleted {
		deletedPaths, err = storage.DeleteDocsNotIn(db, vaultID, discovered)
		if err != nil {
			return err
		}
		summary.DocsDeleted += len(deletedPaths)
		for _, p := range deletedPaths {
			delete(docs, p)
		}
	}

	var insertedRelPaths []string
	for _, f := range files {
		if _, ok := docs[f.relPath]; ok {
			continue
		}
		docID, err := storage.InsertDoc(db, vaultID, f.relPath, targetChunkingVersion)
		if err != nil {
			return err
		}
		summary.DocsInserted++
		insertedRelPaths = append(insertedRelPaths, f.relPath)
		docs[f.relPath] = &storage.Doc{ID: docID, RelPath: f.relPath, ChunkingVersion: targetChunkingVersion}
	}

	for _, relPath := range insertedRelPaths {
		doc := docs[relPath]
		if _, err := storage.RebindUnresolvedLinks(db, vaultID, doc.ID, relPath); err != nil {
			return err
		}
	}

	queryKeys := collectQueryKeysForPaths(append(append([]string{}, deletedPaths...), insertedRelPaths...))
	forced, err := storage.SourcesForQueryKeys(db, vaultID, queryKeys)
	if err != nil {
		return err
	}

	docsByPath := map[string]int64{}
	for relPath, d := range docs {
		docsByPath[relPath] = d.ID
	}
	resolver := links.NewResolver(canonicalRoot, docsByPath)

	for _, f := range files {
		doc := docs[f.relPath]
		err := processFile(db, vaultID, doc, f, forced[doc.ID], embedding, resolver, summary)
		if err != nil {
			summary.SkippedFiles = append(summary.SkippedFiles, fmt.Sprintf("%s: %v", f.absPath, err))
			continue
		}
		summary.FilesProcessed++
	}

	return nil
}

func processFile(db *sql.DB, vaultID int64, doc *storage.Doc, f file, forcedRefresh bool, embedding *embeddingContext, resolver *links.Resolver, summary *Summary) error {
	action := decideFileSyncAction(doc, f, forcedRefresh, embedding)
	if action.skip {
		return nil
	}

	raw, err := os.ReadFile(f.absPath)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "reading file")
	}
	contents := string(raw)
	docHash := chunk.HashContent(contents)
	indexedContent := markdown.FormatIndexingText(contents)

	if forcedRefresh || !doc.LastHash.Valid || doc.LastHash.String != docHash {
		sourceDir := dirOf(f.relPath)
		resolution := resolver.ResolveLinksWithDependencies(f.relPath, sourceDir, contents)
		written, deleted, err := storage.ReplaceLinksForSource(db, vaultID, doc.ID, resolution)
		if err != nil {
			return err
		}
		summary.LinksWritten += written
		summary.LinksDeleted += deleted
	}

	if embedding == nil {
		hashChanged := !doc.LastHash.Valid || doc.LastHash.String != docHash
		if hashChanged {
			if err := storage.UpdateDocHashAndContent(db, doc.ID, docHash, f.size, f.mtimeNS, indexedContent); err != nil {
				return err
			}
			doc.LastHash = sql.NullString{String: docHash, Valid: true}
		} else if action.sourceStatChanged {
			if err := storage.UpdateDocStat(db, doc.ID, f.size, f.mtimeNS); err != nil {
				return err
			}
		}
		return nil
	}

	model := embedding.embedder.Model()
	targetDim := embedding.targetDim

	if doc.ChunkingVersion != targetChunkingVersion {
		chunks := chunk.Document(indexedContent, targetChunkingVersion)
		if err := rebuildDocChunks(db, doc.ID, chunks, embedding, summary); err != nil {
			return err
		}
		return storage.UpdateDocFullMetadata(db, doc.ID, docHash, f.size, f.mtimeNS, model, targetDim, indexedContent)
	}

	if doc.LastHash.Valid && doc.LastHash.String == docHash &&
		doc.LastEmbeddingModel.Valid && doc.LastEmbeddingModel.String == model &&
		doc.LastEmbeddingDim.Valid && doc.LastEmbeddingDim.Int64 == int64(targetDim) {
		if action.sourceStatChanged {
			return storage.UpdateDocStat(db, doc.ID, f.size, f.mtimeNS)
		}
		return nil
	}

	chunks := chunk.Document(indexedContent, targetChunkingVersion)
	forceReembedAll := embeddingTargetChanged(doc, model, targetDim)
	if err := syncSegmentsForDoc(db, doc.ID, chunks, embedding, forceReembedAll, summary); err != nil {
		return err
	}
	return storage.UpdateDocFullMetadata(db, doc.ID, docHash, f.size, f.mtimeNS, model, targetDim, indexedContent)
}

func dirOf(relPath string) string {
	idx := lastSlash(relPath)
	if idx < 0 {
		return ""
	}
	return relPath[:idx]
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

