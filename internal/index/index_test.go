package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mditgo/mditgo/internal/embedclient"
	"github.com/mditgo/mditgo/internal/storage"
)

type fakeEmbedder struct {
	dim   int
	calls int
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string) (embedclient.Vector, error) {
	f.calls++
	bytes := make([]byte, f.dim*4)
	for i := range bytes {
		bytes[i] = byte(i)
	}
	return embedclient.Vector{Dim: f.dim, Bytes: bytes}, nil
}

func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Model() string    { return "fake-model" }

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRelPathQueryKeysReturnsNormalizedSuffixes(t *testing.T) {
	keys := relPathQueryKeys(`Docs\Team/Note.MDX `)
	require.Equal(t, map[string]struct{}{
		"note":           {},
		"team/note":      {},
		"docs/team/note": {},
	}, keys)
}

func TestCollectQueryKeysForPathsDeduplicates(t *testing.T) {
	keys := collectQueryKeysForPaths([]string{"docs/team/note.md", "archive/team/note.md"})
	require.Len(t, keys, 4)
	require.Contains(t, keys, "note")
	require.Contains(t, keys, "team/note")
	require.Contains(t, keys, "docs/team/note")
	require.Contains(t, keys, "archive/team/note")
}

func TestIndexWorkspaceInsertsAndResolvesLinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n\nSee [[b]] for details.\n")
	writeFile(t, root, "b.md", "# B\n\nContent of b.\n")

	db := openTestDB(t)
	summary, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)
	require.Equal(t, 2, summary.FilesDiscovered)
	require.Equal(t, 2, summary.DocsInserted)
	require.Equal(t, 2, summary.FilesProcessed)
	require.Equal(t, 1, summary.LinksWritten)

	canonicalRoot, err := storage.CanonicalizeRoot(root)
	require.NoError(t, err)
	vaultID, ok, err := storage.FindVaultID(db.Conn(), canonicalRoot)
	require.NoError(t, err)
	require.True(t, ok)

	docA, err := storage.FindDocByRelPath(db.Conn(), vaultID, "a.md")
	require.NoError(t, err)
	require.True(t, docA.LastHash.Valid)
}

func TestIndexWorkspaceSecondRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n\nhello [[b]]\n")
	writeFile(t, root, "b.md", "# B\n")

	db := openTestDB(t)
	_, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	summary, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)
	require.Equal(t, 0, summary.DocsInserted)
	require.Equal(t, 0, summary.DocsDeleted)
	require.Equal(t, 0, summary.LinksWritten)
	require.Equal(t, 0, summary.LinksDeleted)
	require.Equal(t, 0, summary.SegmentsCreated)
	require.Equal(t, 0, summary.SegmentsUpdated)
	require.Equal(t, 0, summary.EmbeddingsWritten)
	require.Equal(t, 2, summary.FilesProcessed)
}

func TestIndexNoteNeverPrunesOtherDocs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "See [[b]].\n")
	writeFile(t, root, "b.md", "# B\n")

	db := openTestDB(t)
	_, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))
	writeFile(t, root, "a.md", "# Updated\n")

	summary, err := IndexNote(context.Background(), db.Conn(), root, "a.md", "", "")
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesProcessed)
	require.Equal(t, 0, summary.DocsDeleted)

	meta, err := GetIndexingMeta(db.Conn(), root)
	require.NoError(t, err)
	require.Equal(t, 2, meta.IndexedDocCount)
}

func TestIndexWorkspaceRefreshesOnlyWikiDependentSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "depends.md", "See [[newnote]].\n")
	writeFile(t, root, "unrelated.md", "See [[other]].\n")

	db := openTestDB(t)
	_, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	writeFile(t, root, "newnote.md", "# New Note\n")

	summary, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)
	// Only depends.md re-resolves: its one wiki link now binds to the new
	// doc. unrelated.md's refs don't match "newnote" and stay untouched.
	require.Equal(t, 1, summary.LinksWritten)
	require.Equal(t, 1, summary.LinksDeleted)

	canonicalRoot, err := storage.CanonicalizeRoot(root)
	require.NoError(t, err)
	vaultID, _, err := storage.FindVaultID(db.Conn(), canonicalRoot)
	require.NoError(t, err)
	target, err := storage.FindDocByRelPath(db.Conn(), vaultID, "newnote.md")
	require.NoError(t, err)
	backlinks, err := storage.Backlinks(db.Conn(), vaultID, target.ID, "newnote.md")
	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	require.Equal(t, "depends.md", backlinks[0].RelPath)
}

func TestIndexWorkspacePrunesDeletedDocs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")
	writeFile(t, root, "b.md", "# B\n")

	db := openTestDB(t)
	_, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))

	summary, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.DocsDeleted)
	require.Equal(t, 1, summary.FilesDiscovered)
}

func TestIndexNoteRejectsOutsideWorkspace(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "x.md", "# X\n")

	db := openTestDB(t)
	_, err := IndexNote(context.Background(), db.Conn(), root, filepath.Join(outside, "x.md"), "", "")
	require.Error(t, err)
}

func TestGetIndexingMetaCountsIndexedDocs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")

	db := openTestDB(t)
	meta, err := GetIndexingMeta(db.Conn(), root)
	require.NoError(t, err)
	require.Equal(t, 0, meta.IndexedDocCount)

	_, err = IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	meta, err = GetIndexingMeta(db.Conn(), root)
	require.NoError(t, err)
	require.Equal(t, 1, meta.IndexedDocCount)
}

func TestRebuildDocChunksAndSyncSegments(t *testing.T) {
	db := openTestDB(t)
	root, _ := storage.CanonicalizeRoot(t.TempDir())
	vaultID, err := storage.EnsureVault(db.Conn(), root)
	require.NoError(t, err)
	docID, err := storage.InsertDoc(db.Conn(), vaultID, "a.md", 1)
	require.NoError(t, err)

	embedding := &embeddingContext{embedder: &fakeEmbedder{dim: 4}, targetDim: 4}
	summary := &Summary{}

	chunks := []string{"chunk one", "chunk two"}
	require.NoError(t, rebuildDocChunks(db.Conn(), docID, chunks, embedding, summary))
	require.Equal(t, 2, summary.SegmentsCreated)
	require.Equal(t, 2, summary.EmbeddingsWritten)

	states, err := storage.LoadSegmentsByOrdinal(db.Conn(), docID)
	require.NoError(t, err)
	require.Len(t, states, 2)
	require.True(t, states[0].HasEmbedding)

	summary2 := &Summary{}
	require.NoError(t, syncSegmentsForDoc(db.Conn(), docID, []string{"chunk one", "changed"}, embedding, false, summary2))
	require.Equal(t, 1, summary2.SegmentsUpdated)

	states, err = storage.LoadSegmentsByOrdinal(db.Conn(), docID)
	require.NoError(t, err)
	require.Len(t, states, 2)
}

func TestGetBacklinksAndGraphView(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "See [[b]].\n")
	writeFile(t, root, "b.md", "# B\n")

	db := openTestDB(t)
	_, err := IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	backlinks, err := GetBacklinks(db.Conn(), root, "b.md")
	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	require.Equal(t, "a.md", backlinks[0].RelPath)

	view, err := GetGraphViewData(db.Conn(), root)
	require.NoError(t, err)
	require.Len(t, view.Edges, 1)
}
