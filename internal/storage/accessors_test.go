package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mditgo/mditgo/internal/links"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsureVaultIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	root, err := CanonicalizeRoot(t.TempDir())
	require.NoError(t, err)

	id1, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)
	id2, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestEmbeddingConfigRoundTrip(t *testing.T) {
	db := openTestDB(t)
	root, _ := CanonicalizeRoot(t.TempDir())
	_, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)

	_, _, ok, err := GetEmbeddingConfig(db.Conn(), root)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, SetEmbeddingConfig(db.Conn(), root, "", "nomic-embed-text"))
	provider, model, ok, err := GetEmbeddingConfig(db.Conn(), root)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ollama", provider)
	require.Equal(t, "nomic-embed-text", model)

	require.NoError(t, SetEmbeddingConfig(db.Conn(), root, "", ""))
	_, _, ok, err = GetEmbeddingConfig(db.Conn(), root)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDocLifecycle(t *testing.T) {
	db := openTestDB(t)
	root, _ := CanonicalizeRoot(t.TempDir())
	vaultID, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)

	docID, err := InsertDoc(db.Conn(), vaultID, "notes/a.md", 1)
	require.NoError(t, err)
	require.NotZero(t, docID)

	docs, err := LoadDocs(db.Conn(), vaultID)
	require.NoError(t, err)
	require.Contains(t, docs, "notes/a.md")
	require.False(t, docs["notes/a.md"].LastHash.Valid)

	require.NoError(t, UpdateDocFullMetadata(db.Conn(), docID, "hash1", 100, 200, "ollama:nomic", 768, "content"))

	found, err := FindDocByRelPath(db.Conn(), vaultID, "notes/a.md")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.True(t, found.LastHash.Valid)
	require.Equal(t, "hash1", found.LastHash.String)

	count, err := IndexedDocCount(db.Conn(), vaultID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	dims, err := DistinctDimsForVault(db.Conn(), vaultID)
	require.NoError(t, err)
	require.Equal(t, []int64{768}, dims)

	deleted, err := DeleteDocsNotIn(db.Conn(), vaultID, map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, []string{"notes/a.md"}, deleted)

	missing, err := FindDocByRelPath(db.Conn(), vaultID, "notes/a.md")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSegmentLifecycle(t *testing.T) {
	db := openTestDB(t)
	root, _ := CanonicalizeRoot(t.TempDir())
	vaultID, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)
	docID, err := InsertDoc(db.Conn(), vaultID, "a.md", 1)
	require.NoError(t, err)

	segID, err := InsertSegment(db.Conn(), docID, 0, "h0", "chunk 0")
	require.NoError(t, err)

	states, err := LoadSegmentsByOrdinal(db.Conn(), docID)
	require.NoError(t, err)
	require.Contains(t, states, 0)
	require.False(t, states[0].HasEmbedding)

	require.NoError(t, UpsertSegmentVector(db.Conn(), segID, []byte{1, 2, 3, 4}, 1))
	states, err = LoadSegmentsByOrdinal(db.Conn(), docID)
	require.NoError(t, err)
	require.True(t, states[0].HasEmbedding)

	_, err = InsertSegment(db.Conn(), docID, 1, "h1", "chunk 1")
	require.NoError(t, err)
	require.NoError(t, DeleteSegmentsWithOrdinalAtLeast(db.Conn(), docID, 1))

	states, err = LoadSegmentsByOrdinal(db.Conn(), docID)
	require.NoError(t, err)
	require.Len(t, states, 1)
}

func TestReplaceLinksForSourceAndBacklinks(t *testing.T) {
	db := openTestDB(t)
	root, _ := CanonicalizeRoot(t.TempDir())
	vaultID, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)

	sourceID, err := InsertDoc(db.Conn(), vaultID, "source.md", 1)
	require.NoError(t, err)
	targetID, err := InsertDoc(db.Conn(), vaultID, "target.md", 1)
	require.NoError(t, err)

	resolution := links.Resolution{
		Links: []links.ResolvedLink{
			{TargetDocID: &targetID, TargetPath: "target.md"},
		},
		WikiQueryKeys: map[string]struct{}{"target": {}},
	}

	written, deleted, err := ReplaceLinksForSource(db.Conn(), vaultID, sourceID, resolution)
	require.NoError(t, err)
	require.Equal(t, 1, written)
	require.Equal(t, 0, deleted)

	backlinks, err := Backlinks(db.Conn(), vaultID, targetID, "target.md")
	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	require.Equal(t, sourceID, backlinks[0].SourceDocID)

	sources, err := SourcesForQueryKeys(db.Conn(), vaultID, map[string]struct{}{"target": {}})
	require.NoError(t, err)
	require.True(t, sources[sourceID])

	edges, err := GraphEdges(db.Conn(), vaultID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, targetID, edges[0].TargetDocID)

	written, deleted, err = ReplaceLinksForSource(db.Conn(), vaultID, sourceID, links.Resolution{})
	require.NoError(t, err)
	require.Equal(t, 0, written)
	require.Equal(t, 1, deleted)
}

func TestRebindUnresolvedLinks(t *testing.T) {
	db := openTestDB(t)
	root, _ := CanonicalizeRoot(t.TempDir())
	vaultID, err := EnsureVault(db.Conn(), root)
	require.NoError(t, err)
	sourceID, err := InsertDoc(db.Conn(), vaultID, "source.md", 1)
	require.NoError(t, err)

	resolution := links.Resolution{
		Links:         []links.ResolvedLink{{TargetDocID: nil, TargetPath: "missing.md"}},
		WikiQueryKeys: map[string]struct{}{},
	}
	_, _, err = ReplaceLinksForSource(db.Conn(), vaultID, sourceID, resolution)
	require.NoError(t, err)

	targetID, err := InsertDoc(db.Conn(), vaultID, "missing.md", 1)
	require.NoError(t, err)

	affected, err := RebindUnresolvedLinks(db.Conn(), vaultID, targetID, "missing.md")
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	backlinks, err := Backlinks(db.Conn(), vaultID, targetID, "missing.md")
	require.NoError(t, err)
	require.Len(t, backlinks, 1)
}
