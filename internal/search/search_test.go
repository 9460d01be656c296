package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mditgo/mditgo/internal/embedclient"
	"github.com/mditgo/mditgo/internal/index"
	"github.com/mditgo/mditgo/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func padded(body string) string {
	return "# Title\n\n" + body + "\n\n" + strings.Repeat("lorem ipsum dolor sit amet. ", 20)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestSearchNotesForQueryEmptyQueryReturnsEmpty(t *testing.T) {
	db := openTestDB(t)
	entries, err := SearchNotesForQuery(context.Background(), db.Conn(), t.TempDir(), "   ", "", "")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSearchNotesForQueryMissingVaultReturnsEmpty(t *testing.T) {
	db := openTestDB(t)
	entries, err := SearchNotesForQuery(context.Background(), db.Conn(), t.TempDir(), "solstice", "", "")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSearchNotesForQueryBM25OnlyRanksMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alpha.md", padded("the solstice festival begins"))
	writeFile(t, root, "beta.md", padded("an unrelated note about gardening"))

	db := openTestDB(t)
	_, err := index.IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	entries, err := SearchNotesForQuery(context.Background(), db.Conn(), root, "solstice", "", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "alpha.md", filepath.Base(entries[0].Path))
}

func TestSearchNotesForQueryDropsNotesBelowMinBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tiny.md", "solstice\n")

	db := openTestDB(t)
	_, err := index.IndexWorkspace(context.Background(), db.Conn(), root, "", "", false)
	require.NoError(t, err)

	entries, err := SearchNotesForQuery(context.Background(), db.Conn(), root, "solstice", "", "")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestNormalizeCollapsesWhenSpanIsZero(t *testing.T) {
	scores := map[int64]float64{1: 0.5, 2: 0.5}
	out := normalize(scores)
	require.Equal(t, 1.0, out[1])
	require.Equal(t, 1.0, out[2])
}

func TestNormalizeScalesToUnitRange(t *testing.T) {
	scores := map[int64]float64{1: 0, 2: 5, 3: 10}
	out := normalize(scores)
	require.InDelta(t, 0.0, out[1], 1e-9)
	require.InDelta(t, 0.5, out[2], 1e-9)
	require.InDelta(t, 1.0, out[3], 1e-9)
}

func TestCombineScoresVectorDominatesWhenPresent(t *testing.T) {
	// doc 1 is the semantic match, doc 2 the keyword match; with any vector
	// scores present the 70/30 mix must rank the semantic match first.
	bm25 := map[int64]float64{1: 0.1, 2: 1.3}
	vec := map[int64]float64{1: 0.9, 2: 0.2}

	combined := combineScores(bm25, vec)
	require.Len(t, combined, 2)
	require.Equal(t, int64(1), combined[0].docID)
	require.Equal(t, int64(2), combined[1].docID)
}

func TestCombineScoresBM25OnlyWithoutVectorScores(t *testing.T) {
	// The lowest score normalizes to 0.0 and falls under the floor; the
	// remaining two keep their BM25 ordering.
	bm25 := map[int64]float64{1: 2.0, 2: 5.0, 3: 8.0}

	combined := combineScores(bm25, nil)
	require.Len(t, combined, 2)
	require.Equal(t, int64(3), combined[0].docID)
	require.InDelta(t, 1.0, combined[0].final, 1e-9)
	require.Equal(t, int64(2), combined[1].docID)
}

func TestCombineScoresDropsSubFloorResults(t *testing.T) {
	// With the span normalized, the lowest of three scores lands at 0.0 and
	// falls under the minimum-score floor.
	bm25 := map[int64]float64{1: 0.0, 2: 5.0, 3: 10.0}
	combined := combineScores(bm25, nil)
	require.Len(t, combined, 2)
}

func TestEscapeFTS5PhraseDoublesQuotes(t *testing.T) {
	require.Equal(t, `"hello ""world"""`, escapeFTS5Phrase(`hello "world"`))
}

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Generate(ctx context.Context, text string) (embedclient.Vector, error) {
	c.calls++
	return embedclient.Vector{Dim: 2, Bytes: make([]byte, 8)}, nil
}
func (c *countingEmbedder) Provider() string { return "fake" }
func (c *countingEmbedder) Model() string    { return "fake-model" }

func TestGenerateQueryEmbeddingCachesByProviderModelText(t *testing.T) {
	embedder := &countingEmbedder{}
	_, err := generateQueryEmbedding(context.Background(), embedder, "fake", "fake-model", "unique query for cache test")
	require.NoError(t, err)
	_, err = generateQueryEmbedding(context.Background(), embedder, "fake", "fake-model", "unique query for cache test")
	require.NoError(t, err)
	require.Equal(t, 1, embedder.calls)
}
