package facade

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mditgo/mditgo/internal/config"
	"github.com/mditgo/mditgo/internal/errors"
	"github.com/mditgo/mditgo/internal/logging"
	"github.com/mditgo/mditgo/internal/storage"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	db, err := storage.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, config.Default(), logging.Nop())
}

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestIndexWorkspaceAndSearchRoundTrip(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()
	writeNote(t, root, "a.md", "# Alpha\nsome searchable keyword content\n\n"+strings.Repeat("lorem ipsum dolor sit amet. ", 20))

	summary, err := f.IndexWorkspace(context.Background(), root, false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.DocsInserted)

	entries, err := f.SearchNotesForQuery(context.Background(), root, "keyword", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a.md", filepath.Base(entries[0].Path))
}

func TestSearchNotesForQueryRejectsEmptyQuery(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	_, err := f.SearchNotesForQuery(context.Background(), root, "   ", 10)
	require.Error(t, err)
	require.Equal(t, errors.CodeInvalidSearchQuery, errors.CodeOf(err))
}

func TestSearchNotesForQueryRejectsOutOfRangeLimit(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	_, err := f.SearchNotesForQuery(context.Background(), root, "hello", 10000)
	require.Error(t, err)
	require.Equal(t, errors.CodeInvalidSearchLimit, errors.CodeOf(err))
}

func TestCreateNoteRejectsExistingFile(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()
	writeNote(t, root, "exists.md", "# already here\n")

	_, err := f.CreateNote(context.Background(), root, "exists.md", []byte("new"))
	require.Error(t, err)
	require.Equal(t, errors.CodeNoteAlreadyExists, errors.CodeOf(err))
}

func TestCreateNoteRejectsTraversal(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	_, err := f.CreateNote(context.Background(), root, "../outside.md", nil)
	require.Error(t, err)
	require.Equal(t, errors.CodeInvalidDirectoryRelPath, errors.CodeOf(err))
}

func TestCreateNoteWritesAndIndexesImmediately(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	summary, err := f.CreateNote(context.Background(), root, "new.md", []byte("# New\nbody"))
	require.NoError(t, err)
	require.Equal(t, 1, summary.DocsInserted)

	meta, err := f.GetIndexingMeta(root)
	require.NoError(t, err)
	require.Equal(t, 1, meta.IndexedDocCount)
}

func TestWorkspaceLifecycle(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	require.NoError(t, f.TouchWorkspace(root))

	vaults, err := f.ListWorkspaces()
	require.NoError(t, err)
	require.Len(t, vaults, 1)

	require.NoError(t, f.SetEmbeddingConfig(root, "ollama", "nomic-embed-text"))
	provider, model, ok, err := f.GetEmbeddingConfig(root)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ollama", provider)
	require.Equal(t, "nomic-embed-text", model)

	require.NoError(t, f.RemoveWorkspace(root))
	vaults, err = f.ListWorkspaces()
	require.NoError(t, err)
	require.Empty(t, vaults)
}

func TestResolveWikiLinkTargetOnEmptyVault(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	target, err := f.ResolveWikiLinkTarget(root, "missing", nil)
	require.NoError(t, err)
	require.True(t, target.Unresolved)
}

func TestWatchDriverIndexesCreatedFile(t *testing.T) {
	f := newTestFacade(t)
	root := t.TempDir()

	handle, err := f.WatchDriver(root)
	require.NoError(t, err)
	defer handle.Stop()

	writeNote(t, root, "watched.md", "# Watched\nenough content to be a real note for materialization thresholds to pass cleanly here.")

	require.Eventually(t, func() bool {
		meta, err := f.GetIndexingMeta(root)
		return err == nil && meta.IndexedDocCount == 1
	}, 5*time.Second, 50*time.Millisecond)
}
