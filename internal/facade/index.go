package facade

import (
	"context"
	"os"
	"path/filepath"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
	"github.com/mditgo/mditgo/internal/index"
	"github.com/mditgo/mditgo/internal/storage"
)

// resolvedEmbedding returns the provider/model to index with: the vault's
// own stored configuration if set, else the facade's process-wide default.
// A vault's configuration always wins over the process default.
func (f *Facade) resolvedEmbedding(root string) (provider, model string) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return f.cfg.Embedding.Provider, f.cfg.Embedding.Model
	}
	if p, m, ok, err := storage.GetEmbeddingConfig(f.conn(), canonicalRoot); err == nil && ok {
		return p, m
	}
	return f.cfg.Embedding.Provider, f.cfg.Embedding.Model
}

// IndexWorkspace re-enumerates root and synchronizes every markdown file
// against the vault's stored state.
func (f *Facade) IndexWorkspace(ctx context.Context, root string, force bool) (*index.Summary, error) {
	provider, model := f.resolvedEmbedding(root)
	summary, err := index.IndexWorkspace(ctx, f.conn(), root, provider, model, force)
	if err != nil {
		return nil, translateIndexError(err)
	}
	return summary, nil
}

// IndexNote synchronizes a single vault-relative note path. It never prunes
// other docs from the index.
func (f *Facade) IndexNote(ctx context.Context, root, notePath string) (*index.Summary, error) {
	provider, model := f.resolvedEmbedding(root)
	summary, err := index.IndexNote(ctx, f.conn(), root, notePath, provider, model)
	if err != nil {
		return nil, translateIndexError(err)
	}
	return summary, nil
}

// GetIndexingMeta reports lightweight status for root's vault.
func (f *Facade) GetIndexingMeta(root string) (*index.Meta, error) {
	meta, err := index.GetIndexingMeta(f.conn(), root)
	if err != nil {
		return nil, translateIndexError(err)
	}
	return meta, nil
}

// CreateNote creates a new note at relPath inside root's vault. It refuses
// to overwrite an existing file, refuses traversal or a non-markdown
// extension, writes body (or an empty stub), and immediately indexes the
// new note so it is searchable right away.
func (f *Facade) CreateNote(ctx context.Context, root, relPath string, body []byte) (*index.Summary, error) {
	if err := validateVaultRelPath(relPath); err != nil {
		return nil, err
	}

	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "canonicalizing workspace root")
	}

	absPath := filepath.Join(canonicalRoot, filepath.FromSlash(relPath))
	if _, err := os.Stat(absPath); err == nil {
		return nil, mditerrors.New(mditerrors.CodeNoteAlreadyExists, "note already exists").
			WithDetail("path", relPath)
	} else if !os.IsNotExist(err) {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "checking for existing note")
	}

	parentDir := filepath.Dir(absPath)
	if info, err := os.Stat(parentDir); err != nil || !info.IsDir() {
		return nil, mditerrors.New(mditerrors.CodeDirectoryNotFound, "parent directory does not exist").
			WithDetail("path", relPath)
	}

	if err := os.WriteFile(absPath, body, 0o644); err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "writing new note")
	}

	return f.IndexNote(ctx, root, relPath)
}

// translateIndexError maps an index-layer error onto the stable façade
// taxonomy. index/storage already return *errors.MditError for the cases
// that matter (conflict on dimension mismatch, internal failures); this
// only needs to pass those through and default anything unrecognized to
// INTERNAL_ERROR.
func translateIndexError(err error) error {
	if err == nil {
		return nil
	}
	var me *mditerrors.MditError
	if mditerrors.As(err, &me) {
		return me
	}
	return mditerrors.Wrap(mditerrors.CodeInternalError, err, "index operation failed")
}
