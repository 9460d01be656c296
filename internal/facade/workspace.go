package facade

import (
	"github.com/mditgo/mditgo/internal/storage"
)

// ListWorkspaces returns every known vault, most-recently-opened first.
func (f *Facade) ListWorkspaces() ([]storage.Vault, error) {
	vaults, err := storage.ListWorkspaces(f.conn())
	if err != nil {
		return nil, translateIndexError(err)
	}
	return vaults, nil
}

// TouchWorkspace records root as opened, creating its vault row if this is
// the first time root has been seen.
func (f *Facade) TouchWorkspace(root string) error {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return err
	}
	if err := storage.TouchWorkspace(f.conn(), canonicalRoot); err != nil {
		return translateIndexError(err)
	}
	return nil
}

// RemoveWorkspace forgets root's vault row. It does not touch the
// underlying markdown files, only the index's own bookkeeping.
func (f *Facade) RemoveWorkspace(root string) error {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return err
	}
	if err := storage.RemoveWorkspace(f.conn(), root, canonicalRoot); err != nil {
		return translateIndexError(err)
	}
	return nil
}

// GetEmbeddingConfig returns root's vault's configured embedding provider
// and model, if any have been set.
func (f *Facade) GetEmbeddingConfig(root string) (provider, model string, ok bool, err error) {
	canonicalRoot, cerr := storage.CanonicalizeRoot(root)
	if cerr != nil {
		return "", "", false, cerr
	}
	provider, model, ok, err = storage.GetEmbeddingConfig(f.conn(), canonicalRoot)
	if err != nil {
		return "", "", false, translateIndexError(err)
	}
	return provider, model, ok, nil
}

// SetEmbeddingConfig sets (or, with an empty model, clears) root's vault's
// embedding provider and model. Changing the configured model does not by
// itself rebuild stored vectors; a subsequent index_workspace with
// force=true is required to re-embed existing notes under the new model.
func (f *Facade) SetEmbeddingConfig(root, provider, model string) error {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return err
	}
	if _, err := storage.EnsureVault(f.conn(), canonicalRoot); err != nil {
		return translateIndexError(err)
	}
	if err := storage.SetEmbeddingConfig(f.conn(), canonicalRoot, provider, model); err != nil {
		return translateIndexError(err)
	}
	return nil
}
