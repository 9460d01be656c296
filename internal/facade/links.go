package facade

import (
	"github.com/mditgo/mditgo/internal/index"
	"github.com/mditgo/mditgo/internal/links"
	"github.com/mditgo/mditgo/internal/storage"
)

// ResolveWikiLinkTarget resolves a raw `[[target]]` string against root's
// vault independent of any stored link row. currentNotePath, if non-nil,
// breaks basename ties in favor of the querying note's own directory.
func (f *Facade) ResolveWikiLinkTarget(root, rawTarget string, currentNotePath *string) (links.WikiLinkTarget, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return links.WikiLinkTarget{}, err
	}

	vaultID, ok, err := storage.FindVaultID(f.conn(), canonicalRoot)
	if err != nil {
		return links.WikiLinkTarget{}, err
	}
	if !ok {
		return links.ResolveWikiLinkTarget(currentNotePath, rawTarget, nil), nil
	}

	docs, err := storage.LoadDocs(f.conn(), vaultID)
	if err != nil {
		return links.WikiLinkTarget{}, err
	}
	relPaths := make([]string, 0, len(docs))
	for relPath := range docs {
		relPaths = append(relPaths, relPath)
	}

	return links.ResolveWikiLinkTarget(currentNotePath, rawTarget, relPaths), nil
}

// GetBacklinks returns every document linking to filePath within root's
// vault.
func (f *Facade) GetBacklinks(root, filePath string) ([]index.Backlink, error) {
	backlinks, err := index.GetBacklinks(f.conn(), root, filePath)
	if err != nil {
		return nil, translateIndexError(err)
	}
	return backlinks, nil
}

// GetGraphViewData returns the full node/edge set for root's vault's link
// graph.
func (f *Facade) GetGraphViewData(root string) (*index.GraphView, error) {
	view, err := index.GetGraphViewData(f.conn(), root)
	if err != nil {
		return nil, translateIndexError(err)
	}
	return view, nil
}
