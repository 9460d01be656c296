// Package index is mditgo's index synchronizer: it walks a vault,
// decides per file what work is needed, and keeps doc/segment/link rows
// in sync with the files on disk.
package index

import (
	"os"
	"path/filepath"
	"strings"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// stateDirName is the reserved per-vault state directory excluded from
// every workspace walk.
const stateDirName = ".mdit"

// file is one discovered markdown source: its vault-relative path, its
// absolute path, and its stat snapshot.
type file struct {
	relPath string
	absPath string
	size    int64
	mtimeNS int64
}

// collectMarkdownFiles walks workspaceRoot, skipping the state directory,
// and returns every ".md" or ".mdx" file found (extension matched
// case-insensitively), relative paths forward-slash normalized.
func collectMarkdownFiles(workspaceRoot string) ([]file, error) {
	var files []file
	err := filepath.WalkDir(workspaceRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != workspaceRoot && d.Name() == stateDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(path) {
			return nil
		}
		rel, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, file{
			relPath: normalizeRelPath(rel),
			absPath: path,
			size:    info.Size(),
			mtimeNS: info.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "walking workspace")
	}
	return files, nil
}

func isMarkdown(path string) bool {
	ext := filepath.Ext(path)
	return strings.EqualFold(ext, ".md") || strings.EqualFold(ext, ".mdx")
}

func normalizeRelPath(rel string) string {
	return filepath.ToSlash(rel)
}

// buildSingleMarkdownFile validates and stats a single note path for
// index_note, rejecting non-markdown files and paths outside the
// canonicalized workspace.
func buildSingleMarkdownFile(workspaceRoot, notePath string) (file, error) {
	if !isMarkdown(notePath) {
		return file{}, mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "index: note path must be a markdown file (.md or .mdx): "+notePath)
	}

	workspaceCanonical, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return file{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "canonicalizing workspace root")
	}
	// A relative note path is vault-relative, not CWD-relative.
	if !filepath.IsAbs(notePath) {
		notePath = filepath.Join(workspaceCanonical, filepath.FromSlash(notePath))
	}
	noteCanonical, err := filepath.Abs(notePath)
	if err != nil {
		return file{}, mditerrors.Wrap(mditerrors.CodeInternalError, err, "canonicalizing note path")
	}
	info, err := os.Stat(noteCanonical)
	if err != nil {
		return file{}, mditerrors.Wrap(mditerrors.CodeNoteNotFound, err, "stating note path")
	}
	if info.IsDir() {
		return file{}, mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "index: note path is not a file: "+notePath)
	}

	rel, err := filepath.Rel(workspaceCanonical, noteCanonical)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file{}, mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "index: note path is outside workspace: "+notePath)
	}

	return file{
		relPath: normalizeRelPath(rel),
		absPath: noteCanonical,
		size:    info.Size(),
		mtimeNS: info.ModTime().UnixNano(),
	}, nil
}
