package facade

import (
	"path/filepath"
	"strconv"
	"strings"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// validateSearchQuery rejects an empty or whitespace-only query.
func validateSearchQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return mditerrors.New(mditerrors.CodeInvalidSearchQuery, "search query must not be empty")
	}
	return nil
}

// validateSearchLimit rejects a limit outside [1, maxLimit] rather than
// silently clamping it.
func validateSearchLimit(limit, maxLimit int) error {
	if limit < 1 || limit > maxLimit {
		return mditerrors.New(mditerrors.CodeInvalidSearchLimit, "search limit out of range").
			WithDetail("limit", strconv.Itoa(limit)).
			WithDetail("max_limit", strconv.Itoa(maxLimit))
	}
	return nil
}

// validateVaultRelPath rejects an absolute path, a path that escapes the
// vault via "..", a path entering the reserved state directory, or a
// non-markdown extension.
func validateVaultRelPath(relPath string) error {
	if relPath == "" {
		return mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "relative path must not be empty")
	}
	if filepath.IsAbs(relPath) {
		return mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "path must be relative to the vault").
			WithDetail("path", relPath)
	}
	cleaned := filepath.ToSlash(filepath.Clean(relPath))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "path escapes the vault").
			WithDetail("path", relPath)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".mdit" {
			return mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "path enters the reserved state directory").
				WithDetail("path", relPath)
		}
	}
	lower := strings.ToLower(cleaned)
	if !strings.HasSuffix(lower, ".md") && !strings.HasSuffix(lower, ".mdx") {
		return mditerrors.New(mditerrors.CodeInvalidDirectoryRelPath, "path must have a .md or .mdx extension").
			WithDetail("path", relPath)
	}
	return nil
}
