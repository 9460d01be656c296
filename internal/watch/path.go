package watch

import (
	"path/filepath"
	"strings"
)

// toVaultRelPath converts an absolute or watcher-relative event path into
// a forward-slash, vault-relative path. Parent-directory traversal or a
// path outside vaultRoot is rejected.
func toVaultRelPath(vaultRoot, eventPath string) (string, bool) {
	candidate := eventPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(vaultRoot, candidate)
	}

	rel, err := filepath.Rel(vaultRoot, candidate)
	if err != nil {
		return "", false
	}
	return normalizeRelPath(rel)
}

func normalizeRelPath(rel string) (string, bool) {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return "", false
	}

	parts := strings.Split(rel, "/")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			// skip
		case "..":
			return "", false
		default:
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, "/"), true
}
