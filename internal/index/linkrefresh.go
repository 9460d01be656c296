package index

import (
	"path"
	"strings"
)

// relPathQueryKeys returns every shortest-to-full path-suffix query key a
// wiki link could have used to reach relPath, lowercased and extension
// stripped.
func relPathQueryKeys(relPath string) map[string]struct{} {
	keys := map[string]struct{}{}

	noExtLower := relPathNoExtLower(relPath)
	if noExtLower == "" {
		return keys
	}

	var segments []string
	for _, seg := range strings.Split(noExtLower, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return keys
	}

	for suffixLen := 1; suffixLen <= len(segments); suffixLen++ {
		key := strings.Join(segments[len(segments)-suffixLen:], "/")
		if key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}

func relPathNoExtLower(relPath string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(relPath, "\\", "/"))
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if strings.HasSuffix(lower, ".mdx") {
		return strings.ToLower(normalized[:len(normalized)-4])
	}
	if strings.HasSuffix(lower, ".md") {
		return strings.ToLower(normalized[:len(normalized)-3])
	}

	base := path.Base(normalized)
	ext := path.Ext(base)
	return strings.ToLower(strings.TrimSuffix(base, ext))
}

// collectQueryKeysForPaths unions relPathQueryKeys over every path.
func collectQueryKeysForPaths(paths []string) map[string]struct{} {
	keys := map[string]struct{}{}
	for _, p := range paths {
		for k := range relPathQueryKeys(p) {
			keys[k] = struct{}{}
		}
	}
	return keys
}
