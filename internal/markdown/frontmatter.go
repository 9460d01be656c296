// Package markdown provides the note-text utilities the indexer needs
// before chunking and embedding: YAML frontmatter extraction, the
// "indexing text" formatter (frontmatter values + body, keys dropped), and
// a minimal preview extractor.
package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	bom             = '\uFEFF'
	zeroWidthSpace  = '\u200B'
	frontmatterMark = "---"
)

// StripHiddenChars removes a leading byte-order-mark and zero-width spaces
// that editors sometimes inject.
func StripHiddenChars(raw string) string {
	if !strings.ContainsAny(raw, string(bom)+string(zeroWidthSpace)) {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == bom || r == zeroWidthSpace {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitFrontmatter separates a leading `---`-delimited YAML block from the
// document body. If raw has no well-formed frontmatter block, frontmatter
// is empty and body is raw unchanged.
func SplitFrontmatter(raw string) (frontmatter, body string) {
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	if !strings.HasPrefix(trimmed, frontmatterMark) {
		return "", raw
	}
	leadingWS := len(raw) - len(trimmed)

	// rawLines includes the trailing newline (if any) on every element
	// except possibly the last, so re-joining slices reproduces raw exactly.
	rawLines := splitKeepEnds(trimmed)
	if len(rawLines) == 0 || strings.TrimSpace(strings.TrimRight(rawLines[0], "\r\n")) != frontmatterMark {
		return "", raw
	}

	offset := len(rawLines[0])
	for i := 1; i < len(rawLines); i++ {
		content := strings.TrimRight(rawLines[i], "\r\n")
		if strings.TrimSpace(content) == frontmatterMark {
			fmStart := leadingWS + len(rawLines[0])
			fmEnd := leadingWS + offset
			bodyStart := fmEnd + len(rawLines[i])
			return raw[fmStart:fmEnd], raw[bodyStart:]
		}
		offset += len(rawLines[i])
	}

	return "", raw
}

// splitKeepEnds splits s into lines, keeping each line's trailing "\n" (if
// any) attached, so concatenating the result reproduces s exactly.
func splitKeepEnds(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// ParseFrontmatter parses the YAML inside a frontmatter block (as returned
// by SplitFrontmatter) into a generic map. Non-mapping or invalid YAML
// yields an empty map rather than an error.
func ParseFrontmatter(frontmatter string) map[string]any {
	payload := frontmatterPayload(frontmatter)
	if strings.TrimSpace(payload) == "" {
		return map[string]any{}
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(payload), &node); err != nil {
		return map[string]any{}
	}
	if len(node.Content) == 0 {
		return map[string]any{}
	}

	var out map[string]any
	if err := node.Content[0].Decode(&out); err != nil {
		return map[string]any{}
	}
	if out == nil {
		return map[string]any{}
	}
	return out
}

// frontmatterPayload strips the leading and trailing `---` delimiter lines
// from a frontmatter block, leaving only the YAML body.
func frontmatterPayload(frontmatter string) string {
	lines := strings.Split(frontmatter, "\n")
	if len(lines) >= 1 && strings.TrimSpace(lines[0]) == frontmatterMark {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == frontmatterMark {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

// CollectScalarValues walks a parsed frontmatter map depth-first and
// appends the string form of every scalar leaf (skipping blank strings and
// nulls), dropping all map keys and array indices along the way.
func CollectScalarValues(value any) []string {
	var out []string
	collectScalars(value, &out)
	return out
}

func collectScalars(value any, out *[]string) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		if strings.TrimSpace(v) != "" {
			*out = append(*out, v)
		}
	case bool:
		*out = append(*out, boolString(v))
	case int:
		*out = append(*out, intString(int64(v)))
	case int64:
		*out = append(*out, intString(v))
	case float64:
		*out = append(*out, floatString(v))
	case []any:
		for _, item := range v {
			collectScalars(item, out)
		}
	case map[string]any:
		for _, item := range v {
			collectScalars(item, out)
		}
	default:
		// Unknown scalar kinds (e.g. time.Time from YAML date tags) are
		// skipped.
	}
}
