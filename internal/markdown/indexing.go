package markdown

import (
	"strconv"
	"strings"
)

// FormatIndexingText produces the text mditgo stores as doc.content: the
// frontmatter's scalar *values* (keys dropped) followed by the body, with
// the original frontmatter delimiters and keys removed entirely. A closed
// frontmatter block whose YAML is invalid contributes no values but is
// still removed; absent or unclosed frontmatter leaves the whole text as the
// body. The body is trimmed of surrounding whitespace.
func FormatIndexingText(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := StripHiddenChars(raw)
	frontmatter, body := SplitFrontmatter(cleaned)

	var parts []string
	if frontmatter != "" {
		values := CollectScalarValues(ParseFrontmatter(frontmatter))
		if len(values) > 0 {
			parts = append(parts, strings.Join(values, "\n"))
		}
	}

	body = strings.TrimSpace(body)
	if body != "" {
		parts = append(parts, body)
	}

	return strings.Join(parts, "\n\n")
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func intString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func floatString(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
