package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatIndexingTextDropsFrontmatterKeysKeepsValues(t *testing.T) {
	raw := "---\ntitle: Search Title\ntags:\n  - rust\n---\n# Heading\nBody"
	got := FormatIndexingText(raw)

	require.Contains(t, got, "Search Title")
	require.Contains(t, got, "rust")
	require.Contains(t, got, "# Heading")
	require.Contains(t, got, "Body")
	require.NotContains(t, got, "title:")
	require.NotContains(t, got, "tags:")
}

func TestFormatIndexingTextNoFrontmatterKeepsBodyVerbatim(t *testing.T) {
	raw := "# Heading\n\n- [x] Task\n`code` and [link](https://example.com)"
	require.Equal(t, raw, FormatIndexingText(raw))
}

func TestFormatIndexingTextInvalidFrontmatterIgnoresBlock(t *testing.T) {
	raw := "---\ntitle: [unterminated\n---\nBody text"
	got := FormatIndexingText(raw)
	require.NotContains(t, got, "title")
	require.Equal(t, "Body text", got)
}

func TestFormatIndexingTextUnclosedFrontmatterKeepsDelimitersAsBody(t *testing.T) {
	raw := "---\ntitle: Hello\n# Heading"
	got := FormatIndexingText(raw)
	require.Contains(t, got, "title: Hello")
	require.Contains(t, got, "# Heading")
}

func TestSplitFrontmatterRoundTripsRawWhenAbsent(t *testing.T) {
	fm, body := SplitFrontmatter("# Title\nBody")
	require.Empty(t, fm)
	require.Equal(t, "# Title\nBody", body)
}

func TestFormatPreviewTextStripsStructureKeepsProse(t *testing.T) {
	raw := "---\ntitle: Hello\n---\n# Heading\nSome **bold** text.\n```\ncode\n```\n"
	got := FormatPreviewText(raw)
	require.Contains(t, got, "Heading")
	require.Contains(t, got, "Some")
	require.Contains(t, got, "bold")
	require.NotContains(t, got, "code")
	require.NotContains(t, got, "title")
}

func TestCollectScalarValuesFlattensNestedStructures(t *testing.T) {
	values := CollectScalarValues(map[string]any{
		"title": "Hello World",
		"meta": map[string]any{
			"priority": 2,
			"pinned":   true,
		},
		"tags": []any{"rust", "search"},
	})
	require.Contains(t, values, "Hello World")
	require.Contains(t, values, "rust")
	require.Contains(t, values, "search")
}
