package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentSplitsOnMajorHeadings(t *testing.T) {
	text := "# Intro\nhello\n## Sub\nworld\n### Deep\nmore\n"
	chunks := Document(text, CurrentVersion)
	require.Len(t, chunks, 3)
	require.Contains(t, chunks[0], "# Intro")
	require.Contains(t, chunks[1], "## Sub")
	require.Contains(t, chunks[2], "### Deep")
}

func TestDocumentFallsBackToWholeTextWithoutHeadings(t *testing.T) {
	chunks := Document("just prose, no headings here\n", CurrentVersion)
	require.Len(t, chunks, 1)
	require.Equal(t, "just prose, no headings here", chunks[0])
}

func TestDocumentUnknownVersionFallsBackToV1(t *testing.T) {
	a := Document("# H\nbody\n", CurrentVersion)
	b := Document("# H\nbody\n", 99)
	require.Equal(t, a, b)
}

func TestDocumentEmptyInputProducesNoChunks(t *testing.T) {
	require.Empty(t, Document("   \n\n", CurrentVersion))
}

func TestDocumentSplitsOversizedSectionByTokens(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Big\n")
	for i := 0; i < 3000; i++ {
		b.WriteString("word ")
	}
	chunks := Document(b.String(), CurrentVersion)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, countTokens(c), MaxTokensPerChunk)
	}
}

func TestHashContentIsDeterministicAndDistinct(t *testing.T) {
	h1 := HashContent("hello world")
	h2 := HashContent("hello world")
	h3 := HashContent("hello world!")
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
	require.Len(t, h1, 64)
}

func TestIsMajorHeadingLine(t *testing.T) {
	require.True(t, isMajorHeadingLine("# Title"))
	require.True(t, isMajorHeadingLine("## Title"))
	require.True(t, isMajorHeadingLine("### Title"))
	require.False(t, isMajorHeadingLine("#### Title"))
	require.False(t, isMajorHeadingLine("#NoSpace"))
	require.True(t, isMajorHeadingLine("#"))
	require.False(t, isMajorHeadingLine("no heading"))
}
