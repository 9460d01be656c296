package links

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolverResolvesWikiLinkToExistingDoc(t *testing.T) {
	docs := map[string]int64{"a.md": 1, "b.md": 2}
	r := NewResolver("/vault", docs)

	res := r.ResolveLinksWithDependencies("a.md", "", "[[b]]\n")
	require.Len(t, res.Links, 1)
	require.Equal(t, "b.md", res.Links[0].TargetPath)
	require.NotNil(t, res.Links[0].TargetDocID)
	require.Equal(t, int64(2), *res.Links[0].TargetDocID)
	require.Contains(t, res.WikiQueryKeys, "b")
}

func TestResolverLeavesUnresolvedWikiLinkWithTargetPath(t *testing.T) {
	docs := map[string]int64{"a.md": 1}
	r := NewResolver("/vault", docs)

	res := r.ResolveLinksWithDependencies("a.md", "", "[[missing]]\n")
	require.Len(t, res.Links, 1)
	require.Nil(t, res.Links[0].TargetDocID)
	require.Equal(t, "missing.md", res.Links[0].TargetPath)
}

func TestResolverPrefersSourceDirectory(t *testing.T) {
	docs := map[string]int64{"notes/a/note.md": 1, "notes/b/note.md": 2}
	r := NewResolver("/vault", docs)

	res := r.ResolveLinksWithDependencies("notes/b/source.md", "notes/b", "[[note]]\n")
	require.Len(t, res.Links, 1)
	require.Equal(t, "notes/b/note.md", res.Links[0].TargetPath)
}

func TestResolverSkipsWikiLinksInFencedCodeBlocks(t *testing.T) {
	docs := map[string]int64{"b.md": 1}
	r := NewResolver("/vault", docs)

	text := "```\n[[b]]\n```\n"
	res := r.ResolveLinksWithDependencies("a.md", "", text)
	require.Empty(t, res.Links)
}

func TestResolverSkipsWikiEmbeds(t *testing.T) {
	docs := map[string]int64{"b.md": 1}
	r := NewResolver("/vault", docs)

	res := r.ResolveLinksWithDependencies("a.md", "", "![[b]]\n")
	require.Empty(t, res.Links)
}

func TestResolverResolvesMarkdownLinkRelativeToSource(t *testing.T) {
	docs := map[string]int64{"notes/target.md": 1}
	r := NewResolver("/vault", docs)

	res := r.ResolveLinksWithDependencies("notes/source.md", "notes", "[text](target.md)\n")
	require.Len(t, res.Links, 1)
	require.Equal(t, "notes/target.md", res.Links[0].TargetPath)
}

func TestResolverSkipsExternalMarkdownLinks(t *testing.T) {
	docs := map[string]int64{}
	r := NewResolver("/vault", docs)
	res := r.ResolveLinksWithDependencies("a.md", "", "[ext](https://example.com)\n")
	require.Empty(t, res.Links)
}

func TestResolverDedupesRepeatedTargets(t *testing.T) {
	docs := map[string]int64{"b.md": 1}
	r := NewResolver("/vault", docs)
	res := r.ResolveLinksWithDependencies("a.md", "", "[[b]] and [[b|alias]]\n")
	require.Len(t, res.Links, 1)
}

func TestResolveWikiLinkTargetShortestUniqueSuffix(t *testing.T) {
	paths := []string{"alpha/topic.md", "beta/topic.md", "gamma/deep/topic.md"}
	res := ResolveWikiLinkTarget(nil, "gamma/deep/topic", paths)
	require.Equal(t, "deep/topic", res.CanonicalTarget)
	require.NotNil(t, res.ResolvedRelPath)
	require.Equal(t, "gamma/deep/topic.md", *res.ResolvedRelPath)
	require.Equal(t, 1, res.MatchCount)
	require.False(t, res.Disambiguated)
}

func TestResolveWikiLinkTargetDisambiguatesWithAmbiguousBasename(t *testing.T) {
	paths := []string{"alpha/topic.md", "beta/topic.md"}
	res := ResolveWikiLinkTarget(nil, "topic", paths)
	require.Equal(t, 2, res.MatchCount)
	require.True(t, res.Disambiguated)
	require.False(t, res.Unresolved)
}

func TestResolveWikiLinkTargetUnresolvedWhenNoMatch(t *testing.T) {
	res := ResolveWikiLinkTarget(nil, "nope", []string{"a.md"})
	require.True(t, res.Unresolved)
	require.Nil(t, res.ResolvedRelPath)
}
