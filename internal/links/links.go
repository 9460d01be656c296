// Package links extracts and resolves wiki-style `[[target]]` and markdown
// `[text](path)` links from a document's text against a corpus index,
// reporting both the resolved link edges and the query-key dependencies a
// source consulted. Wiki-link syntax isn't CommonMark, so it's scanned by
// hand; markdown links are pulled off a goldmark AST walk.
package links

import (
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ResolvedLink is one outbound edge from a source document, resolved or not.
// Kind records which syntax produced the edge ("wiki" or "markdown"); when
// both syntaxes reach the same target the first candidate seen wins.
type ResolvedLink struct {
	TargetDocID *int64
	TargetPath  string
	Kind        string
}

// Resolution is the full output of resolving one source's links: the
// deduped edges plus the wiki query keys consulted to produce them.
type Resolution struct {
	Links         []ResolvedLink
	WikiQueryKeys map[string]struct{}
}

// WikiLinkTarget is the externally-facing result of resolving a single raw
// wiki target string against a corpus, independent of any source document
// (used by the resolve_wiki_link_target facade operation).
type WikiLinkTarget struct {
	CanonicalTarget string
	ResolvedRelPath *string
	MatchCount      int
	Disambiguated   bool
	Unresolved      bool
}

type wikiDocEntry struct {
	relPath       string
	relPathLower  string
	noExt         string
	noExtLower    string
	dirLower      string
	basenameLower string
}

type linkKind int

const (
	linkKindWiki linkKind = iota
	linkKindMarkdown
)

type linkCandidate struct {
	kind      linkKind
	rawTarget string
}

// Resolver holds an immutable snapshot of one vault's doc map for the
// duration of a single sync run; it is rebuilt fresh each run rather than
// mutated in place.
type Resolver struct {
	workspaceRoot string
	docsByPath    map[string]int64
	wikiDocs      []wikiDocEntry
	basenameIndex map[string][]int
}

// NewResolver builds a resolver over the current rel-path → doc-id map.
func NewResolver(workspaceRoot string, docsByPath map[string]int64) *Resolver {
	relPaths := make([]string, 0, len(docsByPath))
	for p := range docsByPath {
		relPaths = append(relPaths, p)
	}
	wikiDocs, basenameIndex := buildWikiDocIndexes(relPaths)
	return &Resolver{
		workspaceRoot: workspaceRoot,
		docsByPath:    docsByPath,
		wikiDocs:      wikiDocs,
		basenameIndex: basenameIndex,
	}
}

// ResolveLinksWithDependencies extracts every markdown and wiki link
// candidate from contents, resolves each against the corpus, and returns
// the deduped set of edges plus the wiki query keys consulted. sourceRel is
// the source document's vault-relative path; sourceDir is its containing
// directory, relative to the workspace root ("" for the workspace root).
func (r *Resolver) ResolveLinksWithDependencies(sourceRel, sourceDir, contents string) Resolution {
	candidates := extractMarkdownCandidates(contents)
	candidates = append(candidates, extractWikiCandidates(contents)...)

	var results []ResolvedLink
	seen := map[string]struct{}{}
	wikiQueryKeys := map[string]struct{}{}

	for _, candidate := range candidates {
		if candidate.kind == linkKindWiki {
			if key, ok := wikiQueryDependencyKey(candidate.rawTarget); ok {
				wikiQueryKeys[key] = struct{}{}
			}
		}

		var resolved *ResolvedLink
		if candidate.kind == linkKindWiki {
			resolved = r.resolveWikiCandidate(sourceRel, candidate)
		} else {
			resolved = r.resolveMarkdownCandidate(sourceDir, candidate)
		}

		if resolved == nil {
			continue
		}
		if _, dup := seen[resolved.TargetPath]; dup {
			continue
		}
		seen[resolved.TargetPath] = struct{}{}
		results = append(results, *resolved)
	}

	return Resolution{Links: results, WikiQueryKeys: wikiQueryKeys}
}

func (r *Resolver) resolveWikiCandidate(sourceRel string, candidate linkCandidate) *ResolvedLink {
	trimmed := strings.TrimSpace(candidate.rawTarget)
	if trimmed == "" || isExternalWikiTarget(trimmed) {
		return nil
	}

	pathPart, _ := splitWikiTargetSuffix(trimmed)
	if pathPart == "" {
		return nil
	}

	normalizedQuery := normalizeWikiQueryPath(pathPart)
	if normalizedQuery == "" {
		return nil
	}

	queryLower := strings.ToLower(normalizedQuery)
	matches := findWikiCandidates(r.wikiDocs, r.basenameIndex, queryLower, strings.Contains(queryLower, "/"))

	if selected := choosePreferredDoc(matches, &sourceRel); selected != nil {
		var targetDocID *int64
		if id, ok := r.docsByPath[selected.relPath]; ok {
			idCopy := id
			targetDocID = &idCopy
		}
		return &ResolvedLink{TargetDocID: targetDocID, TargetPath: selected.relPath, Kind: "wiki"}
	}

	return &ResolvedLink{TargetDocID: nil, TargetPath: unresolvedWikiTargetPath(normalizedQuery, pathPart), Kind: "wiki"}
}

func (r *Resolver) resolveMarkdownCandidate(sourceDir string, candidate linkCandidate) *ResolvedLink {
	trimmed := strings.TrimSpace(candidate.rawTarget)
	if trimmed == "" || isExternalTarget(trimmed) {
		return nil
	}

	pathPart := stripMarkdownAnchor(trimmed)
	if pathPart == "" {
		return nil
	}

	relPath := resolveRelativePath(sourceDir, pathPart)
	if relPath == "" {
		return nil
	}

	var targetDocID *int64
	if id, ok := r.docsByPath[relPath]; ok {
		idCopy := id
		targetDocID = &idCopy
	}
	return &ResolvedLink{TargetDocID: targetDocID, TargetPath: relPath, Kind: "markdown"}
}

// ResolveWikiLinkTarget resolves a single raw wiki target string against a
// corpus independent of any particular source file's link graph; this is
// the standalone facade operation, distinct from the per-sync Resolver.
func ResolveWikiLinkTarget(currentNotePath *string, rawTarget string, workspaceRelPaths []string) WikiLinkTarget {
	wikiDocs, basenameIndex := buildWikiDocIndexes(workspaceRelPaths)
	return resolveWikiTargetInternal(rawTarget, wikiDocs, basenameIndex, currentNotePath)
}

func resolveWikiTargetInternal(rawTarget string, wikiDocs []wikiDocEntry, basenameIndex map[string][]int, currentNotePath *string) WikiLinkTarget {
	trimmed := strings.TrimSpace(rawTarget)
	if trimmed == "" {
		return unresolvedWikiLinkTarget("")
	}
	if isExternalWikiTarget(trimmed) {
		return unresolvedWikiLinkTarget(trimmed)
	}

	pathPart, suffix := splitWikiTargetSuffix(trimmed)
	normalizedQuery := normalizeWikiQueryPath(pathPart)
	if normalizedQuery == "" {
		return unresolvedWikiLinkTarget(suffix)
	}

	queryLower := strings.ToLower(normalizedQuery)
	hasSeparator := strings.Contains(queryLower, "/")
	matches := findWikiCandidates(wikiDocs, basenameIndex, queryLower, hasSeparator)
	matchCount := len(matches)

	selected := choosePreferredDoc(matches, currentNotePath)
	if selected == nil {
		return unresolvedWikiLinkTarget(appendWikiSuffix(normalizedQuery, suffix))
	}

	canonicalBase := shortestUniqueWikiSuffix(*selected, wikiDocs)
	relPath := selected.relPath
	return WikiLinkTarget{
		CanonicalTarget: appendWikiSuffix(canonicalBase, suffix),
		ResolvedRelPath: &relPath,
		MatchCount:      matchCount,
		Disambiguated:   matchCount > 1,
		Unresolved:      false,
	}
}

func unresolvedWikiLinkTarget(canonicalTarget string) WikiLinkTarget {
	return WikiLinkTarget{CanonicalTarget: canonicalTarget, Unresolved: true}
}

func appendWikiSuffix(base, suffix string) string {
	if suffix == "" {
		return base
	}
	if base == "" {
		return suffix
	}
	return base + suffix
}

func buildWikiDocIndexes(relPaths []string) ([]wikiDocEntry, map[string][]int) {
	var wikiDocs []wikiDocEntry
	for _, p := range relPaths {
		if entry, ok := buildWikiDocEntry(p); ok {
			wikiDocs = append(wikiDocs, entry)
		}
	}
	sort.Slice(wikiDocs, func(i, j int) bool { return wikiDocs[i].relPathLower < wikiDocs[j].relPathLower })

	basenameIndex := map[string][]int{}
	for i, doc := range wikiDocs {
		basenameIndex[doc.basenameLower] = append(basenameIndex[doc.basenameLower], i)
	}
	return wikiDocs, basenameIndex
}

func buildWikiDocEntry(relPath string) (wikiDocEntry, bool) {
	normalized := normalizePathSeparators(strings.TrimSpace(relPath))
	normalized = stripCurrentDirPrefix(normalized)
	normalized = stripLeadingSlashes(normalized)
	if normalized == "" {
		return wikiDocEntry{}, false
	}
	if !hasMarkdownExtension(normalized) {
		return wikiDocEntry{}, false
	}

	noExt := stripMarkdownExtension(normalized)
	if noExt == "" {
		return wikiDocEntry{}, false
	}

	segments := strings.Split(noExt, "/")
	basename := strings.ToLower(segments[len(segments)-1])
	if basename == "" {
		return wikiDocEntry{}, false
	}

	dirLower := ""
	if idx := strings.LastIndex(noExt, "/"); idx >= 0 {
		dirLower = strings.ToLower(noExt[:idx])
	}

	return wikiDocEntry{
		relPath:       normalized,
		relPathLower:  strings.ToLower(normalized),
		noExt:         noExt,
		noExtLower:    strings.ToLower(noExt),
		dirLower:      dirLower,
		basenameLower: basename,
	}, true
}

func findWikiCandidates(wikiDocs []wikiDocEntry, basenameIndex map[string][]int, queryLower string, hasSeparator bool) []wikiDocEntry {
	if queryLower == "" {
		return nil
	}
	if hasSeparator {
		var out []wikiDocEntry
		for _, doc := range wikiDocs {
			if pathSuffixMatches(doc.noExtLower, queryLower) {
				out = append(out, doc)
			}
		}
		return out
	}

	indices := basenameIndex[queryLower]
	out := make([]wikiDocEntry, 0, len(indices))
	for _, idx := range indices {
		out = append(out, wikiDocs[idx])
	}
	return out
}

// choosePreferredDoc ranks candidates whose directory equals the current
// note's directory first, then by lexicographic rel-path.
func choosePreferredDoc(candidates []wikiDocEntry, currentNotePath *string) *wikiDocEntry {
	if len(candidates) == 0 {
		return nil
	}

	currentDir := normalizedCurrentNoteDirLower(currentNotePath)
	sort.SliceStable(candidates, func(i, j int) bool {
		aRank := rankForDir(candidates[i].dirLower, currentDir)
		bRank := rankForDir(candidates[j].dirLower, currentDir)
		if aRank != bRank {
			return aRank < bRank
		}
		return candidates[i].relPathLower < candidates[j].relPathLower
	})
	return &candidates[0]
}

func rankForDir(dirLower string, currentDir *string) int {
	if currentDir != nil && dirLower == *currentDir {
		return 0
	}
	return 1
}

func normalizedCurrentNoteDirLower(currentNotePath *string) *string {
	if currentNotePath == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*currentNotePath)
	if trimmed == "" {
		return nil
	}

	relPath := normalizePathSeparators(trimmed)
	relPath = stripCurrentDirPrefix(relPath)
	relPath = stripLeadingSlashes(relPath)
	if relPath == "" {
		empty := ""
		return &empty
	}

	noExt := stripMarkdownExtension(relPath)
	dir := ""
	if idx := strings.LastIndex(noExt, "/"); idx >= 0 {
		dir = noExt[:idx]
	}
	dir = strings.ToLower(dir)
	return &dir
}

func shortestUniqueWikiSuffix(selected wikiDocEntry, wikiDocs []wikiDocEntry) string {
	var segments []string
	for _, seg := range strings.Split(selected.noExt, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return selected.noExt
	}

	for suffixLen := 1; suffixLen <= len(segments); suffixLen++ {
		suffix := strings.Join(segments[len(segments)-suffixLen:], "/")
		suffixLower := strings.ToLower(suffix)
		count := 0
		for _, doc := range wikiDocs {
			if pathSuffixMatches(doc.noExtLower, suffixLower) {
				count++
			}
		}
		if count == 1 {
			return suffix
		}
	}
	return selected.noExt
}

func unresolvedWikiTargetPath(normalizedQuery, rawPathPart string) string {
	if normalizedQuery == "" {
		return ""
	}
	lowerRaw := strings.ToLower(strings.TrimSpace(rawPathPart))
	preferMDX := strings.HasSuffix(lowerRaw, ".mdx")
	return ensureMarkdownExtension(normalizedQuery, preferMDX)
}

// extractMarkdownCandidates extracts markdown link destinations via a full
// goldmark AST pass. Only ast.Link is matched; image destinations are
// never turned into graph-edge candidates.
func extractMarkdownCandidates(contents string) []linkCandidate {
	source := []byte(contents)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var candidates []linkCandidate
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := strings.TrimSpace(string(link.Destination))
		if dest != "" {
			candidates = append(candidates, linkCandidate{kind: linkKindMarkdown, rawTarget: dest})
		}
		return ast.WalkContinue, nil
	})
	return candidates
}

// extractWikiCandidates scans contents line-by-line for `[[target]]` /
// `[[target|alias]]` wiki links, skipping fenced code blocks and inline
// code spans.
func extractWikiCandidates(contents string) []linkCandidate {
	var candidates []linkCandidate
	inFence := false
	var fenceChar byte
	fenceLen := 0

	for _, line := range strings.Split(contents, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if ch, length, ok := detectFence(trimmed); ok {
			if !inFence {
				inFence = true
				fenceChar = ch
				fenceLen = length
			} else if ch == fenceChar && length >= fenceLen {
				inFence = false
				fenceChar = 0
				fenceLen = 0
			}
			continue
		}
		if inFence {
			continue
		}
		extractWikiCandidatesFromLine(line, &candidates)
	}
	return candidates
}

func detectFence(line string) (byte, int, bool) {
	if line == "" {
		return 0, 0, false
	}
	first := line[0]
	if first != '`' && first != '~' {
		return 0, 0, false
	}
	length := 0
	for length < len(line) && line[length] == first {
		length++
	}
	if length >= 3 {
		return first, length, true
	}
	return 0, 0, false
}

func extractWikiCandidatesFromLine(line string, candidates *[]linkCandidate) {
	b := []byte(line)
	i := 0
	inCode := false
	codeLen := 0

	for i < len(b) {
		if b[i] == '`' {
			run := countRun(b, i, '`')
			if !inCode {
				inCode = true
				codeLen = run
				i += run
				continue
			}
			if run >= codeLen {
				inCode = false
				codeLen = 0
			}
			i += run
			continue
		}

		if inCode {
			i++
			continue
		}

		if b[i] == '[' && i+1 < len(b) && b[i+1] == '[' {
			isEmbed := i > 0 && b[i-1] == '!'
			start := i + 2
			if end, ok := findClosingWiki(b, start); ok {
				if !isEmbed {
					raw := line[start:end]
					target := splitWikiAlias(raw)
					if strings.TrimSpace(target) != "" {
						*candidates = append(*candidates, linkCandidate{kind: linkKindWiki, rawTarget: target})
					}
				}
				i = end + 2
				continue
			}
		}

		i++
	}
}

func countRun(b []byte, start int, needle byte) int {
	end := start
	for end < len(b) && b[end] == needle {
		end++
	}
	return end - start
}

func findClosingWiki(b []byte, start int) (int, bool) {
	for i := start; i+1 < len(b); i++ {
		if b[i] == ']' && b[i+1] == ']' {
			return i, true
		}
	}
	return 0, false
}

func splitWikiAlias(raw string) string {
	if idx := strings.Index(raw, "|"); idx >= 0 {
		return strings.TrimSpace(raw[:idx])
	}
	return strings.TrimSpace(raw)
}

func splitWikiTargetSuffix(raw string) (string, string) {
	hashIdx := strings.Index(raw, "#")
	blockIdx := strings.Index(raw, "^")

	splitIdx := -1
	switch {
	case hashIdx >= 0 && blockIdx >= 0:
		splitIdx = min(hashIdx, blockIdx)
	case hashIdx >= 0:
		splitIdx = hashIdx
	case blockIdx >= 0:
		splitIdx = blockIdx
	}

	if splitIdx >= 0 {
		return strings.TrimSpace(raw[:splitIdx]), raw[splitIdx:]
	}
	return strings.TrimSpace(raw), ""
}

func stripMarkdownAnchor(raw string) string {
	if idx := strings.Index(raw, "#"); idx >= 0 {
		return strings.TrimSpace(raw[:idx])
	}
	return strings.TrimSpace(raw)
}

func wikiQueryDependencyKey(rawTarget string) (string, bool) {
	trimmed := strings.TrimSpace(rawTarget)
	if trimmed == "" || isExternalWikiTarget(trimmed) {
		return "", false
	}
	pathPart, _ := splitWikiTargetSuffix(trimmed)
	if pathPart == "" {
		return "", false
	}
	normalized := normalizeWikiQueryPath(pathPart)
	if normalized == "" {
		return "", false
	}
	return strings.ToLower(normalized), true
}

func normalizeWikiQueryPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return ""
	}
	normalized := normalizePathSeparators(trimmed)
	normalized = stripCurrentDirPrefix(normalized)
	normalized = stripLeadingSlashes(normalized)
	if normalized == "" {
		return ""
	}
	return stripMarkdownExtension(normalized)
}

func normalizePathSeparators(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	prevSlash := false
	for _, ch := range value {
		if ch == '/' || ch == '\\' {
			if !prevSlash {
				b.WriteByte('/')
				prevSlash = true
			}
			continue
		}
		b.WriteRune(ch)
		prevSlash = false
	}
	out := b.String()
	for len(out) > 1 && strings.HasSuffix(out, "/") {
		out = out[:len(out)-1]
	}
	return out
}

func stripCurrentDirPrefix(value string) string {
	for strings.HasPrefix(value, "./") {
		value = value[2:]
	}
	return value
}

func stripLeadingSlashes(value string) string {
	i := 0
	for i < len(value) && (value[i] == '/' || value[i] == '\\') {
		i++
	}
	return value[i:]
}

// pathSuffixMatches reports whether path equals suffix, or ends with
// suffix on a `/` boundary.
func pathSuffixMatches(p, suffix string) bool {
	if p == suffix {
		return true
	}
	if !strings.HasSuffix(p, suffix) || len(p) <= len(suffix) {
		return false
	}
	return p[len(p)-len(suffix)-1] == '/'
}

func ensureMarkdownExtension(p string, preferMDX bool) string {
	if hasMarkdownExtension(p) {
		return p
	}
	if preferMDX {
		return p + ".mdx"
	}
	return p + ".md"
}

func stripMarkdownExtension(value string) string {
	lower := strings.ToLower(value)
	switch {
	case strings.HasSuffix(lower, ".mdx"):
		return value[:len(value)-4]
	case strings.HasSuffix(lower, ".md"):
		return value[:len(value)-3]
	default:
		return value
	}
}

func hasMarkdownExtension(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx")
}

// resolveRelativePath resolves rel against sourceDir (both using `/`
// separators, sourceDir relative to the workspace root) and returns the
// normalized vault-relative path, or "" if it escapes the workspace root.
func resolveRelativePath(sourceDir, rel string) string {
	normalizedRel := strings.ReplaceAll(rel, "\\", "/")
	joined := path.Join(sourceDir, normalizedRel)
	joined = strings.TrimPrefix(joined, "/")
	if joined == "." {
		return ""
	}
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return ""
	}
	return joined
}

func isExternalTarget(target string) bool {
	trimmed := strings.TrimSpace(target)
	if strings.HasPrefix(trimmed, "#") {
		return false
	}
	if strings.HasPrefix(trimmed, "//") {
		return true
	}
	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "\\") {
		return true
	}
	if hasWindowsDrivePrefix(trimmed) {
		return true
	}
	return hasURLScheme(trimmed)
}

func isExternalWikiTarget(target string) bool {
	trimmed := strings.TrimSpace(target)
	if strings.HasPrefix(trimmed, "#") {
		return false
	}
	if strings.HasPrefix(trimmed, "//") {
		return true
	}
	if hasWindowsDrivePrefix(trimmed) {
		return true
	}
	return hasURLScheme(trimmed)
}

func hasURLScheme(trimmed string) bool {
	idx := strings.Index(trimmed, ":")
	if idx <= 0 {
		return false
	}
	scheme := trimmed[:idx]
	for _, ch := range scheme {
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '+' || ch == '-' || ch == '.') {
			return false
		}
	}
	return true
}

func hasWindowsDrivePrefix(value string) bool {
	if len(value) < 2 {
		return false
	}
	letter := value[0]
	return (letter >= 'a' && letter <= 'z' || letter >= 'A' && letter <= 'Z') && value[1] == ':'
}
