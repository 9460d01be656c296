package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PreviewBytes is how many leading bytes of a file are read before
// formatting a search-result preview; previews are a cheap snippet, not
// a full render.
const PreviewBytes = 500

// FormatPreviewText renders raw markdown to a single-line plain-text
// preview: frontmatter, code blocks, block quotes, HTML, and images are
// dropped; headings, paragraphs, and list items are flattened and joined
// with single spaces. No table extension is enabled, so table rows are
// kept as paragraph text. This is deliberately not a full CommonMark renderer.
func FormatPreviewText(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := StripHiddenChars(raw)
	_, body := SplitFrontmatter(cleaned)
	if strings.TrimSpace(body) == "" {
		return ""
	}

	source := []byte(body)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var out strings.Builder
	skipDepth := 0

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindBlockquote, ast.KindHTMLBlock, ast.KindRawHTML:
			if entering {
				skipDepth++
			} else {
				skipDepth--
			}
			return ast.WalkSkipChildren, nil
		case ast.KindImage:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			if skipDepth == 0 {
				t := n.(*ast.Text)
				out.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					ensureSpace(&out)
				}
			}
		case ast.KindCodeSpan:
			if skipDepth == 0 && entering {
				for c := n.FirstChild(); c != nil; c = c.NextSibling() {
					if txt, ok := c.(*ast.Text); ok {
						out.Write(txt.Segment.Value(source))
					}
				}
				return ast.WalkSkipChildren, nil
			}
		case ast.KindParagraph, ast.KindHeading, ast.KindListItem:
			if !entering && skipDepth == 0 {
				ensureSpace(&out)
			}
		}
		return ast.WalkContinue, nil
	})

	return collapseWhitespace(out.String())
}

func ensureSpace(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, " ") {
		b.WriteByte(' ')
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
