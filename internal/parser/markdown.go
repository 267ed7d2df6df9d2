package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/draftroom/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown manuscripts using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	b := doctree.NewBuilder(titleFromFilename(filename))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.Heading(node.Level, inlineText(node, src))
		case *ast.ThematicBreak:
			b.SceneBreak()
		default:
			b.Paragraph(blockText(n, src))
		}
	}

	return b.Tree(), nil
}

// blockText flattens a block node. Emphasis markers are kept so the rendered
// manuscript still reads as markdown.
func blockText(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		var buf strings.Builder
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	case *ast.Paragraph, *ast.TextBlock:
		return inlineText(node, src)
	case *ast.ThematicBreak:
		return doctree.SceneBreak
	case *ast.List:
		var items []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				items = append(items, "- "+t)
			}
		}
		return strings.Join(items, "\n")
	case *ast.Blockquote:
		var lines []string
		for _, l := range strings.Split(childBlocks(node, src, "\n\n"), "\n") {
			lines = append(lines, strings.TrimRight("> "+l, " "))
		}
		return strings.Join(lines, "\n")
	default:
		return childBlocks(n, src, "\n")
	}
}

func childBlocks(n ast.Node, src []byte, sep string) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.Emphasis:
				mark := strings.Repeat("*", t.Level)
				buf.WriteString(mark)
				walk(t)
				buf.WriteString(mark)
			case *ast.CodeSpan:
				buf.WriteByte('`')
				walk(t)
				buf.WriteByte('`')
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
