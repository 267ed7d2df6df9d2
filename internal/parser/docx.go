package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/draftroom/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles Word manuscripts. Paragraphs styled "Heading N" open
// sections; paragraphs made only of asterisks become scene breaks.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	tmpPath, err := spoolTemp(r, "draftroom-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat temp file: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := doctree.NewBuilder(titleFromFilename(filename))
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		switch {
		case text == "":
		case docxHeadingLevel(para) > 0:
			b.Heading(docxHeadingLevel(para), text)
		case strings.Trim(text, "* ") == "" && strings.Count(text, "*") >= 3:
			b.SceneBreak()
		default:
			b.Paragraph(text)
		}
	}
	return b.Tree(), nil
}

// docxHeadingLevel understands both "Heading2" and "heading 2" style ids.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	d := style[len(style)-1]
	if d < '1' || d > '6' {
		return 0
	}
	return int(d - '0')
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
