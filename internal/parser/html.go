package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/draftroom/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML manuscripts, such as exports from word processors.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}
	b := doctree.NewBuilder(title)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.Heading(level, textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "title":
				return
			case "hr":
				b.SceneBreak()
				return
			case "p", "li", "td", "blockquote", "pre":
				b.Paragraph(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return b.Tree(), nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent concatenates descendant text, turning <br> into a newline.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(doc *html.Node) string {
	if n := findElement(doc, "title"); n != nil {
		return textContent(n)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
