package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/draftroom/internal/doctree"
)

// TextParser handles plain text manuscripts. Each blank-line separated
// paragraph becomes a text node; heading lines are kept verbatim so that the
// splitter still sees them.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	var current []string

	flush := func() {
		if len(current) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: strings.Join(current, "\n")})
			current = current[:0]
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return tree, nil
}
