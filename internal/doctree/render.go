package doctree

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Render flattens a tree back into manuscript text. Headings become
// markdown headings of their level, blocks are separated by a blank line, and
// the result is NFC-normalized so that visually equal text compares equal.
func Render(tree *DocTree) string {
	if tree == nil {
		return ""
	}
	var parts []string
	var walk func([]*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Level > 0 && strings.TrimSpace(n.Title) != "" {
				parts = append(parts, strings.Repeat("#", min(n.Level, 6))+" "+strings.TrimSpace(n.Title))
			}
			if t := strings.TrimSpace(n.Text); t != "" {
				parts = append(parts, t)
			}
			walk(n.Children)
		}
	}
	walk(tree.Children)

	out := strings.Join(parts, "\n\n")
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.TrimSpace(norm.NFC.String(out))
}
