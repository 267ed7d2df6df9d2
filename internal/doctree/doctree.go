// Package doctree holds the heading tree that every importer produces and
// renders it back into manuscript text.
package doctree

// DocTree is the root of a parsed manuscript.
type DocTree struct {
	Title    string     // from metadata or filename
	Children []*DocNode // top-level sections
}

// DocNode is a recursive section in the tree.
type DocNode struct {
	Title    string // heading text, empty for leaf text
	Level    int    // heading depth 1-6, 0 for text-only nodes
	Text     string
	Page     int // source page, 0 if N/A
	Children []*DocNode
}

// SceneBreak is the text an importer emits for a thematic break.
const SceneBreak = "***"
