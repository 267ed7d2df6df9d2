package doctree

import "strings"

// Builder assembles a DocTree from a flat stream of headings and paragraphs,
// nesting each heading under the nearest shallower one.
type Builder struct {
	title   string
	root    *DocNode
	stack   []*DocNode
	pending []string
}

// NewBuilder starts a tree with the given title.
func NewBuilder(title string) *Builder {
	root := &DocNode{}
	return &Builder{title: title, root: root, stack: []*DocNode{root}}
}

// Heading opens a new section at level (1-6).
func (b *Builder) Heading(level int, title string) {
	b.flush()
	if level < 1 {
		level = 1
	}
	n := &DocNode{Title: title, Level: level}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].Level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, n)
}

// Paragraph appends text to the current section. Blank input is ignored.
func (b *Builder) Paragraph(text string) {
	if t := strings.TrimSpace(text); t != "" {
		b.pending = append(b.pending, t)
	}
}

// SceneBreak appends a scene break to the current section.
func (b *Builder) SceneBreak() {
	b.pending = append(b.pending, SceneBreak)
}

func (b *Builder) flush() {
	if len(b.pending) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1]
	t := strings.Join(b.pending, "\n\n")
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
	b.pending = b.pending[:0]
}

// Tree finishes the build. Text that appeared before the first heading
// becomes a leading text-only node.
func (b *Builder) Tree() *DocTree {
	b.flush()
	tree := &DocTree{Title: b.title}
	if b.root.Text != "" {
		tree.Children = append(tree.Children, &DocNode{Text: b.root.Text})
	}
	tree.Children = append(tree.Children, b.root.Children...)
	return tree
}
