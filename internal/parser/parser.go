package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/draftroom/internal/doctree"
)

// Parser converts raw manuscript bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tunes parser selection.
type Options struct {
	// PDFFallback shells out to pdftotext when the Go PDF reader fails.
	PDFFallback bool
}

// SupportedExtensions lists file extensions this service can import.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseManuscript picks a parser for filename and returns the document title
// and its rendered text.
func ParseManuscript(r io.Reader, filename string, opts Options) (title, text string, err error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return "", "", err
	}
	tree, err := p.Parse(r, filename)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}
	return tree.Title, doctree.Render(tree), nil
}

// titleFromFilename strips directories and the extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
