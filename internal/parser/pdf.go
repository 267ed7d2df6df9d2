package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/draftroom/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF manuscripts. It tries the Go reader first and can
// fall back to pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf wants a file on disk.
	tmpPath, err := spoolTemp(r, "draftroom-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		// Page nodes carry no heading level so Render emits only their text.
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  page,
			Page:  i + 1,
		})
	}
	return tree, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

// spoolTemp copies r into a temp file and returns its path.
func spoolTemp(r io.Reader, pattern string) (string, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}
