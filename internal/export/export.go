// Package export renders a draft as a downloadable file.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Formats lists the supported export formats.
var Formats = []string{"txt", "md", "html"}

var (
	markdown = goldmark.New()
	policy   = bluemonday.UGCPolicy()
)

// Render returns the file body, its content type and file extension.
func Render(format, title, content string) ([]byte, string, string, error) {
	switch strings.ToLower(format) {
	case "", "txt":
		return []byte(content), "text/plain; charset=utf-8", ".txt", nil
	case "md", "markdown":
		var b strings.Builder
		if title != "" {
			b.WriteString("# " + title + "\n\n")
		}
		b.WriteString(content)
		return []byte(b.String()), "text/markdown; charset=utf-8", ".md", nil
	case "html":
		body, err := renderHTML(title, content)
		if err != nil {
			return nil, "", "", err
		}
		return body, "text/html; charset=utf-8", ".html", nil
	default:
		return nil, "", "", fmt.Errorf("unsupported export format %q", format)
	}
}

func renderHTML(title, content string) ([]byte, error) {
	var md bytes.Buffer
	if err := markdown.Convert([]byte(content), &md); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	out.WriteString(html.EscapeString(title))
	out.WriteString("</title>\n</head>\n<body>\n")
	if title != "" {
		out.WriteString("<h1>" + html.EscapeString(title) + "</h1>\n")
	}
	out.Write(policy.SanitizeBytes(md.Bytes()))
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// Filename builds a safe download name from a draft title.
func Filename(title, ext string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "draft" + ext
	}
	return b.String() + ext
}
