package export

import (
	"strings"
	"testing"
)

func TestRender_Text(t *testing.T) {
	body, ctype, ext, err := Render("txt", "Harbor", "Plain text.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "Plain text." || ext != ".txt" || !strings.HasPrefix(ctype, "text/plain") {
		t.Errorf("unexpected export %q %q %q", body, ctype, ext)
	}
}

func TestRender_Markdown(t *testing.T) {
	body, _, ext, err := Render("MD", "Harbor", "## Chapter 1\n\nText.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "# Harbor\n\n## Chapter 1\n\nText." || ext != ".md" {
		t.Errorf("unexpected markdown export %q", body)
	}
}

func TestRender_HTMLIsSanitized(t *testing.T) {
	content := "## Chapter 1\n\nShe *smiled*.\n\n***\n\n<script>alert('x')</script>\n\n<a href=\"javascript:evil()\">link</a>"
	body, ctype, ext, err := Render("html", "Tom & Jerry", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(body)
	if ext != ".html" || !strings.HasPrefix(ctype, "text/html") {
		t.Errorf("unexpected type %q ext %q", ctype, ext)
	}
	for _, want := range []string{"<h2>Chapter 1</h2>", "<em>smiled</em>", "<hr", "<title>Tom &amp; Jerry</title>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	for _, bad := range []string{"<script", "javascript:"} {
		if strings.Contains(out, bad) {
			t.Errorf("expected %q to be stripped:\n%s", bad, out)
		}
	}
}

func TestRender_Unknown(t *testing.T) {
	if _, _, _, err := Render("pdf", "x", "y"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"The Harbor":      "The-Harbor.md",
		"  ../etc/passwd": "etcpasswd.md",
		"":                "draft.md",
		"???":             "draft.md",
	}
	for in, want := range tests {
		if got := Filename(in, ".md"); got != want {
			t.Errorf("Filename(%q): expected %q, got %q", in, want, got)
		}
	}
}
