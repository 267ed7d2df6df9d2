package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const longPara = "Hello world this is a fairly long paragraph of text that exceeds fifty characters easily."

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestClean_Stdin(t *testing.T) {
	input := "## Chapter 1\n" + longPara + "\n## Chapter 1\n" + longPara
	out, _, err := run(t, input, "clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(out, "Hello world"); n != 1 {
		t.Errorf("expected one paragraph, got %d in %q", n, out)
	}
}

func TestClean_FileOutputAndReport(t *testing.T) {
	in := writeFile(t, "draft.md", "***\n"+longPara+"\n***\n"+longPara)
	outPath := filepath.Join(t.TempDir(), "clean.md")

	stdout, stderr, err := run(t, "", "clean", in, "-o", outPath, "--report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.Count(string(data), "Hello world") != 1 {
		t.Errorf("unexpected output file %q", data)
	}

	var report struct {
		RemovedCount int `json:"removed_count"`
		Details      []struct {
			RemovedIndex      int `json:"removed_index"`
			SimilarityPercent int `json:"similarity_percent"`
		} `json:"details"`
	}
	if err := json.Unmarshal([]byte(stderr), &report); err != nil {
		t.Fatalf("decode report %q: %v", stderr, err)
	}
	if report.RemovedCount != 1 || report.Details[0].RemovedIndex != 1 || report.Details[0].SimilarityPercent != 100 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestClean_LegacyRemovesShortDuplicates(t *testing.T) {
	input := "***\nTiny dup\n***\nTiny dup\n"

	out, _, err := run(t, input, "clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "Tiny dup") != 2 {
		t.Errorf("expected default floor to keep both, got %q", out)
	}

	out, _, err = run(t, input, "clean", "--legacy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "Tiny dup") != 1 {
		t.Errorf("expected legacy mode to remove one, got %q", out)
	}
}

func TestClean_InvalidThreshold(t *testing.T) {
	if _, _, err := run(t, "x", "clean", "--threshold", "1.5"); err == nil {
		t.Error("expected error for threshold above 1")
	}
}

func TestClean_Patterns(t *testing.T) {
	pats := writeFile(t, "p.yaml", "patterns:\n  - 'EDITOR NOTE[^\\n]*\\n?'\n")
	out, _, err := run(t, "Start.\nEDITOR NOTE: cut this.\nEnd.", "clean", "--patterns", pats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "EDITOR NOTE") {
		t.Errorf("expected custom pattern removed, got %q", out)
	}
}

func TestSections(t *testing.T) {
	out, _, err := run(t, "Intro\n## Chapter 1\nBody.\n***\nScene.", "sections", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 sections, got %d:\n%s", len(lines), out)
	}
	if !strings.HasSuffix(lines[1], "## Chapter 1") || !strings.Contains(lines[1], "[6:25]") {
		t.Errorf("unexpected section line %q", lines[1])
	}
}

func TestScore(t *testing.T) {
	a := writeFile(t, "a.txt", "The Quick brown fox")
	b := writeFile(t, "b.txt", "the quick   BROWN fox")
	out, _, err := run(t, "", "score", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "1.0000" {
		t.Errorf("expected 1.0000, got %q", out)
	}

	if _, _, err := run(t, "", "score", a); err == nil {
		t.Error("expected error with one argument")
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n\n  ## Chapter 1  \nbody"); got != "## Chapter 1" {
		t.Errorf("expected heading, got %q", got)
	}
	long := strings.Repeat("x", 80)
	if got := firstLine(long); got != strings.Repeat("x", 60)+"..." {
		t.Errorf("expected truncated line, got %q", got)
	}
}
