package dedup

import (
	"math"
	"strings"
	"testing"
)

func TestSimilarity_Identical(t *testing.T) {
	got := Similarity("The  Quick\nbrown fox", "the quick brown   FOX")
	if got != 1 {
		t.Errorf("expected 1.0 after normalization, got %f", got)
	}
}

func TestSimilarity_Containment(t *testing.T) {
	// "abcd efgh" (9 runes) inside "abcd efgh ijkl" (14 runes).
	got := Similarity("abcd efgh", "abcd efgh ijkl")
	want := 9.0 / 14.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestSimilarity_Jaccard(t *testing.T) {
	a := "t1 t2 t3 t4 t5 t6 t7 t8 t9 t10 t11"
	b := "t1 t2 u1 u2 u3 u4 u5 u6 u7 u8 u9"
	got := Similarity(a, b)
	if math.Abs(got-0.1) > 1e-9 {
		t.Errorf("expected 2/20 = 0.1, got %f", got)
	}
}

func TestSimilarity_EmptyInputs(t *testing.T) {
	if got := Similarity("", ""); got != 0 {
		t.Errorf("expected 0 for two empty inputs, got %f", got)
	}
	if got := Similarity("  \n\t", ""); got != 0 {
		t.Errorf("expected 0 for whitespace-only inputs, got %f", got)
	}
	if got := Similarity("", "some words"); got != 0 {
		t.Errorf("expected 0 against an empty input, got %f", got)
	}
}

func TestSimilarity_SymmetricAndBounded(t *testing.T) {
	samples := []string{
		"",
		"   ",
		"Hello world",
		"hello WORLD again",
		"## Chapter 1\nThe rain fell on the harbor town.",
		"The rain fell on the harbor town.",
		"Completely unrelated sentence about trains.",
		"ünïcödé words here",
		"ÜNÏCÖDÉ words",
		strings.Repeat("lorem ipsum ", 40),
	}

	for _, a := range samples {
		for _, b := range samples {
			ab := Similarity(a, b)
			ba := Similarity(b, a)
			if ab != ba {
				t.Errorf("asymmetric score for %q / %q: %f vs %f", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("score out of bounds for %q / %q: %f", a, b, ab)
			}
		}
		if strings.TrimSpace(a) != "" {
			if got := Similarity(a, a); got != 1 {
				t.Errorf("expected self-similarity 1.0 for %q, got %f", a, got)
			}
		}
	}
}
