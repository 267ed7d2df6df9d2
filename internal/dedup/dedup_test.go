package dedup

import (
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const longPara = "Hello world this is a fairly long paragraph of text that exceeds fifty characters easily."

func TestCleanup_DuplicateChapter(t *testing.T) {
	input := "## Chapter 1\n" + longPara + "\n## Chapter 1\n" + longPara + "\n"
	res := Cleanup(input)

	if res.RemovedCount != 1 {
		t.Fatalf("expected 1 removal, got %d", res.RemovedCount)
	}
	if res.Details[0].SimilarityPercent != 100 {
		t.Errorf("expected 100%% similarity, got %d", res.Details[0].SimilarityPercent)
	}
	if res.Details[0].RemovedIndex != 1 {
		t.Errorf("expected removed index 1, got %d", res.Details[0].RemovedIndex)
	}
	if n := strings.Count(res.CleanedText, "Hello world"); n != 1 {
		t.Errorf("expected one paragraph in cleaned text, found %d:\n%s", n, res.CleanedText)
	}
}

func TestCleanup_DissimilarSectionsKept(t *testing.T) {
	a := "## Chapter 1\nalpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	b := "## Chapter 2\nmike november oscar papa quebec romeo sierra tango uniform victor whiskey"
	res := Cleanup(a + "\n" + b)
	if res.RemovedCount != 0 {
		t.Errorf("expected no removals, got %d: %+v", res.RemovedCount, res.Details)
	}
}

func TestCleanup_NoMarkersNeverRemoves(t *testing.T) {
	input := strings.Repeat("The same sentence repeated over and over again in prose. ", 20)
	res := Cleanup(input)
	if res.RemovedCount != 0 {
		t.Errorf("expected no removals without markers, got %d", res.RemovedCount)
	}
	if res.CleanedText != strings.TrimSpace(input) {
		t.Errorf("expected text to pass through unchanged")
	}
}

func TestCleanup_PreambleWithDuplicatedTail(t *testing.T) {
	before := "The rain fell on the harbor town all night long, and Mara waited by the window for the boats to return home."
	input := before + "\n\nHere is the refined manuscript draft for better readability and presentation.\n\n" + before + "\nMore rewritten text."

	res := Cleanup(input)
	if res.CleanedText != before {
		t.Errorf("expected output to end before the preamble:\nwant %q\ngot  %q", before, res.CleanedText)
	}
	if res.RemovedCount != 0 {
		t.Errorf("expected no section removals, got %d", res.RemovedCount)
	}
}

func TestCleanup_Empty(t *testing.T) {
	res := Cleanup("")
	want := Result{CleanedText: "", RemovedCount: 0, Details: []Removal{}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestCleanup_AlreadyCleanIsUnchanged(t *testing.T) {
	input := "## Chapter 1\nMara left the harbor at dawn with nothing but a compass and a letter.\n\n" +
		"## Chapter 2\nThe mountain pass was closed, so the caravan turned east toward the salt flats.\n\n" +
		"***\n\nNight came quickly over the desert and nobody spoke about the missing guide."
	res := Cleanup(input)
	if res.RemovedCount != 0 {
		t.Fatalf("expected no removals, got %d", res.RemovedCount)
	}
	if res.CleanedText != input {
		t.Errorf("expected unchanged text:\nwant %q\ngot  %q", input, res.CleanedText)
	}
}

func TestCleanup_RepeatedOpeningHeadingDroppedAfterElimination(t *testing.T) {
	input := "## Chapter 1\nMara left the harbor at dawn with nothing but a compass and a letter.\n\n" +
		"## Chapter 1\nA completely different opening about a lighthouse keeper and his stubborn goat."
	res := Cleanup(input)

	if res.RemovedCount != 0 {
		t.Fatalf("expected no removals, got %d", res.RemovedCount)
	}
	if n := strings.Count(res.CleanedText, "Chapter 1"); n != 1 {
		t.Errorf("expected a single Chapter 1 heading, found %d", n)
	}
	if !strings.Contains(res.CleanedText, "lighthouse keeper") {
		t.Errorf("expected content under the dropped heading to survive")
	}
}

func TestCleanup_KeepsProseStartingWithChapterOne(t *testing.T) {
	input := "## Chapter 1\nMara left the harbor at dawn with nothing but a compass and a letter.\n\n" +
		"## Chapter 2\nThe caravan turned east.\n" +
		"Chapter 1 of her life had ended that morning, and the second was only beginning."
	res := Cleanup(input)
	if !strings.Contains(res.CleanedText, "Chapter 1 of her life had ended that morning") {
		t.Errorf("expected prose line kept, got %q", res.CleanedText)
	}
	if n := strings.Count(res.CleanedText, "## Chapter 1"); n != 1 {
		t.Errorf("expected the heading kept once, found %d", n)
	}
}

func TestCleaner_SectionsSeeCleanedText(t *testing.T) {
	input := "A\n***\n\n***\nB"
	if n := len(Split(input)); n != 3 {
		t.Fatalf("expected 3 raw sections, got %d", n)
	}
	got := New().Sections(input)
	want := []Section{
		{Text: "A\n\n", Start: 0, End: 3},
		{Text: "***\n\nB", Start: 3, End: 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestEliminate_EarliestWins(t *testing.T) {
	sections := []Section{
		{Text: "***\n" + longPara},
		{Text: "***\nAn unrelated passage about mountains, rivers and the long road north to the capital."},
		{Text: "***\n" + longPara},
		{Text: "***\n" + strings.ToUpper(longPara)},
	}
	res := Eliminate(sections, DefaultOptions(), Similarity)

	if res.RemovedCount != 2 {
		t.Fatalf("expected 2 removals, got %d", res.RemovedCount)
	}
	removed := removedSet(res)
	if diff := cmp.Diff([]int{2, 3}, removed); diff != "" {
		t.Errorf("removed indices mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(res.CleanedText, "***\n"+longPara) {
		t.Errorf("expected first occurrence to be kept")
	}
}

func TestEliminate_DiscoveryAcrossSources(t *testing.T) {
	a := "***\nThe lighthouse keeper climbed the stairs every evening to light the great lamp."
	b := "***\nIn the valley below, farmers gathered the harvest before the autumn storms arrived."
	sections := []Section{{Text: a}, {Text: b}, {Text: a}, {Text: b}}
	res := Eliminate(sections, DefaultOptions(), Similarity)

	if diff := cmp.Diff([]int{2, 3}, removedSet(res)); diff != "" {
		t.Errorf("removed indices mismatch (-want +got):\n%s", diff)
	}
	if res.CleanedText != a+b {
		t.Errorf("expected survivors in original order, got %q", res.CleanedText)
	}
}

func TestEliminate_LengthFloor(t *testing.T) {
	sections := []Section{
		{Text: "***\nTiny dup\n"},
		{Text: "***\nTiny dup\n"},
	}

	tests := []struct {
		name    string
		opts    Options
		removed int
	}{
		{"default floor exempts short sections", DefaultOptions(), 0},
		{"legacy has no floor", LegacyOptions(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Eliminate(sections, tt.opts, Similarity)
			if res.RemovedCount != tt.removed {
				t.Errorf("expected %d removals, got %d", tt.removed, res.RemovedCount)
			}
		})
	}
}

func TestEliminate_ShortSectionNeverTriggers(t *testing.T) {
	always := func(a, b string) float64 { return 1 }
	sections := []Section{
		{Text: "## Chapter 1\nShort."},
		{Text: "## Chapter 2\n" + longPara},
		{Text: "## Chapter 3\n" + longPara},
	}
	res := Eliminate(sections, DefaultOptions(), always)

	if diff := cmp.Diff([]int{2}, removedSet(res)); diff != "" {
		t.Errorf("removed indices mismatch (-want +got):\n%s", diff)
	}
}

func TestEliminate_ThresholdIsExclusive(t *testing.T) {
	fixed := func(a, b string) float64 { return 0.70 }
	sections := []Section{{Text: "***\n" + longPara}, {Text: "***\n" + longPara}}

	for _, tt := range []struct {
		opts    Options
		removed int
	}{
		{LegacyOptions(), 0},
		{DefaultOptions(), 1},
	} {
		res := Eliminate(sections, tt.opts, fixed)
		if res.RemovedCount != tt.removed {
			t.Errorf("threshold %.2f: expected %d removals, got %d", tt.opts.Threshold, tt.removed, res.RemovedCount)
		}
	}
}

func TestEliminate_PercentAndPreview(t *testing.T) {
	twoThirds := func(a, b string) float64 { return 2.0 / 3.0 }
	body := "***\nline one\nline two " + strings.Repeat("x", 200)
	res := Eliminate([]Section{{Text: body}, {Text: body}}, DefaultOptions(), twoThirds)

	if res.RemovedCount != 1 {
		t.Fatalf("expected 1 removal, got %d", res.RemovedCount)
	}
	d := res.Details[0]
	if d.SimilarityPercent != 67 {
		t.Errorf("expected 67%%, got %d", d.SimilarityPercent)
	}
	if strings.Contains(d.Preview, "\n") {
		t.Errorf("expected newlines replaced in preview, got %q", d.Preview)
	}
	if len([]rune(d.Preview)) > 100 {
		t.Errorf("expected preview of at most 100 characters, got %d", len([]rune(d.Preview)))
	}
	if !strings.HasPrefix(d.Preview, "*** line one line two") {
		t.Errorf("unexpected preview %q", d.Preview)
	}
}

func TestEliminate_Empty(t *testing.T) {
	res := Eliminate(nil, DefaultOptions(), nil)
	if res.CleanedText != "" || res.RemovedCount != 0 || res.Details == nil {
		t.Errorf("unexpected result for empty input: %+v", res)
	}
}

func TestEliminate_CollapsesNewlines(t *testing.T) {
	sections := []Section{{Text: "***\nA\n\n\n\n\n"}, {Text: "***\nB"}}
	res := Eliminate(sections, DefaultOptions(), Similarity)
	if res.CleanedText != "***\nA\n\n\n***\nB" {
		t.Errorf("unexpected cleaned text %q", res.CleanedText)
	}
}

func TestCleaner_Options(t *testing.T) {
	c := New(WithThreshold(0.9), WithMinLength(10))
	got := c.Options()
	if got.Threshold != 0.9 || got.MinLength != 10 {
		t.Errorf("expected threshold 0.9 and min length 10, got %+v", got)
	}

	c = New(WithOptions(LegacyOptions()))
	if diff := cmp.Diff(LegacyOptions(), c.Options()); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestCleaner_WithLeavesOriginal(t *testing.T) {
	base := New(WithMinLength(10))
	derived := base.With(WithThreshold(0.9))

	if base.Options().Threshold != DefaultThreshold {
		t.Errorf("expected base threshold unchanged, got %g", base.Options().Threshold)
	}
	want := Options{Threshold: 0.9, MinLength: 10}
	if diff := cmp.Diff(want, derived.Options()); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestCleaner_CustomPatterns(t *testing.T) {
	c := New(WithPatterns(regexp.MustCompile(`(?i)as an ai language model[^\n]*\n?`)))
	res := c.Cleanup("Opening line.\nAs an AI language model, I polished this.\nClosing line.")
	if strings.Contains(strings.ToLower(res.CleanedText), "language model") {
		t.Errorf("expected custom contamination removed, got %q", res.CleanedText)
	}
	if res.CleanedText != "Opening line.\nClosing line." {
		t.Errorf("unexpected cleaned text %q", res.CleanedText)
	}
}

func removedSet(res Result) []int {
	out := make([]int, 0, len(res.Details))
	for _, d := range res.Details {
		out = append(out, d.RemovedIndex)
	}
	sort.Ints(out)
	return out
}
