package dedup

import (
	"regexp"
	"sort"
	"strings"
)

var sectionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^#{1,3}\s+Chapter\s+\d+`),
	regexp.MustCompile(`(?m)^\*{3,}$`),
	regexp.MustCompile(`(?im)^Chapter\s+\d+:`),
}

// Split partitions text at chapter headings and scene breaks. The sections
// are contiguous and their concatenation is exactly text. Text before the
// first marker is its own section; text without markers is a single section.
func Split(text string) []Section {
	seen := make(map[int]bool)
	var offsets []int
	for _, re := range sectionMarkers {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !seen[loc[0]] {
				seen[loc[0]] = true
				offsets = append(offsets, loc[0])
			}
		}
	}

	if len(offsets) == 0 {
		return []Section{{Text: text, Start: 0, End: len(text)}}
	}
	sort.Ints(offsets)

	sections := make([]Section, 0, len(offsets)+1)
	if offsets[0] > 0 {
		sections = append(sections, Section{Text: text[:offsets[0]], Start: 0, End: offsets[0]})
	}
	for i, start := range offsets {
		end := len(text)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		sections = append(sections, Section{Text: text[start:end], Start: start, End: end})
	}
	return sections
}

// Heading returns the first line of s when s opens with a section marker,
// and "" otherwise.
func Heading(s Section) string {
	for _, re := range sectionMarkers {
		if loc := re.FindStringIndex(s.Text); loc != nil && loc[0] == 0 {
			line, _, _ := strings.Cut(s.Text, "\n")
			return strings.TrimSpace(line)
		}
	}
	return ""
}
