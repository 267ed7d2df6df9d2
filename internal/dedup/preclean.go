package dedup

import (
	"regexp"
	"strings"
)

// Preamble leaked by an upstream rewriting call, as observed in stored
// drafts. Looser variants belong in a patterns file; see
// configs/contamination.example.yaml.
var defaultPatternSources = []string{
	`(?i)Here is the refined manuscript draft.*?better readability and presentation.*?\.`,
}

// DefaultPatterns returns fresh copies of the built-in contamination patterns.
func DefaultPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(defaultPatternSources))
	for _, src := range defaultPatternSources {
		out = append(out, regexp.MustCompile(src))
	}
	return out
}

// A "Chapter 1" heading line: either markdown-prefixed, or bare with at most
// a ":", "." or "-" separated title. Prose that merely starts with the words
// does not match.
var repeatedOpening = regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]*chapter[ \t]+1\b[^\n]*|chapter[ \t]+1[ \t]*(?:[:.\-][^\n]*)?)\r?$\n?`)

// PreClean removes known contamination from text, drops a repeated
// "Chapter 1" heading line and normalizes blank lines and scene breaks.
//
// When the text after a leaked preamble repeats content from before it,
// everything from the preamble on is discarded and only the preceding text is
// returned, trimmed.
func (c *Cleaner) PreClean(text string) string {
	stripped, truncated := c.stripContaminationOnce(text)
	if truncated {
		return strings.TrimSpace(stripped)
	}
	return normalizeBreaks(dropRepeatedOpening(stripped))
}

func (c *Cleaner) stripContamination(text string) string {
	stripped, truncated := c.stripContaminationOnce(text)
	if truncated {
		return strings.TrimSpace(stripped)
	}
	return stripped
}

// stripContaminationOnce reports truncated=true when the text following the
// earliest preamble duplicates earlier content and was cut.
func (c *Cleaner) stripContaminationOnce(text string) (string, bool) {
	var first []int
	for _, re := range c.patterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if first == nil || loc[0] < first[0] {
			first = loc
		}
	}
	if first == nil {
		return text, false
	}

	before := text[:first[0]]
	snippet := firstRunes(normalize(text[first[1]:]), snippetLen)
	if snippet != "" && strings.Contains(normalize(before), snippet) {
		return before, true
	}

	for _, re := range c.patterns {
		text = re.ReplaceAllString(text, "")
	}
	return text, false
}

// dropRepeatedOpening removes the second "Chapter 1" heading line, if any.
// The text under it stays.
func dropRepeatedOpening(text string) string {
	locs := repeatedOpening.FindAllStringIndex(text, 2)
	if len(locs) < 2 {
		return text
	}
	second := locs[1]
	return text[:second[0]] + text[second[1]:]
}

func normalizeBreaks(text string) string {
	text = collapseNewlines(text)
	text = collapseSceneBreaks(text)
	return strings.TrimSpace(text)
}

var sceneBreakLine = regexp.MustCompile(`^[ \t]*\*{3,}[ \t]*$`)

// collapseSceneBreaks replaces runs of two or more scene-break lines,
// optionally separated by blank lines, with a single "\n\n***\n\n".
func collapseSceneBreaks(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		if !sceneBreakLine.MatchString(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}

		last := i
		for j := i + 1; j < len(lines); j++ {
			if sceneBreakLine.MatchString(lines[j]) {
				last = j
				continue
			}
			if strings.TrimSpace(lines[j]) != "" {
				break
			}
		}
		if last == i {
			out = append(out, lines[i])
			i++
			continue
		}

		for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
			out = out[:len(out)-1]
		}
		out = append(out, "", "***", "")
		i = last + 1
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
	}
	return strings.Join(out, "\n")
}
