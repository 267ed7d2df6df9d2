// Package chapters splits a manuscript into numbered chapters and joins them
// back into a single text.
package chapters

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Chapter is one numbered chapter of a manuscript.
type Chapter struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
	Order     int    `json:"order"`
}

// Matches "Chapter 3: Title", "CHAPTER IV", "Ch. 2 - Title" and "## Chapter 5",
// one per line. Roman numerals must be upper case.
var headingRe = regexp.MustCompile(`(?m)^[ \t]*(?:#{1,6}[ \t]*)?(?:(?i:chapter)[ \t]*|(?i:ch)(?:\.[ \t]*|[ \t]+))(\d+|[IVXLCDM]+)\b[ \t]*[:.\-–—]*[ \t]*(.*?)[ \t]*\r?$`)

// Extract finds chapter headings and returns the chapters in order. Text
// before the first heading is not part of any chapter. A manuscript with no
// headings becomes a single chapter titled "Main Content".
func Extract(text string) []Chapter {
	locs := headingRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if strings.TrimSpace(text) == "" {
			return []Chapter{}
		}
		return []Chapter{{
			Number:    1,
			Title:     "Main Content",
			Content:   text,
			WordCount: WordCount(text),
		}}
	}

	out := make([]Chapter, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		numeral := text[loc[2]:loc[3]]
		title := strings.TrimSpace(text[loc[4]:loc[5]])
		if title == "" {
			title = "Untitled"
		}
		content := trimRule(text[loc[1]:end])

		n := parseNumeral(numeral)
		if n == 0 {
			n = i + 1
		}
		out = append(out, Chapter{
			Number:    n,
			Title:     title,
			Content:   content,
			WordCount: WordCount(content),
			Order:     i,
		})
	}
	return out
}

// Merge renders chapters in Order as "Chapter N: Title" blocks separated by
// horizontal rules.
func Merge(chapters []Chapter) string {
	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, func(a, b Chapter) int { return a.Order - b.Order })

	parts := make([]string, len(sorted))
	for i, ch := range sorted {
		parts[i] = "Chapter " + strconv.Itoa(ch.Number) + ": " + ch.Title + "\n\n" + ch.Content
	}
	return strings.Join(parts, "\n\n---\n\n")
}

var trailingRule = regexp.MustCompile(`(?:^|\n)[ \t]*-{3,}[ \t]*$`)

// trimRule trims s and drops a trailing horizontal rule, the separator Merge
// writes between chapters.
func trimRule(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(trailingRule.ReplaceAllString(s, ""))
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// parseNumeral reads an arabic or upper-case roman numeral. It returns 0 when
// s is neither.
func parseNumeral(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}
