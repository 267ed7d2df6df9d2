package dedup

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Eliminate drops every section that scores above opts.Threshold against an
// earlier surviving section. The earliest occurrence always wins. Sections
// whose normalized length is under opts.MinLength are never compared.
func Eliminate(sections []Section, opts Options, score Scorer) Result {
	if score == nil {
		score = Similarity
	}
	res := Result{Details: []Removal{}}
	if len(sections) == 0 {
		return res
	}

	keep := make([]bool, len(sections))
	short := make([]bool, len(sections))
	for i, s := range sections {
		keep[i] = true
		short[i] = utf8.RuneCountInString(normalize(s.Text)) < opts.MinLength
	}

	for i := range sections {
		if !keep[i] || short[i] {
			continue
		}
		for j := i + 1; j < len(sections); j++ {
			if !keep[j] || short[j] {
				continue
			}
			sim := score(sections[i].Text, sections[j].Text)
			if sim <= opts.Threshold {
				continue
			}
			keep[j] = false
			res.RemovedCount++
			res.Details = append(res.Details, Removal{
				RemovedIndex:      j,
				SimilarityPercent: int(math.Round(sim * 100)),
				Preview:           preview(sections[j].Text),
			})
		}
	}

	var b strings.Builder
	for i, s := range sections {
		if keep[i] {
			b.WriteString(s.Text)
		}
	}
	res.CleanedText = collapseNewlines(b.String())
	return res
}

func preview(text string) string {
	p := firstRunes(text, previewLen)
	p = strings.ReplaceAll(p, "\r\n", " ")
	p = strings.ReplaceAll(p, "\n", " ")
	return strings.TrimSpace(p)
}
