// Package chunker cuts a manuscript into refine-sized pieces along section
// boundaries. Chunks never overlap and concatenate back to the input.
package chunker

import (
	"regexp"
	"strings"

	"github.com/dgallion1/draftroom/internal/dedup"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize int // target chunk size in estimated tokens
}

// DefaultConfig returns the default chunk size.
func DefaultConfig() Config {
	return Config{ChunkSize: 1500}
}

// Chunk is one contiguous slice of the manuscript.
type Chunk struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Heading string `json:"heading,omitempty"` // marker line of the section the chunk starts in
}

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)
	sentenceEnd    = regexp.MustCompile(`[.!?]["'”’)]*\s+`)
	wordRun        = regexp.MustCompile(`\S+\s*`)
)

type unit struct {
	text    string
	heading string
	words   int
}

// Split groups consecutive sections into chunks of at most cfg.ChunkSize
// estimated tokens. A section that is too large on its own is cut at
// paragraph breaks, then sentence ends, then words.
func Split(text string, cfg Config) []Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if text == "" {
		return nil
	}

	var units []unit
	for _, sec := range dedup.Split(text) {
		h := dedup.Heading(sec)
		for _, piece := range splitOversized(sec.Text, cfg.ChunkSize) {
			units = append(units, unit{text: piece, heading: h, words: len(strings.Fields(piece))})
		}
	}

	var (
		chunks  []Chunk
		cur     strings.Builder
		words   int
		heading string
	)
	emit := func() {
		chunks = append(chunks, Chunk{Index: len(chunks), Text: cur.String(), Heading: heading})
		cur.Reset()
		words = 0
	}
	for _, u := range units {
		if cur.Len() > 0 && tokensForWords(words+u.words) > cfg.ChunkSize {
			emit()
		}
		if cur.Len() == 0 {
			heading = u.heading
		}
		cur.WriteString(u.text)
		words += u.words
	}
	if cur.Len() > 0 {
		emit()
	}
	return chunks
}

// Join reassembles chunk texts in index order.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func splitOversized(text string, size int) []string {
	if EstimateTokens(text) <= size {
		return []string{text}
	}
	var out []string
	for _, para := range cutAfter(text, paragraphBreak) {
		if EstimateTokens(para) <= size {
			out = append(out, para)
			continue
		}
		for _, sent := range cutAfter(para, sentenceEnd) {
			if EstimateTokens(sent) <= size {
				out = append(out, sent)
				continue
			}
			out = append(out, cutWords(sent, size)...)
		}
	}
	return out
}

// cutAfter splits text after every match of re, keeping the separators.
func cutAfter(text string, re *regexp.Regexp) []string {
	var out []string
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[1] >= len(text) {
			break
		}
		out = append(out, text[last:loc[1]])
		last = loc[1]
	}
	return append(out, text[last:])
}

func cutWords(text string, size int) []string {
	maxWords := max(1, int(float64(size)/1.33))
	var out []string
	start, n := 0, 0
	for _, loc := range wordRun.FindAllStringIndex(text, -1) {
		if n == maxWords {
			out = append(out, text[start:loc[0]])
			start, n = loc[0], 0
		}
		n++
	}
	return append(out, text[start:])
}
