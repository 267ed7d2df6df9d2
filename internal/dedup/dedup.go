// Package dedup finds and removes near-duplicate sections in manuscript text.
//
// A manuscript is split into sections at chapter headings and scene breaks,
// every pair of sections is scored, and later sections that score above the
// threshold against an earlier survivor are dropped. A pre-clean pass strips
// known contamination (preambles leaked by an upstream rewriting step) first.
//
// Everything here is pure and safe for concurrent use.
package dedup

import (
	"regexp"
	"strings"
)

const (
	// DefaultThreshold is the similarity a pair must exceed to be merged.
	DefaultThreshold = 0.65
	// DefaultMinLength is the normalized length below which a section is
	// never compared.
	DefaultMinLength = 50

	previewLen = 100
	snippetLen = 100
)

// Section is a contiguous slice of the splitter input.
type Section struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Removal records one discarded section.
type Removal struct {
	RemovedIndex      int    `json:"removed_index"`
	SimilarityPercent int    `json:"similarity_percent"`
	Preview           string `json:"preview"`
}

// Result is the outcome of a cleanup run. Details is in discovery order.
type Result struct {
	CleanedText  string    `json:"cleaned_text"`
	RemovedCount int       `json:"removed_count"`
	Details      []Removal `json:"details"`
}

// Scorer returns a symmetric similarity in [0,1].
type Scorer func(a, b string) float64

// Options tunes the eliminator.
type Options struct {
	Threshold float64
	MinLength int
}

// DefaultOptions returns the tuned threshold and length floor.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, MinLength: DefaultMinLength}
}

// LegacyOptions returns the earlier, looser variant: 0.70 with no length floor.
func LegacyOptions() Options {
	return Options{Threshold: 0.70, MinLength: 0}
}

// Option customises a Cleaner.
type Option func(*Cleaner)

// WithThreshold sets the similarity threshold.
func WithThreshold(t float64) Option { return func(c *Cleaner) { c.opts.Threshold = t } }

// WithMinLength sets the normalized length floor.
func WithMinLength(n int) Option { return func(c *Cleaner) { c.opts.MinLength = n } }

// WithOptions replaces threshold and length floor at once.
func WithOptions(o Options) Option { return func(c *Cleaner) { c.opts = o } }

// WithScorer swaps the similarity metric.
func WithScorer(s Scorer) Option {
	return func(c *Cleaner) {
		if s != nil {
			c.scorer = s
		}
	}
}

// WithPatterns replaces the contamination patterns used by the pre-cleaner.
func WithPatterns(patterns ...*regexp.Regexp) Option {
	return func(c *Cleaner) {
		c.patterns = append([]*regexp.Regexp(nil), patterns...)
	}
}

// Cleaner holds the configuration for a cleanup run. The zero value is not
// usable; build one with New.
type Cleaner struct {
	opts     Options
	scorer   Scorer
	patterns []*regexp.Regexp
}

// New returns a Cleaner with default options and patterns.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		opts:     DefaultOptions(),
		scorer:   Similarity,
		patterns: DefaultPatterns(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Options returns the effective eliminator options.
func (c *Cleaner) Options() Options { return c.opts }

// With returns a copy of c with opts applied on top.
func (c *Cleaner) With(opts ...Option) *Cleaner {
	cp := *c
	for _, o := range opts {
		o(&cp)
	}
	return &cp
}

var defaultCleaner = New()

// Cleanup runs the full pipeline with the default configuration.
func Cleanup(text string) Result {
	return defaultCleaner.Cleanup(text)
}

// Sections returns the sections Cleanup compares: the split of text after
// contamination is stripped and breaks are normalized. Removal indexes refer
// to this list.
func (c *Cleaner) Sections(text string) []Section {
	return Split(normalizeBreaks(c.stripContamination(text)))
}

// Cleanup pre-cleans text, splits it, drops near-duplicate sections and
// reassembles the survivors.
//
// The repeated "Chapter 1" heading pass runs after elimination so that two
// identical headed sections are still compared as separate sections.
func (c *Cleaner) Cleanup(text string) Result {
	res := Eliminate(c.Sections(text), c.opts, c.scorer)
	res.CleanedText = collapseNewlines(dropRepeatedOpening(res.CleanedText))
	return res
}

// normalize lowercases and collapses whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var newlineRun = regexp.MustCompile(`\n{4,}`)

func collapseNewlines(s string) string {
	return newlineRun.ReplaceAllString(s, "\n\n\n")
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
