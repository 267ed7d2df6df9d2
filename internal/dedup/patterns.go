package dedup

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PatternFile is the YAML shape of a contamination pattern list:
//
//	include_defaults: true
//	patterns:
//	  - '(?i)^as an ai language model[^\n]*\n?'
type PatternFile struct {
	IncludeDefaults bool     `yaml:"include_defaults"`
	Patterns        []string `yaml:"patterns"`
}

// ParsePatterns compiles the patterns listed in a YAML document.
func ParsePatterns(data []byte) ([]*regexp.Regexp, error) {
	var pf PatternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}

	var out []*regexp.Regexp
	if pf.IncludeDefaults {
		out = DefaultPatterns()
	}
	for i, src := range pf.Patterns {
		if src == "" {
			return nil, fmt.Errorf("pattern[%d]: empty expression", i)
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("pattern[%d]: %w", i, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// LoadPatternsFile reads and compiles a YAML pattern file.
func LoadPatternsFile(path string) ([]*regexp.Regexp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns %s: %w", path, err)
	}
	return ParsePatterns(data)
}
