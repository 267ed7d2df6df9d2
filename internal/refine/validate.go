package refine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyRefinement is returned for blank model output.
var ErrEmptyRefinement = errors.New("refined text is empty")

// ValidateRefinement rejects model output that cannot be a copy-edit of
// original: empty text, or a word count under half or over double the
// original's.
func ValidateRefinement(original, refined string) error {
	if strings.TrimSpace(refined) == "" {
		return ErrEmptyRefinement
	}
	orig := len(strings.Fields(original))
	got := len(strings.Fields(refined))
	if orig == 0 {
		return nil
	}
	if got*2 < orig {
		return fmt.Errorf("refined text too short: %d words for %d original", got, orig)
	}
	if got > orig*2 {
		return fmt.Errorf("refined text too long: %d words for %d original", got, orig)
	}
	return nil
}
