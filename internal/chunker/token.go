package chunker

import "strings"

// EstimateTokens approximates a token count at 1.33 tokens per word. Exact
// tokenization is not needed to size refine requests.
func EstimateTokens(text string) int {
	return tokensForWords(len(strings.Fields(text)))
}

func tokensForWords(n int) int {
	if n == 0 {
		return 0
	}
	return max(1, int(float64(n)*1.33))
}
