package tokenizer

import (
	"strings"
)

// Split returns the whitespace-delimited tokens of text in order.
// Runs of any Unicode whitespace separate tokens; no other normalization is applied.
func Split(text string) []string {
	return strings.Fields(text)
}

// CountTokens returns the number of whitespace-delimited tokens in text.
func CountTokens(text string) int {
	return len(Split(text))
}

// CountMatches scans tokens sequentially and counts exact matches of word.
// It is the reference result the parallel counter must agree with.
func CountMatches(tokens []string, word string) int {
	n := 0
	for _, t := range tokens {
		if t == word {
			n++
		}
	}
	return n
}
