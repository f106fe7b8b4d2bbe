package index

import (
	"regexp"
	"strings"
)

var (
	wordRe       = regexp.MustCompile(`\w+`)
	identifierRe = regexp.MustCompile(`\b[A-Za-z_][\w$]*\b`)
)

// minTokenLen is the shortest word kept by Tokenize, exclusive.
const minTokenLen = 2

// TokenSet is a set of lowercase words
type TokenSet map[string]struct{}

// Tokenize splits text into a set of lowercase words longer than two
// characters. Shorter words (loop variables, "if", "x") carry no signal.
func Tokenize(text string) TokenSet {
	words := wordRe.FindAllString(text, -1)
	tokens := make(TokenSet, len(words))
	for _, w := range words {
		if len(w) > minTokenLen {
			tokens[strings.ToLower(w)] = struct{}{}
		}
	}
	return tokens
}

// Identifiers returns the identifier-like words of text in first-occurrence
// order, without duplicates.
func Identifiers(text string) []string {
	matches := identifierRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, m)
	}
	return ids
}
