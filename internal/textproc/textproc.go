// Package textproc turns raw complaint text into the terms the vectorizer counts.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minTokenLen drops single-character tokens.
const minTokenLen = 2

// Normalize applies NFKC normalization and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits s into maximal runs of letters, digits and underscores,
// keeping runs of at least two runes. s is expected to be normalized.
func Tokenize(s string) []string {
	var tokens []string
	start, runes := -1, 0

	flush := func(end int) {
		if start >= 0 && runes >= minTokenLen {
			tokens = append(tokens, s[start:end])
		}
		start, runes = -1, 0
	}

	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(s))
	return tokens
}

// RemoveStopWords filters English stop words out of tokens.
func RemoveStopWords(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if !IsStopWord(t) {
			out = append(out, t)
		}
	}
	return out
}

// NGrams returns every n-gram with minN <= n <= maxN, joined by single
// spaces. All unigrams come first, then bigrams, and so on.
func NGrams(tokens []string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				grams = append(grams, tokens[i])
				continue
			}
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// Analyze runs the full chain: normalize, tokenize, drop stop words, build n-grams.
func Analyze(s string, minN, maxN int) []string {
	return NGrams(RemoveStopWords(Tokenize(Normalize(s))), minN, maxN)
}
