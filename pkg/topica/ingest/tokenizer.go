package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/topica/pkg/topica/stoplist"
)

// Token length bounds, in runes.
const (
	DefaultMinLen = 2
	DefaultMaxLen = 15
)

// Tokenizer splits cleaned text into lowercase alphabetic tokens, dropping
// tokens outside the length bounds and stopwords.
type Tokenizer struct {
	stops  *stoplist.Manager
	minLen int
	maxLen int

	// Deaccent folds "café" to "cafe" before splitting.
	Deaccent bool
}

// NewTokenizer creates a tokenizer. Non-positive bounds fall back to the
// defaults; stops may be nil.
func NewTokenizer(stops *stoplist.Manager, minLen, maxLen int) *Tokenizer {
	if minLen <= 0 {
		minLen = DefaultMinLen
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Tokenizer{stops: stops, minLen: minLen, maxLen: maxLen}
}

// Tokenize returns the tokens of text in order. Any non-letter rune
// (digits and underscores included) separates tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	if t.Deaccent {
		text = deaccent(text)
	}

	var tokens []string
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		word = strings.ToLower(word)
		n := utf8.RuneCountInString(word)
		if n < t.minLen || n > t.maxLen {
			continue
		}
		if t.stops.IsStop(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TokenizeAll tokenizes every text in order.
func (t *Tokenizer) TokenizeAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, text := range texts {
		out[i] = t.Tokenize(text)
	}
	return out
}

func deaccent(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}
