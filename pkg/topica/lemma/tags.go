package lemma

import "strings"

// Universal part-of-speech tags.
const (
	Noun         = "NOUN"
	ProperNoun   = "PROPN"
	Adjective    = "ADJ"
	Verb         = "VERB"
	Auxiliary    = "AUX"
	Adverb       = "ADV"
	Pronoun      = "PRON"
	Determiner   = "DET"
	Adposition   = "ADP"
	Conjunction  = "CCONJ"
	Numeral      = "NUM"
	Interjection = "INTJ"
	Particle     = "PART"
	Other        = "X"
)

// DefaultAllowed keeps content words only.
var DefaultAllowed = []string{Noun, Adjective, Verb, Adverb}

// Universal maps a Penn Treebank tag to its universal tag.
func Universal(penn string) string {
	switch {
	case penn == "NN" || penn == "NNS":
		return Noun
	case strings.HasPrefix(penn, "NNP"):
		return ProperNoun
	case strings.HasPrefix(penn, "JJ"):
		return Adjective
	case strings.HasPrefix(penn, "VB"):
		return Verb
	case penn == "MD":
		return Auxiliary
	case strings.HasPrefix(penn, "RB") || penn == "WRB":
		return Adverb
	case penn == "PRP" || penn == "PRP$" || penn == "WP" || penn == "WP$" || penn == "EX":
		return Pronoun
	case penn == "DT" || penn == "PDT" || penn == "WDT":
		return Determiner
	case penn == "IN":
		return Adposition
	case penn == "CC":
		return Conjunction
	case penn == "CD":
		return Numeral
	case penn == "UH":
		return Interjection
	case penn == "RP" || penn == "TO" || penn == "POS":
		return Particle
	default:
		return Other
	}
}
