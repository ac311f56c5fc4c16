// Package lemma tags tokens with universal part-of-speech tags, reduces them
// to dictionary lemmas and keeps only the parts of speech a topic model can
// use.
package lemma

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"

	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lexicon"
)

// Tagged is one input token with its universal tag and lemma.
type Tagged struct {
	Token string
	Tag   string
	Lemma string
}

// Tagger assigns a tag and lemma to every token, one output per input.
type Tagger interface {
	Tag(tokens []string) ([]Tagged, error)
}

// ProseTagger tags with the prose averaged perceptron and lemmatizes with the
// golem English dictionary. Lexicon entries override the dictionary lemma.
//
// Phrase tokens ("fake_news") are tagged and lemmatized on their last
// component, so "fake_news_stories" becomes "fake_news_story".
type ProseTagger struct {
	model      *prose.Model
	lemmatizer *golem.Lemmatizer
	lex        *lexicon.Lexicon
	delimiter  string
}

// NewProseTagger loads the perceptron weights and the English lemma
// dictionary once; every Tag call reuses them. lex may be nil.
func NewProseTagger(lex *lexicon.Lexicon) (*ProseTagger, error) {
	model, err := loadModel()
	if err != nil {
		return nil, err
	}
	lm, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("%w: english lemma dictionary: %v", internalerr.ErrResourceMissing, err)
	}
	return &ProseTagger{model: model, lemmatizer: lm, lex: lex, delimiter: "_"}, nil
}

// loadModel builds the tagging model by running one throwaway document.
// prose panics when its embedded weights cannot be decoded.
func loadModel() (model *prose.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("%w: part-of-speech model: %v", internalerr.ErrResourceMissing, r)
		}
	}()
	warm, err := prose.NewDocument("warm",
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: part-of-speech model: %v", internalerr.ErrResourceMissing, err)
	}
	if warm.Model == nil {
		return nil, fmt.Errorf("%w: part-of-speech model not built", internalerr.ErrResourceMissing)
	}
	return warm.Model, nil
}

// Tag implements Tagger. Safe for concurrent use.
func (p *ProseTagger) Tag(tokens []string) ([]Tagged, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	heads := make([]string, len(tokens))
	for i, tok := range tokens {
		heads[i] = p.head(tok)
	}

	tags, err := p.tagSentence(heads)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(tokens) {
		// The prose tokenizer split or merged something; fall back to
		// tagging tokens one by one so output stays aligned with input.
		tags = make([]string, len(heads))
		for i, h := range heads {
			one, err := p.tagSentence([]string{h})
			if err != nil {
				return nil, err
			}
			tags[i] = Other
			if len(one) > 0 {
				tags[i] = one[0]
			}
		}
	}

	out := make([]Tagged, len(tokens))
	for i, tok := range tokens {
		out[i] = Tagged{Token: tok, Tag: tags[i], Lemma: p.lemma(tok)}
	}
	return out, nil
}

func (p *ProseTagger) head(tok string) string {
	if i := strings.LastIndex(tok, p.delimiter); i >= 0 && i+len(p.delimiter) < len(tok) {
		return tok[i+len(p.delimiter):]
	}
	return tok
}

func (p *ProseTagger) lemma(tok string) string {
	if canonical, ok := p.lex.Lookup(tok); ok {
		return canonical
	}
	i := strings.LastIndex(tok, p.delimiter)
	if i < 0 || i+len(p.delimiter) >= len(tok) {
		return p.lemmatizer.Lemma(tok)
	}
	last := tok[i+len(p.delimiter):]
	if canonical, ok := p.lex.Lookup(last); ok {
		return tok[:i+len(p.delimiter)] + canonical
	}
	return tok[:i+len(p.delimiter)] + p.lemmatizer.Lemma(last)
}

func (p *ProseTagger) tagSentence(words []string) ([]string, error) {
	doc, err := prose.NewDocument(
		strings.Join(words, " "),
		prose.UsingModel(p.model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	toks := doc.Tokens()
	tags := make([]string, len(toks))
	for i, t := range toks {
		tags[i] = Universal(t.Tag)
	}
	return tags, nil
}

// Filter keeps the lemmas of tokens whose tag is allowed.
type Filter struct {
	tagger  Tagger
	allowed map[string]struct{}
}

// NewFilter builds a filter; an empty allowed list means DefaultAllowed.
func NewFilter(tagger Tagger, allowed []string) *Filter {
	if len(allowed) == 0 {
		allowed = DefaultAllowed
	}
	set := make(map[string]struct{}, len(allowed))
	for _, tag := range allowed {
		set[strings.ToUpper(strings.TrimSpace(tag))] = struct{}{}
	}
	return &Filter{tagger: tagger, allowed: set}
}

// Apply tags tokens and returns the allowed lemmas in input order. On a
// tagging error it returns an empty document together with the error; the
// caller decides whether to log and continue.
func (f *Filter) Apply(tokens []string) ([]string, error) {
	tagged, err := f.tagger.Tag(tokens)
	if err != nil {
		return []string{}, err
	}
	out := make([]string, 0, len(tagged))
	for _, t := range tagged {
		if _, ok := f.allowed[t.Tag]; ok && t.Lemma != "" {
			out = append(out, t.Lemma)
		}
	}
	return out, nil
}

// Allowed reports whether tag passes the filter.
func (f *Filter) Allowed(tag string) bool {
	_, ok := f.allowed[tag]
	return ok
}
