package config

import (
	"fmt"

	"github.com/cognicore/topica/pkg/topica/ingest"
	"github.com/cognicore/topica/pkg/topica/lemma"
	"github.com/cognicore/topica/pkg/topica/lexicon"
	"github.com/cognicore/topica/pkg/topica/stoplist"
)

// Loader loads the resources named by a Config and constructs components
type Loader struct {
	Config Config

	// Tagger replaces the default prose/golem tagger when set.
	Tagger lemma.Tagger
}

// Components holds all loaded configuration components
type Components struct {
	Stoplist  *stoplist.Manager
	Lexicon   *lexicon.Lexicon
	Tokenizer *ingest.Tokenizer
	Filter    *lemma.Filter
	Pipeline  *ingest.Pipeline
}

// Load reads all resource files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	comp := &Components{}

	stops, err := stoplist.ForLanguage(cfg.Text.Language)
	if err != nil {
		return nil, err
	}
	if cfg.Text.Stoplist != "" {
		extra, err := stoplist.LoadTerms(cfg.Text.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stops.Add(extra...)
	}
	comp.Stoplist = stops

	if cfg.Text.Lexicon != "" {
		lex, err := lexicon.Load(cfg.Text.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon = lex
	}

	comp.Tokenizer = ingest.NewTokenizer(stops, cfg.Text.MinLen, cfg.Text.MaxLen)
	comp.Tokenizer.Deaccent = cfg.Text.Deaccent

	tagger := l.Tagger
	if tagger == nil {
		pt, err := lemma.NewProseTagger(comp.Lexicon)
		if err != nil {
			return nil, err
		}
		tagger = pt
	}
	comp.Filter = lemma.NewFilter(tagger, cfg.Text.AllowedPOS)

	comp.Pipeline = ingest.NewPipeline(comp.Tokenizer, comp.Filter, cfg.PhrasesConfig(), cfg.Text.Workers)
	return comp, nil
}
