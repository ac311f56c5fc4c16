package ingest

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/topica/internal/logger"
	"github.com/cognicore/topica/internal/metrics"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lemma"
	"github.com/cognicore/topica/pkg/topica/phrases"
)

// Pipeline orchestrates the text preparation flow:
// text → tokenization → bigram/trigram merging → lemmatization + POS filter
type Pipeline struct {
	tokenizer *Tokenizer
	filter    *lemma.Filter
	phraseCfg phrases.Config
	colloc    *phrases.Collocations
	workers   int
}

// NewPipeline creates a preparation pipeline with the given components.
// workers bounds concurrent lemmatization; <= 0 means GOMAXPROCS.
func NewPipeline(tokenizer *Tokenizer, filter *lemma.Filter, phraseCfg phrases.Config, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		tokenizer: tokenizer,
		filter:    filter,
		phraseCfg: phraseCfg,
		workers:   workers,
	}
}

// Document is one text after preparation.
type Document struct {
	Tokens []string // after tokenization and phrase merging
	Lemmas []string // final model input
}

// Fit learns the collocation models from the whole tokenized corpus.
func (p *Pipeline) Fit(texts []string) error {
	colloc, err := phrases.Fit(p.tokenizer.TokenizeAll(texts), p.phraseCfg)
	if err != nil {
		return err
	}
	p.colloc = colloc
	metrics.PhrasesLearned.WithLabelValues("bigram").Set(float64(colloc.Bigram.Len()))
	metrics.PhrasesLearned.WithLabelValues("trigram").Set(float64(colloc.Trigram.Len()))
	return nil
}

// Collocations returns the fitted models, or nil before Fit.
func (p *Pipeline) Collocations() *phrases.Collocations {
	return p.colloc
}

// Process runs every text through the pipeline and returns documents in
// input order. A text whose tagging fails becomes an empty document; only
// context cancellation aborts the batch.
func (p *Pipeline) Process(ctx context.Context, texts []string) ([]Document, error) {
	if p.colloc == nil {
		return nil, internalerr.ErrNotFitted
	}
	log := logger.FromContext(ctx)

	docs := make([]Document, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tokens := p.colloc.Transform(p.tokenizer.Tokenize(text))
			lemmas, err := p.filter.Apply(tokens)
			switch {
			case err != nil:
				log.Warn("tagging failed, document left empty", zap.Int("doc", i), zap.Error(err))
				metrics.DocumentsTotal.WithLabelValues("tag_error").Inc()
			case len(lemmas) == 0:
				metrics.DocumentsTotal.WithLabelValues("empty").Inc()
			default:
				metrics.DocumentsTotal.WithLabelValues("kept").Inc()
			}
			docs[i] = Document{Tokens: tokens, Lemmas: lemmas}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Lemmas extracts the model input of each document.
func Lemmas(docs []Document) [][]string {
	out := make([][]string, len(docs))
	for i, d := range docs {
		out[i] = d.Lemmas
	}
	return out
}
