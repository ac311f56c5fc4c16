package topica

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/topica/internal/logger"
	"github.com/cognicore/topica/internal/metrics"
	"github.com/cognicore/topica/pkg/topica/assign"
	"github.com/cognicore/topica/pkg/topica/clean"
	"github.com/cognicore/topica/pkg/topica/coherence"
	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/ingest"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lda"
	"github.com/cognicore/topica/pkg/topica/store"
	"github.com/cognicore/topica/pkg/topica/sweep"
)

// Engine is the topic-model pipeline facade: prepare a corpus once, sweep
// topic counts over it, then assign dominant topics for the chosen count.
type Engine struct {
	store    store.Store
	pipeline *ingest.Pipeline
	ldaCfg   lda.Config
	coh      coherence.Options
	keywords int
	filter   *corpus.Filter
	run      store.Run

	stripMarkup bool
	skipClean   bool

	records []ingest.Record
	docs    []ingest.Document
	dict    *corpus.Dictionary
	bows    []corpus.BoW
	points  []sweep.Point
}

// Options configures an Engine
type Options struct {
	Store     store.Store // optional; nil disables run recording
	Pipeline  *ingest.Pipeline
	LDA       lda.Config
	Coherence coherence.Options
	Keywords  int // topic words per assignment row

	// Filter prunes rare and ubiquitous tokens from the dictionary before
	// training. Nil keeps every token.
	Filter *corpus.Filter

	StripMarkup bool // decode entities and drop tags before cleaning
	SkipClean   bool // records are already normalized

	// Run is the template for the stored run record (input, version,
	// config snapshot). ID and counts are filled in by Prepare.
	Run store.Run
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	return &Engine{
		store:       opts.Store,
		pipeline:    opts.Pipeline,
		ldaCfg:      opts.LDA,
		coh:         opts.Coherence,
		keywords:    opts.Keywords,
		filter:      opts.Filter,
		run:         opts.Run,
		stripMarkup: opts.StripMarkup,
		skipClean:   opts.SkipClean,
	}
}

// Close releases the store, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Summary describes a prepared corpus.
type Summary struct {
	RunID      string
	Documents  int
	Empty      int // documents with no tokens left after preparation
	Vocabulary int
	Bigrams    int
	Trigrams   int
}

// Prepare cleans the records, fits the collocation models on the whole
// corpus, lemmatizes every document and builds the dictionary and
// bag-of-words corpus. It replaces any previously prepared corpus.
func (e *Engine) Prepare(ctx context.Context, records []ingest.Record) (Summary, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	recs := make([]ingest.Record, len(records))
	copy(recs, records)
	for i := range recs {
		text := recs[i].Text
		if e.stripMarkup {
			text = ingest.StripMarkup(text)
		}
		if !e.skipClean {
			text = clean.Tweet(text)
		}
		recs[i].Clean = text
	}
	texts := ingest.CleanTexts(recs)

	if err := e.pipeline.Fit(texts); err != nil {
		return Summary{}, fmt.Errorf("fit collocations: %w", err)
	}
	docs, err := e.pipeline.Process(ctx, texts)
	if err != nil {
		return Summary{}, fmt.Errorf("process documents: %w", err)
	}

	lemmas := ingest.Lemmas(docs)
	dict, bows := corpus.Build(lemmas)
	if e.filter != nil {
		full := dict.Len()
		dict = e.filter.Apply(dict)
		bows = dict.Corpus(lemmas)
		log.Info("dictionary filtered", zap.Int("before", full), zap.Int("after", dict.Len()))
	}
	if dict.Len() == 0 {
		return Summary{}, fmt.Errorf("prepare %d records: %w", len(records), internalerr.ErrEmptyCorpus)
	}
	metrics.VocabularySize.Set(float64(dict.Len()))

	e.records, e.docs, e.dict, e.bows, e.points = recs, docs, dict, bows, nil

	colloc := e.pipeline.Collocations()
	sum := Summary{
		Documents:  len(docs),
		Vocabulary: dict.Len(),
		Bigrams:    colloc.Bigram.Len(),
		Trigrams:   colloc.Trigram.Len(),
	}
	for _, bow := range bows {
		if len(bow) == 0 {
			sum.Empty++
		}
	}

	if e.store != nil {
		run := e.run
		run.ID = ""
		run.CreatedAt = time.Time{}
		run.Documents = len(docs)
		run.VocabSize = dict.Len()
		run.Measure = string(e.coh.Measure)
		if e.ldaCfg.Seed != nil {
			run.Seed = *e.ldaCfg.Seed
		}
		created, err := e.store.CreateRun(ctx, run)
		if err != nil {
			return Summary{}, fmt.Errorf("record run: %w", err)
		}
		e.run = created
		sum.RunID = created.ID

		if err := e.store.SavePhrases(ctx, created.ID, storePhrases(colloc.Bigram.Phrases(), colloc.Trigram.Phrases())); err != nil {
			return Summary{}, fmt.Errorf("record phrases: %w", err)
		}
	}

	log.Info("corpus prepared",
		zap.String("run", sum.RunID),
		zap.Int("documents", sum.Documents),
		zap.Int("empty", sum.Empty),
		zap.Int("vocabulary", sum.Vocabulary),
		zap.Int("bigrams", sum.Bigrams),
		zap.Int("trigrams", sum.Trigrams),
		zap.Duration("duration", time.Since(start)),
	)
	return sum, nil
}

// Sweep trains and scores one model per topic count in rng. Completed
// points are kept and recorded even when the sweep stops early.
func (e *Engine) Sweep(ctx context.Context, rng sweep.Range) ([]sweep.Point, error) {
	if e.dict == nil {
		return nil, internalerr.ErrNotFitted
	}
	points, runErr := sweep.Run(ctx, sweep.Input{
		Dictionary: e.dict,
		BoWs:       e.bows,
		Texts:      ingest.Lemmas(e.docs),
	}, rng, sweep.Options{LDA: e.ldaCfg, Coherence: e.coh})
	e.points = append(e.points, points...)

	if e.store != nil && e.run.ID != "" && len(points) > 0 {
		if err := e.store.SavePoints(context.WithoutCancel(ctx), e.run.ID, storePoints(points)); err != nil {
			return points, fmt.Errorf("record sweep: %w", err)
		}
	}
	return points, runErr
}

// Model returns the model for k from a previous sweep, or trains one.
func (e *Engine) Model(ctx context.Context, k int) (*lda.Model, error) {
	if e.dict == nil {
		return nil, internalerr.ErrNotFitted
	}
	if p, ok := sweep.Find(e.points, k); ok {
		return p.Model, nil
	}
	cfg := e.ldaCfg
	cfg.K = k
	return lda.Train(ctx, e.bows, e.dict.Len(), cfg)
}

// Assign labels every document with its dominant topic under the k-topic
// model. Documents without a topic distribution are skipped.
func (e *Engine) Assign(ctx context.Context, k int) ([]assign.Assignment, error) {
	model, err := e.Model(ctx, k)
	if err != nil {
		return nil, err
	}
	rows := assign.Extract(model, e.dict, e.bows, ingest.CleanTexts(e.records), e.keywords)

	skipped := len(e.bows) - len(rows)
	metrics.AssignmentsSkipped.Add(float64(skipped))
	logger.FromContext(ctx).Info("topics assigned",
		zap.Int("k", k),
		zap.Int("rows", len(rows)),
		zap.Int("skipped", skipped),
	)

	if e.store != nil && e.run.ID != "" {
		if err := e.store.SaveAssignments(ctx, e.run.ID, k, storeAssignments(rows)); err != nil {
			return rows, fmt.Errorf("record assignments: %w", err)
		}
	}
	return rows, nil
}

// Dictionary returns the prepared dictionary, or nil before Prepare.
func (e *Engine) Dictionary() *corpus.Dictionary { return e.dict }

// Corpus returns the prepared bag-of-words vectors.
func (e *Engine) Corpus() []corpus.BoW { return e.bows }

// Documents returns the prepared documents in record order.
func (e *Engine) Documents() []ingest.Document { return e.docs }

// Records returns the records with their cleaned text.
func (e *Engine) Records() []ingest.Record { return e.records }

// RunID returns the id of the recorded run, or "".
func (e *Engine) RunID() string { return e.run.ID }
