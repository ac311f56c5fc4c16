package topica

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/ingest"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lda"
	"github.com/cognicore/topica/pkg/topica/lemma"
	"github.com/cognicore/topica/pkg/topica/phrases"
	"github.com/cognicore/topica/pkg/topica/stoplist"
	"github.com/cognicore/topica/pkg/topica/store/memstore"
	"github.com/cognicore/topica/pkg/topica/sweep"
)

type nounTagger struct{}

func (nounTagger) Tag(tokens []string) ([]lemma.Tagged, error) {
	out := make([]lemma.Tagged, len(tokens))
	for i, tok := range tokens {
		out[i] = lemma.Tagged{Token: tok, Tag: lemma.Noun, Lemma: tok}
	}
	return out, nil
}

func testRecords() []ingest.Record {
	texts := []string{
		"RT @someone: ignore all of this",
		"The border wall is going up fast @CBP",
		"Fake News media again https://t.co/abcdef",
		"border wall border security now",
		"fake news media is the enemy",
		"#FakeNews media hates the border wall",
		"tariffs on china trade deal",
		"china trade tariffs farmers",
		"great trade deal with china pic.twitter.com/abcdefghij",
	}
	recs := make([]ingest.Record, len(texts))
	for i, text := range texts {
		recs[i] = ingest.Record{ID: string(rune('a' + i)), Text: text}
	}
	return recs
}

func newTestEngine(t *testing.T) (*Engine, *memstore.Store) {
	t.Helper()
	stops, err := stoplist.ForLanguage("english")
	if err != nil {
		t.Fatalf("ForLanguage: %v", err)
	}
	pipeline := ingest.NewPipeline(
		ingest.NewTokenizer(stops, 0, 0),
		lemma.NewFilter(nounTagger{}, nil),
		phrases.Config{MinCount: 2, Threshold: 0.1},
		2,
	)
	st := memstore.New()
	eng := New(Options{
		Store:    st,
		Pipeline: pipeline,
		LDA:      lda.Config{Passes: 5, Seed: lda.SeedValue(3)},
		Keywords: 3,
	})
	t.Cleanup(func() { eng.Close() })
	return eng, st
}

func TestPrepareCleansAndBuildsCorpus(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	records := testRecords()
	sum, err := eng.Prepare(ctx, records)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if sum.Documents != len(records) {
		t.Errorf("Documents = %d, want %d", sum.Documents, len(records))
	}
	if sum.Empty != 1 {
		t.Errorf("Empty = %d, want 1 (the retweet)", sum.Empty)
	}
	if sum.Vocabulary != eng.Dictionary().Len() {
		t.Errorf("Vocabulary = %d, dictionary has %d", sum.Vocabulary, eng.Dictionary().Len())
	}
	if records[1].Clean != "" {
		t.Error("Prepare must not modify the caller's records")
	}

	for _, r := range eng.Records() {
		if strings.Contains(r.Clean, "@") || strings.Contains(r.Clean, "http") || strings.Contains(r.Clean, "#") {
			t.Errorf("record %s not cleaned: %q", r.ID, r.Clean)
		}
	}
	for i, bow := range eng.Corpus() {
		for _, wc := range bow {
			if eng.Dictionary().Token(wc.ID) == "" {
				t.Errorf("doc %d references unknown id %d", i, wc.ID)
			}
		}
	}

	run, err := st.GetRun(ctx, sum.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Documents != len(records) || run.VocabSize != sum.Vocabulary || run.Seed != 3 {
		t.Errorf("unexpected run record %+v", run)
	}
	stored, err := st.GetPhrases(ctx, sum.RunID)
	if err != nil {
		t.Fatalf("GetPhrases: %v", err)
	}
	if len(stored) != sum.Bigrams+sum.Trigrams {
		t.Errorf("stored %d phrases, want %d", len(stored), sum.Bigrams+sum.Trigrams)
	}
}

func TestPrepareMergesCollocations(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, err := eng.Prepare(context.Background(), testRecords()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, ok := eng.Dictionary().ID("border_wall"); !ok {
		t.Errorf("expected border_wall in vocabulary, got %v", eng.Dictionary().Tokens())
	}
}

func TestPrepareEmptyCorpus(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.Prepare(context.Background(), []ingest.Record{{ID: "1", Text: "RT @a: nothing"}})
	if !errors.Is(err, internalerr.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestSweepAndAssignBeforePrepare(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	if _, err := eng.Sweep(ctx, sweep.Range{Start: 2, Limit: 3, Step: 1}); !errors.Is(err, internalerr.ErrNotFitted) {
		t.Errorf("Sweep: expected ErrNotFitted, got %v", err)
	}
	if _, err := eng.Assign(ctx, 2); !errors.Is(err, internalerr.ErrNotFitted) {
		t.Errorf("Assign: expected ErrNotFitted, got %v", err)
	}
}

func TestSweepRecordsPoints(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	sum, err := eng.Prepare(ctx, testRecords())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	points, err := eng.Sweep(ctx, sweep.Range{Start: 2, Limit: 4, Step: 1})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(points) != 2 || points[0].K != 2 || points[1].K != 3 {
		t.Fatalf("unexpected points %+v", points)
	}

	stored, err := st.GetPoints(ctx, sum.RunID)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d points, want 2", len(stored))
	}
	if stored[0].Coherence != points[0].Coherence {
		t.Errorf("stored coherence %v, want %v", stored[0].Coherence, points[0].Coherence)
	}
}

func TestAssignReusesSweepModel(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	sum, err := eng.Prepare(ctx, testRecords())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	points, err := eng.Sweep(ctx, sweep.Range{Start: 2, Limit: 3, Step: 1})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	model, err := eng.Model(ctx, 2)
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if model != points[0].Model {
		t.Error("Model should reuse the sweep model for a swept count")
	}

	rows, err := eng.Assign(ctx, 2)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(rows) != len(testRecords())-1 {
		t.Errorf("got %d rows, want one per non-empty document", len(rows))
	}
	for _, r := range rows {
		if r.DocIndex == 0 {
			t.Error("the empty retweet document must be skipped")
		}
		if r.DominantTopic < 0 || r.DominantTopic >= 2 {
			t.Errorf("topic %d out of range", r.DominantTopic)
		}
		if r.Text != eng.Records()[r.DocIndex].Clean {
			t.Errorf("row text %q does not match document %d", r.Text, r.DocIndex)
		}
		if len(strings.Split(r.Keywords, ", ")) != 3 {
			t.Errorf("expected 3 keywords, got %q", r.Keywords)
		}
	}

	stored, err := st.GetAssignments(ctx, sum.RunID, 2)
	if err != nil {
		t.Fatalf("GetAssignments: %v", err)
	}
	if len(stored) != len(rows) {
		t.Errorf("stored %d rows, want %d", len(stored), len(rows))
	}
}

func TestAssignTrainsUnsweptCount(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	if _, err := eng.Prepare(ctx, testRecords()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	rows, err := eng.Assign(ctx, 4)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	for _, r := range rows {
		if r.DominantTopic >= 4 {
			t.Errorf("topic %d out of range", r.DominantTopic)
		}
	}
}

func TestEngineWithoutStore(t *testing.T) {
	stops, _ := stoplist.ForLanguage("english")
	eng := New(Options{
		Pipeline: ingest.NewPipeline(ingest.NewTokenizer(stops, 0, 0), lemma.NewFilter(nounTagger{}, nil), phrases.Config{}, 1),
		LDA:      lda.Config{Passes: 2, Seed: lda.SeedValue(1)},
	})
	sum, err := eng.Prepare(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if sum.RunID != "" || eng.RunID() != "" {
		t.Error("no run should be recorded without a store")
	}
	if err := eng.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPrepareFiltersDictionary(t *testing.T) {
	stops, _ := stoplist.ForLanguage("english")
	newEngine := func(f *corpus.Filter) *Engine {
		return New(Options{
			Pipeline: ingest.NewPipeline(ingest.NewTokenizer(stops, 0, 0), lemma.NewFilter(nounTagger{}, nil), phrases.Config{MinCount: 2, Threshold: 0.1}, 1),
			LDA:      lda.Config{Passes: 2, Seed: lda.SeedValue(1)},
			Filter:   f,
		})
	}

	full, err := newEngine(nil).Prepare(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	eng := newEngine(&corpus.Filter{NoBelow: 2, NoAbove: 1})
	filtered, err := eng.Prepare(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Prepare filtered: %v", err)
	}
	if filtered.Vocabulary >= full.Vocabulary {
		t.Errorf("filtered vocabulary %d should be smaller than %d", filtered.Vocabulary, full.Vocabulary)
	}
	for _, bow := range eng.Corpus() {
		for _, wc := range bow {
			if wc.ID >= eng.Dictionary().Len() {
				t.Fatalf("id %d outside filtered dictionary", wc.ID)
			}
		}
	}
}

func TestSuggestStopwords(t *testing.T) {
	eng, _ := newTestEngine(t)
	stops, _ := stoplist.ForLanguage("english")
	if _, err := eng.SuggestStopwords(stops, stoplist.Thresholds{}); !errors.Is(err, internalerr.ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}

	records := []ingest.Record{
		{ID: "1", Text: "great wall"},
		{ID: "2", Text: "great china"},
		{ID: "3", Text: "great media"},
		{ID: "4", Text: "great deal"},
	}
	if _, err := eng.Prepare(context.Background(), records); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	got, err := eng.SuggestStopwords(stops, stoplist.Thresholds{DFPercent: 60, NPMIMax: 0.15})
	if err != nil {
		t.Fatalf("SuggestStopwords: %v", err)
	}
	if len(got) != 1 || got[0].Token != "great" || got[0].DF != 4 {
		t.Errorf("SuggestStopwords = %+v", got)
	}
}
