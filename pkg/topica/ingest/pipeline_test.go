package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lemma"
	"github.com/cognicore/topica/pkg/topica/phrases"
	"github.com/cognicore/topica/pkg/topica/stoplist"
)

// nounTagger tags every token as a noun and fails on "boom".
type nounTagger struct{}

func (nounTagger) Tag(tokens []string) ([]lemma.Tagged, error) {
	out := make([]lemma.Tagged, len(tokens))
	for i, tok := range tokens {
		if tok == "boom" {
			return nil, errors.New("tagger exploded")
		}
		out[i] = lemma.Tagged{Token: tok, Tag: lemma.Noun, Lemma: tok}
	}
	return out, nil
}

func newTestPipeline(workers int) *Pipeline {
	stops, _ := stoplist.ForLanguage("english")
	return NewPipeline(
		NewTokenizer(stops, 0, 0),
		lemma.NewFilter(nounTagger{}, nil),
		phrases.Config{MinCount: 2, Threshold: 0.1},
		workers,
	)
}

func TestPipelineProcessBeforeFit(t *testing.T) {
	p := newTestPipeline(1)
	if _, err := p.Process(context.Background(), []string{"text"}); !errors.Is(err, internalerr.ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
	if p.Collocations() != nil {
		t.Error("Collocations should be nil before Fit")
	}
}

func TestPipelineMergesPhrases(t *testing.T) {
	texts := []string{
		"the fake news media",
		"more fake news today",
		"fake news again",
		"failing media",
	}
	p := newTestPipeline(2)
	if err := p.Fit(texts); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	docs, err := p.Process(context.Background(), texts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(docs) != len(texts) {
		t.Fatalf("expected %d docs, got %d", len(texts), len(docs))
	}
	found := false
	for _, tok := range docs[2].Lemmas {
		if tok == "fake_news" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fake_news in %v", docs[2].Lemmas)
	}
	if !reflect.DeepEqual(docs[3].Lemmas, []string{"failing", "media"}) {
		t.Errorf("unexpected lemmas %v", docs[3].Lemmas)
	}
}

func TestPipelineTaggingErrorYieldsEmptyDocument(t *testing.T) {
	texts := []string{"first tweet here", "boom goes everything", "last tweet here"}
	p := newTestPipeline(4)
	if err := p.Fit(texts); err != nil {
		t.Fatal(err)
	}
	docs, err := p.Process(context.Background(), texts)
	if err != nil {
		t.Fatalf("a per-document failure must not abort the batch: %v", err)
	}
	if len(docs[1].Lemmas) != 0 {
		t.Errorf("expected empty document, got %v", docs[1].Lemmas)
	}
	if len(docs[0].Lemmas) == 0 || len(docs[2].Lemmas) == 0 {
		t.Error("neighbouring documents should be processed")
	}
}

func TestPipelineCancelled(t *testing.T) {
	p := newTestPipeline(1)
	if err := p.Fit([]string{"a tweet"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Process(ctx, []string{"a tweet", "another"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLemmas(t *testing.T) {
	got := Lemmas([]Document{{Lemmas: []string{"a"}}, {}})
	if len(got) != 2 || got[0][0] != "a" || len(got[1]) != 0 {
		t.Errorf("Lemmas = %v", got)
	}
}
