package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/topica/pkg/topica/coherence"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lemma"
	"github.com/cognicore/topica/pkg/topica/phrases"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Sweep.Start != 2 || cfg.Sweep.Step != 3 {
		t.Errorf("unexpected sweep defaults %+v", cfg.Sweep)
	}
	if cfg.Sweep.PlotPath != filepath.Join("output", "n_topics_coherence.jpg") {
		t.Errorf("PlotPath = %q", cfg.Sweep.PlotPath)
	}
	if cfg.CoherenceOptions().Measure != coherence.CV {
		t.Errorf("default measure = %q", cfg.Coherence.Measure)
	}
	if cfg.Store.Path != filepath.Join("output", "topica.db") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("TOPICA_DATA", "/data")

	cfg, err := Parse([]byte(`
input:
  path: ${TOPICA_DATA}/tweets.jsonl
text:
  allowed_pos: [NOUN, PROPN]
phrases:
  min_count: 3
  threshold: 0.4
  scoring: npmi
lda:
  passes: 20
  seed: 42
sweep:
  start: 5
  limit: 40
  step: 5
coherence:
  measure: u_mass
store:
  driver: ${TOPICA_STORE:-memory}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Input.Path != "/data/tweets.jsonl" || cfg.Input.Format != "jsonl" {
		t.Errorf("input = %+v", cfg.Input)
	}
	if cfg.Store.Driver != "memory" || cfg.Store.Path != "" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.LDA.Seed == nil || *cfg.LDA.Seed != 42 {
		t.Errorf("seed = %v", cfg.LDA.Seed)
	}
	ldaCfg := cfg.LDAConfig()
	if ldaCfg.Passes != 20 || ldaCfg.Seed == nil {
		t.Errorf("LDAConfig = %+v", ldaCfg)
	}
	counts, err := cfg.Range().Counts()
	if err != nil || len(counts) != 7 || counts[0] != 5 {
		t.Errorf("Range counts = %v, %v", counts, err)
	}
	if pc := cfg.PhrasesConfig(); pc.MinCount != 3 || pc.Scoring != "npmi" {
		t.Errorf("PhrasesConfig = %+v", pc)
	}
	if !strings.Contains(cfg.Snapshot(), "u_mass") {
		t.Error("snapshot should include the coherence measure")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []string{
		"input:\n  format: xml\n",
		"sweep:\n  start: 10\n  limit: 5\n",
		"coherence:\n  measure: c_w2v\n",
		"phrases:\n  scoring: npmi\n  threshold: 3\n",
		"store:\n  driver: postgres\n",
		"text:\n  min_len: 5\n  max_len: 3\n",
		"lda:\n  alpha: -1\n",
		"lda: [not, a, map]\n",
	}
	for _, data := range tests {
		if _, err := Parse([]byte(data)); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidConfig", data, err)
		}
	}
}

func TestParseKeepsExplicitSweepBounds(t *testing.T) {
	tests := []string{
		"sweep:\n  start: 2\n  limit: 8\n  step: -3\n",
		"sweep:\n  step: 0\n",
		"sweep:\n  limit: -1\n",
		"sweep:\n  start: 8\n  limit: 8\n",
		"sweep:\n  start: 0\n",
	}
	for _, data := range tests {
		cfg, err := Parse([]byte(data))
		if !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("Parse(%q) = %+v, %v; want ErrInvalidConfig", data, cfg.Sweep, err)
		}
	}

	cfg, err := Parse([]byte("sweep:\n  limit: 9\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Sweep.Start != 2 || cfg.Sweep.Limit != 9 || cfg.Sweep.Step != 3 {
		t.Errorf("absent sweep keys should default, got %+v", cfg.Sweep)
	}
}

func TestParsePhraseThreshold(t *testing.T) {
	cfg, err := Parse([]byte("phrases:\n  scoring: npmi\n  threshold: 0\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pc := cfg.PhrasesConfig().WithDefaults(); pc.Threshold != 0 {
		t.Errorf("explicit zero threshold became %f", pc.Threshold)
	}

	cfg, err = Parse([]byte("phrases:\n  scoring: npmi\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pc := cfg.PhrasesConfig().WithDefaults(); pc.Threshold != phrases.DefaultNPMIThreshold {
		t.Errorf("absent threshold = %f, want default", pc.Threshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/topica.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

type identityTagger struct{}

func (identityTagger) Tag(tokens []string) ([]lemma.Tagged, error) {
	out := make([]lemma.Tagged, len(tokens))
	for i, tok := range tokens {
		out[i] = lemma.Tagged{Token: tok, Tag: lemma.Noun, Lemma: tok}
	}
	return out, nil
}

func TestLoaderBuildsComponents(t *testing.T) {
	dir := t.TempDir()
	stopPath := filepath.Join(dir, "stoplist.yaml")
	lexPath := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(stopPath, []byte("terms: [amp, via]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lexPath, []byte("synonyms:\n  - canonical: covid\n    variants: [coronavirus]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Text.Stoplist = stopPath
	cfg.Text.Lexicon = lexPath

	comp, err := (&Loader{Config: cfg, Tagger: identityTagger{}}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !comp.Stoplist.IsStop("amp") || !comp.Stoplist.IsStop("the") {
		t.Error("stoplist should merge built-in and extra terms")
	}
	if got, ok := comp.Lexicon.Lookup("coronavirus"); !ok || got != "covid" {
		t.Errorf("Lookup(coronavirus) = %q, %v", got, ok)
	}
	if comp.Pipeline == nil || comp.Tokenizer == nil || comp.Filter == nil {
		t.Error("missing components")
	}
	if got := comp.Tokenizer.Tokenize("the amp economy"); len(got) != 1 || got[0] != "economy" {
		t.Errorf("Tokenize = %v", got)
	}
}

func TestLoaderErrors(t *testing.T) {
	cfg := Default()
	cfg.Text.Language = "klingon"
	if _, err := (&Loader{Config: cfg, Tagger: identityTagger{}}).Load(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown language, got %v", err)
	}

	cfg = Default()
	cfg.Text.Stoplist = "/nonexistent/stoplist.yaml"
	if _, err := (&Loader{Config: cfg, Tagger: identityTagger{}}).Load(); err == nil {
		t.Error("expected error for missing stoplist")
	}
}

func TestCorpusFilter(t *testing.T) {
	cfg := Default()
	if cfg.Filter() != nil {
		t.Error("filtering should be off by default")
	}

	cfg, err := Parse([]byte("corpus:\n  no_below: 3\n  no_above: 0.5\n  keep_n: 1000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := cfg.Filter()
	if f == nil || f.NoBelow != 3 || f.NoAbove != 0.5 || f.KeepN != 1000 {
		t.Errorf("Filter() = %+v", f)
	}

	if _, err := Parse([]byte("corpus:\n  no_above: 1.5\n")); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for no_above > 1, got %v", err)
	}
}
