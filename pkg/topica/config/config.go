package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/topica/pkg/topica/coherence"
	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lda"
	"github.com/cognicore/topica/pkg/topica/phrases"
	"github.com/cognicore/topica/pkg/topica/sweep"
)

// Config is the run configuration, usually read from topica.yaml.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Text      TextConfig      `yaml:"text"`
	Phrases   PhrasesConfig   `yaml:"phrases"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	LDA       LDAConfig       `yaml:"lda"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Coherence CoherenceConfig `yaml:"coherence"`
	Output    OutputConfig    `yaml:"output"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InputConfig locates the raw records.
type InputConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"` // csv or jsonl; inferred from the extension when empty
	IDColumn    string `yaml:"id_column"`
	TextColumn  string `yaml:"text_column"`
	DateColumn  string `yaml:"date_column"`
	SortByDate  bool   `yaml:"sort_by_date"`
	StripMarkup bool   `yaml:"strip_markup"`
	SkipClean   bool   `yaml:"skip_clean"` // input is already normalized
}

// TextConfig controls tokenization and lemmatization.
type TextConfig struct {
	Language   string   `yaml:"language"`
	Stoplist   string   `yaml:"stoplist"` // extra stopwords, YAML terms list
	Lexicon    string   `yaml:"lexicon"`  // lemma overrides, YAML synonym groups
	MinLen     int      `yaml:"min_len"`
	MaxLen     int      `yaml:"max_len"`
	Deaccent   bool     `yaml:"deaccent"`
	AllowedPOS []string `yaml:"allowed_pos"`
	Workers    int      `yaml:"workers"`
}

// PhrasesConfig mirrors phrases.Config.
type PhrasesConfig struct {
	MinCount    int      `yaml:"min_count"`
	Threshold   *float64 `yaml:"threshold"` // nil selects the scoring default
	Scoring     string   `yaml:"scoring"`
	CommonTerms []string `yaml:"common_terms"`
}

// CorpusConfig prunes the dictionary before training. Filtering is off
// unless no_above is set.
type CorpusConfig struct {
	NoBelow int     `yaml:"no_below"`
	NoAbove float64 `yaml:"no_above"` // fraction of documents
	KeepN   int     `yaml:"keep_n"`
}

// LDAConfig mirrors lda.Config without the topic count.
type LDAConfig struct {
	Passes         int     `yaml:"passes"`
	Iterations     int     `yaml:"iterations"`
	Workers        int     `yaml:"workers"`
	ChunkSize      int     `yaml:"chunk_size"`
	Seed           *uint64 `yaml:"seed"`
	Alpha          float64 `yaml:"alpha"`
	Eta            float64 `yaml:"eta"`
	MinProbability float64 `yaml:"min_probability"`
}

// SweepConfig is the topic count range and its artifacts.
type SweepConfig struct {
	Start     int    `yaml:"start"`
	Limit     int    `yaml:"limit"`
	Step      int    `yaml:"step"`
	PlotPath  string `yaml:"plot_path"`
	TablePath string `yaml:"table_path"`
}

// CoherenceConfig mirrors coherence.Options.
type CoherenceConfig struct {
	Measure string `yaml:"measure"`
	Window  int    `yaml:"window"`
	TopN    int    `yaml:"top_n"`
}

// OutputConfig controls the assignment table.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Keywords   int    `yaml:"keywords"`
	TopicsFile string `yaml:"topics_file"`
}

// StoreConfig selects where runs are recorded.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, memory or none
	Path   string `yaml:"path"`
}

// LoggingConfig selects the logger.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// MetricsConfig enables the node-exporter textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads, expands, defaults and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	// Seeded before decoding: only absent sweep keys take the default.
	cfg := Config{Sweep: defaultSweep()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config: %v", internalerr.ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{Sweep: defaultSweep()}
	cfg.ApplyDefaults()
	return cfg
}

func defaultSweep() SweepConfig {
	return SweepConfig{Start: 2, Limit: 20, Step: 3}
}

// ApplyDefaults fills empty fields with default values. Sweep bounds are
// left alone: zero and negative values are errors, not missing values.
func (c *Config) ApplyDefaults() {
	if c.Input.Path == "" {
		c.Input.Path = "data/trump_tweets.csv"
	}
	if c.Input.Format == "" {
		c.Input.Format = "csv"
		if strings.HasSuffix(strings.ToLower(c.Input.Path), ".jsonl") {
			c.Input.Format = "jsonl"
		}
	}
	if c.Text.Language == "" {
		c.Text.Language = "english"
	}
	if c.Phrases.MinCount <= 0 {
		c.Phrases.MinCount = phrases.DefaultMinCount
	}
	if c.Phrases.Scoring == "" {
		c.Phrases.Scoring = string(phrases.ScoringDefault)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Sweep.PlotPath == "" {
		c.Sweep.PlotPath = filepath.Join(c.Output.Dir, "n_topics_coherence.jpg")
	}
	if c.Sweep.TablePath == "" {
		c.Sweep.TablePath = filepath.Join(c.Output.Dir, "coherence_values.csv")
	}
	if c.Coherence.Measure == "" {
		c.Coherence.Measure = string(coherence.CV)
	}
	if c.Coherence.TopN <= 0 {
		c.Coherence.TopN = coherence.DefaultTopN
	}
	if c.Output.Keywords <= 0 {
		c.Output.Keywords = 10
	}
	if c.Output.TopicsFile == "" {
		c.Output.TopicsFile = "dominant_topics.csv"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Path == "" && c.Store.Driver == "sqlite" {
		c.Store.Path = filepath.Join(c.Output.Dir, "topica.db")
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Input.Format {
	case "csv", "jsonl":
	default:
		return fmt.Errorf("%w: input.format must be csv or jsonl, got %q", internalerr.ErrInvalidConfig, c.Input.Format)
	}
	if c.Text.MinLen < 0 || (c.Text.MaxLen > 0 && c.Text.MaxLen < c.Text.MinLen) {
		return fmt.Errorf("%w: text.min_len/max_len out of order (%d, %d)", internalerr.ErrInvalidConfig, c.Text.MinLen, c.Text.MaxLen)
	}
	if err := c.PhrasesConfig().WithDefaults().Validate(); err != nil {
		return fmt.Errorf("phrases: %w", err)
	}
	if err := c.CoherenceOptions().Validate(); err != nil {
		return fmt.Errorf("coherence: %w", err)
	}
	if err := c.Range().Validate(); err != nil {
		return fmt.Errorf("%w: sweep: %v", internalerr.ErrInvalidConfig, err)
	}
	switch c.Store.Driver {
	case "sqlite", "memory", "none":
	default:
		return fmt.Errorf("%w: store.driver must be sqlite, memory or none, got %q", internalerr.ErrInvalidConfig, c.Store.Driver)
	}
	if c.Corpus.NoAbove < 0 || c.Corpus.NoAbove > 1 || c.Corpus.NoBelow < 0 {
		return fmt.Errorf("%w: corpus.no_above must be in [0, 1] and no_below non-negative", internalerr.ErrInvalidConfig)
	}
	if c.LDA.Alpha < 0 || c.LDA.Eta < 0 {
		return fmt.Errorf("%w: lda priors must be non-negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// PhrasesConfig converts the phrases section.
func (c *Config) PhrasesConfig() phrases.Config {
	pc := phrases.Config{
		MinCount:    c.Phrases.MinCount,
		Scoring:     phrases.Scoring(c.Phrases.Scoring),
		CommonTerms: c.Phrases.CommonTerms,
	}
	if c.Phrases.Threshold != nil {
		pc.Threshold = *c.Phrases.Threshold
		pc.ThresholdSet = true
	}
	return pc
}

// LDAConfig converts the lda section. K is set per sweep iteration.
func (c *Config) LDAConfig() lda.Config {
	return lda.Config{
		Passes:         c.LDA.Passes,
		Iterations:     c.LDA.Iterations,
		Workers:        c.LDA.Workers,
		ChunkSize:      c.LDA.ChunkSize,
		Seed:           c.LDA.Seed,
		Alpha:          c.LDA.Alpha,
		Eta:            c.LDA.Eta,
		MinProbability: c.LDA.MinProbability,
	}
}

// CoherenceOptions converts the coherence section.
func (c *Config) CoherenceOptions() coherence.Options {
	return coherence.Options{
		Measure: coherence.Measure(c.Coherence.Measure),
		Window:  c.Coherence.Window,
		TopN:    c.Coherence.TopN,
	}
}

// Filter converts the corpus section; nil when filtering is off.
func (c *Config) Filter() *corpus.Filter {
	if c.Corpus.NoAbove <= 0 {
		return nil
	}
	return &corpus.Filter{NoBelow: c.Corpus.NoBelow, NoAbove: c.Corpus.NoAbove, KeepN: c.Corpus.KeepN}
}

// Range converts the sweep section.
func (c *Config) Range() sweep.Range {
	return sweep.Range{Start: c.Sweep.Start, Limit: c.Sweep.Limit, Step: c.Sweep.Step}
}

// Snapshot renders the effective configuration for the run record.
func (c *Config) Snapshot() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
