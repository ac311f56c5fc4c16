// Package phrases learns collocations (frequently adjacent token pairs) from
// a tokenized corpus and merges them into single delimiter-joined tokens.
package phrases

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/pmi"
)

// Scoring selects the collocation score function.
type Scoring string

const (
	// ScoringDefault is (count(ab) - minCount) / (count(a) * count(b)) * |vocab|.
	ScoringDefault Scoring = "default"
	// ScoringNPMI is normalized PMI over corpus word frequencies, in [-1, 1].
	ScoringNPMI Scoring = "npmi"
)

// Defaults for Config.
const (
	DefaultMinCount  = 5
	DefaultThreshold = 10.0
	// DefaultNPMIThreshold applies when Scoring is ScoringNPMI.
	DefaultNPMIThreshold = 0.5
	DefaultDelimiter     = "_"
)

// Config controls which adjacent pairs qualify as collocations.
type Config struct {
	MinCount  int     // ignore pairs seen fewer times than this
	Threshold float64 // pairs must score strictly above this
	Scoring   Scoring
	Delimiter string

	// ThresholdSet keeps a zero Threshold instead of defaulting it. An npmi
	// threshold of 0 keeps every positively associated pair.
	ThresholdSet bool

	// CommonTerms may appear inside a phrase without breaking it
	// ("bank_of_america"), but never start or end one.
	CommonTerms []string
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.MinCount <= 0 {
		c.MinCount = DefaultMinCount
	}
	if c.Scoring == "" {
		c.Scoring = ScoringDefault
	}
	if c.Threshold == 0 && !c.ThresholdSet {
		c.Threshold = DefaultThreshold
		if c.Scoring == ScoringNPMI {
			c.Threshold = DefaultNPMIThreshold
		}
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	return c
}

// Validate checks a config after defaults are applied.
func (c Config) Validate() error {
	switch c.Scoring {
	case ScoringDefault:
	case ScoringNPMI:
		if c.Threshold < -1 || c.Threshold > 1 {
			return fmt.Errorf("%w: npmi threshold %.3f outside [-1, 1]", internalerr.ErrInvalidConfig, c.Threshold)
		}
	default:
		return fmt.Errorf("%w: unknown scoring %q", internalerr.ErrInvalidConfig, c.Scoring)
	}
	return nil
}

// Phrase is a learned collocation with its score.
type Phrase struct {
	Text  string
	Count int64
	Score float64
}

// Model is a frozen collocation model. It is read-only after Learn and safe
// for concurrent use.
type Model struct {
	cfg     Config
	common  map[string]struct{}
	phrases map[string]Phrase
}

// Learn counts unigrams and adjacent pairs over the whole corpus and keeps the
// pairs that pass the configured score threshold.
func Learn(docs [][]string, cfg Config) (*Model, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	common := make(map[string]struct{}, len(cfg.CommonTerms))
	for _, t := range cfg.CommonTerms {
		common[strings.ToLower(t)] = struct{}{}
	}

	c := newCounts()
	for _, doc := range docs {
		c.add(doc, common, cfg.Delimiter)
	}

	m := &Model{
		cfg:     cfg,
		common:  common,
		phrases: make(map[string]Phrase),
	}
	vocabLen := float64(len(c.unigrams) + len(c.candidates))
	for joined, cand := range c.candidates {
		score := m.score(c, cand, vocabLen)
		if score > cfg.Threshold {
			m.phrases[joined] = Phrase{Text: joined, Count: cand.count, Score: score}
		}
	}
	return m, nil
}

func (m *Model) score(c *counts, cand candidate, vocabLen float64) float64 {
	countA := float64(c.unigrams[cand.first])
	countB := float64(c.unigrams[cand.last])
	if countA == 0 || countB == 0 {
		return math.Inf(-1)
	}
	switch m.cfg.Scoring {
	case ScoringNPMI:
		if cand.count < int64(m.cfg.MinCount) || c.totalWords == 0 {
			return math.Inf(-1)
		}
		n := float64(c.totalWords)
		return pmi.NormalizedLogRatio(float64(cand.count)/n, countA/n, countB/n, 0)
	default:
		return (float64(cand.count) - float64(m.cfg.MinCount)) / countA / countB * vocabLen
	}
}

// Transform merges qualifying adjacent spans of doc, scanning left to right
// and taking the first qualifying pair greedily. The input is not modified.
func (m *Model) Transform(doc []string) []string {
	out := make([]string, 0, len(doc))
	start := ""
	var between []string

	flush := func() {
		if start != "" {
			out = append(out, start)
			out = append(out, between...)
		}
		start, between = "", nil
	}

	for _, word := range doc {
		if _, isCommon := m.common[word]; isCommon {
			if start != "" {
				between = append(between, word)
			} else {
				out = append(out, word)
			}
			continue
		}
		if start == "" {
			start = word
			continue
		}
		joined := m.join(start, between, word)
		if _, ok := m.phrases[joined]; ok {
			out = append(out, joined)
			start, between = "", nil
			continue
		}
		flush()
		start = word
	}
	flush()
	return out
}

// Phrases returns learned phrases ordered by score, then text.
func (m *Model) Phrases() []Phrase {
	out := make([]Phrase, 0, len(m.phrases))
	for _, p := range m.phrases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Text < out[j].Text
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Len returns the number of learned phrases.
func (m *Model) Len() int {
	return len(m.phrases)
}

func (m *Model) join(first string, between []string, last string) string {
	var b strings.Builder
	b.WriteString(first)
	for _, w := range between {
		b.WriteString(m.cfg.Delimiter)
		b.WriteString(w)
	}
	b.WriteString(m.cfg.Delimiter)
	b.WriteString(last)
	return b.String()
}

type candidate struct {
	first, last string
	count       int64
}

type counts struct {
	totalWords int64
	unigrams   map[string]int64
	candidates map[string]candidate
}

func newCounts() *counts {
	return &counts{
		unigrams:   make(map[string]int64),
		candidates: make(map[string]candidate),
	}
}

// add counts one document. Common terms are skipped as unigrams and bridge
// the pair formed by the surrounding words.
func (c *counts) add(doc []string, common map[string]struct{}, delim string) {
	start := ""
	var between []string
	for _, word := range doc {
		c.totalWords++
		if _, isCommon := common[word]; isCommon {
			if start != "" {
				between = append(between, word)
			}
			continue
		}
		c.unigrams[word]++
		if start != "" {
			parts := make([]string, 0, len(between)+2)
			parts = append(parts, start)
			parts = append(parts, between...)
			parts = append(parts, word)
			joined := strings.Join(parts, delim)
			cand := c.candidates[joined]
			cand.first, cand.last = start, word
			cand.count++
			c.candidates[joined] = cand
		}
		start, between = word, nil
	}
}
