package stoplist

import (
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Stats describes one corpus token for stopword review.
type Stats struct {
	Token     string
	DF        int
	DFPercent float64
	NPMIMax   float64 // strongest association with any other token; 0 when it has none
}

// Candidate is a token that looks like a corpus-specific stopword.
type Candidate struct {
	Token     string
	DF        int
	DFPercent float64
	NPMIMax   float64
	Score     float64 // confidence in [0, 1]
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g., 60 - appears in more than 60% of documents
	NPMIMax   float64 // strongest partner must stay below this (NPMI scale)
}

// DefaultThresholds returns the thresholds used when none are given.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent: 60.0,
		NPMIMax:   0.15,
	}
}

// Suggest returns tokens that occur in too many documents while keeping no
// strong partner, best candidates first. Existing stopwords are skipped.
func (m *Manager) Suggest(stats []Stats, th Thresholds) []Candidate {
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}

	var out []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue
		}
		if s.DFPercent <= th.DFPercent || s.NPMIMax >= th.NPMIMax {
			continue
		}
		out = append(out, Candidate{
			Token:     s.Token,
			DF:        s.DF,
			DFPercent: s.DFPercent,
			NPMIMax:   s.NPMIMax,
			Score:     (s.DFPercent/100.0 + (1.0 - s.NPMIMax)) / 2.0,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Token < out[j].Token
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// WriteTerms writes terms in the format LoadTerms reads.
func WriteTerms(w io.Writer, terms []string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Terms []string `yaml:"terms"`
	}{terms}); err != nil {
		return err
	}
	return enc.Close()
}
