// Package coherence scores how interpretable a set of topics is, from how
// often their top words co-occur in the reference texts.
package coherence

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/pmi"
)

// Measure names a coherence pipeline.
type Measure string

const (
	// CV: boolean sliding window (110), one-set segmentation, indirect
	// cosine over NPMI context vectors.
	CV Measure = "c_v"
	// UMass: document co-occurrence, log conditional probability of each
	// word given every preceding word.
	UMass Measure = "u_mass"
	// CUCI: sliding window (10), PMI over all ordered word pairs.
	CUCI Measure = "c_uci"
	// CNPMI: as CUCI with normalized PMI.
	CNPMI Measure = "c_npmi"
)

// DefaultTopN is the number of words taken from each topic.
const DefaultTopN = 20

// Options selects the measure and its parameters. Zero fields take the
// measure's defaults.
type Options struct {
	Measure Measure
	Window  int
	TopN    int
}

func (o Options) withDefaults() Options {
	if o.Measure == "" {
		o.Measure = CV
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow(o.Measure)
	}
	return o
}

// DefaultWindow returns the sliding window size for m, 0 for document-based
// measures.
func DefaultWindow(m Measure) int {
	switch m {
	case CV:
		return 110
	case CUCI, CNPMI:
		return 10
	default:
		return 0
	}
}

// Validate rejects unknown measures.
func (o Options) Validate() error {
	switch o.Measure {
	case CV, UMass, CUCI, CNPMI, "":
		return nil
	default:
		return fmt.Errorf("%w: unknown coherence measure %q", internalerr.ErrInvalidConfig, o.Measure)
	}
}

// Result is the aggregated score and the score of each topic.
type Result struct {
	Measure  Measure
	Score    float64
	PerTopic []float64
}

// TopicTermer is satisfied by *lda.Model.
type TopicTermer interface {
	TopicTerms(n int) [][]int
}

// Evaluate scores the top words of every topic of model. texts are the
// tokenized reference documents for window measures; bows are used by
// u_mass.
func Evaluate(model TopicTermer, dict *corpus.Dictionary, texts [][]string, bows []corpus.BoW, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	termIDs := model.TopicTerms(opts.TopN)
	topics := make([][]string, len(termIDs))
	for k, ids := range termIDs {
		words := make([]string, len(ids))
		for i, id := range ids {
			words[i] = dict.Token(id)
		}
		topics[k] = words
	}

	if opts.Measure == UMass {
		docs := make([][]string, len(bows))
		for i, bow := range bows {
			doc := make([]string, len(bow))
			for j, wc := range bow {
				doc[j] = dict.Token(wc.ID)
			}
			docs[i] = doc
		}
		return EvaluateTopics(topics, docs, opts)
	}
	return EvaluateTopics(topics, texts, opts)
}

// EvaluateTopics scores topics given as word lists against docs. For u_mass
// each doc is one virtual document; otherwise docs are split into sliding
// windows. The aggregate is the mean of per-topic means.
func EvaluateTopics(topics [][]string, docs [][]string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if len(topics) == 0 {
		return Result{}, fmt.Errorf("%w: no topics to score", internalerr.ErrInvalidInput)
	}

	var relevant []string
	for _, words := range topics {
		relevant = append(relevant, words...)
	}
	counts := pmi.NewRestrictedCounter(relevant)
	for _, doc := range docs {
		if opts.Measure == UMass {
			counts.AddDocument(doc)
		} else {
			counts.AddWindows(doc, opts.Window)
		}
	}

	res := Result{Measure: opts.Measure, PerTopic: make([]float64, len(topics))}
	for k, words := range topics {
		switch opts.Measure {
		case CV:
			res.PerTopic[k] = indirectCosine(counts, words)
		case UMass:
			res.PerTopic[k] = umass(counts, words)
		case CUCI:
			res.PerTopic[k] = pairwise(counts, words, false)
		case CNPMI:
			res.PerTopic[k] = pairwise(counts, words, true)
		}
	}
	res.Score = floats.Sum(res.PerTopic) / float64(len(res.PerTopic))
	return res, nil
}

func npmi(c *pmi.Counter, a, b string) float64 {
	return pmi.NormalizedLogRatio(c.JointProb(a, b), c.Prob(a), c.Prob(b), pmi.CoherenceEpsilon)
}

// indirectCosine compares each word's NPMI context vector with the sum of
// the vectors of the whole topic.
func indirectCosine(c *pmi.Counter, words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	vectors := make([][]float64, len(words))
	total := make([]float64, len(words))
	for i, w := range words {
		v := make([]float64, len(words))
		for j, other := range words {
			v[j] = npmi(c, w, other)
		}
		vectors[i] = v
		floats.Add(total, v)
	}
	totalNorm := floats.Norm(total, 2)

	sum := 0.0
	for _, v := range vectors {
		norm := floats.Norm(v, 2)
		if norm == 0 || totalNorm == 0 {
			continue
		}
		sum += floats.Dot(v, total) / (norm * totalNorm)
	}
	return sum / float64(len(words))
}

// umass averages log P(w_i | w_j) over pairs where w_j ranks above w_i.
func umass(c *pmi.Counter, words []string) float64 {
	sum, n := 0.0, 0
	for i := 1; i < len(words); i++ {
		for j := 0; j < i; j++ {
			sum += pmi.LogConditional(c.JointProb(words[i], words[j]), c.Prob(words[j]), pmi.CoherenceEpsilon)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// pairwise averages (N)PMI over all ordered pairs of distinct positions.
func pairwise(c *pmi.Counter, words []string, normalize bool) float64 {
	sum, n := 0.0, 0
	for i, a := range words {
		for j, b := range words {
			if i == j {
				continue
			}
			pAB, pA, pB := c.JointProb(a, b), c.Prob(a), c.Prob(b)
			if normalize {
				sum += pmi.NormalizedLogRatio(pAB, pA, pB, pmi.CoherenceEpsilon)
			} else {
				sum += pmi.LogRatio(pAB, pA, pB, pmi.CoherenceEpsilon)
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
