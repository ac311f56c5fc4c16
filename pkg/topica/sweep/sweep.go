// Package sweep trains one topic model per candidate topic count and scores
// each with a coherence measure, so an analyst can pick the topic count.
package sweep

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/topica/internal/logger"
	"github.com/cognicore/topica/internal/metrics"
	"github.com/cognicore/topica/pkg/topica/coherence"
	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lda"
)

// Range is the half-open progression Start, Start+Step, ... < Limit.
type Range struct {
	Start int
	Limit int
	Step  int
}

// Validate rejects empty or non-advancing ranges.
func (r Range) Validate() error {
	if r.Step <= 0 {
		return fmt.Errorf("%w: sweep step %d must be positive", internalerr.ErrInvalidInput, r.Step)
	}
	if r.Limit <= r.Start {
		return fmt.Errorf("%w: sweep limit %d must exceed start %d", internalerr.ErrInvalidInput, r.Limit, r.Start)
	}
	if r.Start <= 0 {
		return fmt.Errorf("%w: sweep start %d must be positive", internalerr.ErrInvalidInput, r.Start)
	}
	return nil
}

// Counts lists the topic counts of the range.
func (r Range) Counts() ([]int, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var out []int
	for k := r.Start; k < r.Limit; k += r.Step {
		out = append(out, k)
	}
	return out, nil
}

// Input is the prepared corpus shared read-only by every iteration.
type Input struct {
	Dictionary *corpus.Dictionary
	BoWs       []corpus.BoW
	Texts      [][]string // lemmatized documents, for window-based coherence
}

// Options configure every iteration. LDA.K is overwritten per iteration.
type Options struct {
	LDA       lda.Config
	Coherence coherence.Options
}

// Point is the outcome of one iteration.
type Point struct {
	K             int
	Model         *lda.Model
	Coherence     float64
	PerTopic      []float64
	LogPerplexity float64
	Duration      time.Duration
}

// Run trains a fresh model for every count of rng, in order. Cancellation is
// observed between iterations only: a running fit always completes, and the
// points finished so far are returned with the context error.
func Run(ctx context.Context, in Input, rng Range, opts Options) ([]Point, error) {
	counts, err := rng.Counts()
	if err != nil {
		return nil, err
	}
	if err := opts.Coherence.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	fitCtx := context.WithoutCancel(ctx)

	points := make([]Point, 0, len(counts))
	for _, k := range counts {
		if err := ctx.Err(); err != nil {
			log.Warn("sweep cancelled", zap.Int("completed", len(points)), zap.Int("planned", len(counts)))
			return points, err
		}

		start := time.Now()
		cfg := opts.LDA
		cfg.K = k
		model, err := lda.Train(fitCtx, in.BoWs, in.Dictionary.Len(), cfg)
		if err != nil {
			return points, fmt.Errorf("train k=%d: %w", k, err)
		}
		metrics.FitDuration.Observe(time.Since(start).Seconds())

		res, err := coherence.Evaluate(model, in.Dictionary, in.Texts, in.BoWs, opts.Coherence)
		if err != nil {
			return points, fmt.Errorf("coherence k=%d: %w", k, err)
		}

		p := Point{
			K:             k,
			Model:         model,
			Coherence:     res.Score,
			PerTopic:      res.PerTopic,
			LogPerplexity: model.LogPerplexity(in.BoWs),
			Duration:      time.Since(start),
		}
		points = append(points, p)

		metrics.SweepIterationsTotal.Inc()
		metrics.Coherence.WithLabelValues(strconv.Itoa(k), string(res.Measure)).Set(res.Score)
		log.Info("sweep iteration",
			zap.Int("k", k),
			zap.String("measure", string(res.Measure)),
			zap.Float64("coherence", p.Coherence),
			zap.Float64("log_perplexity", p.LogPerplexity),
			zap.Duration("duration", p.Duration),
		)
	}
	return points, nil
}

// Find returns the point for topic count k.
func Find(points []Point, k int) (Point, bool) {
	for _, p := range points {
		if p.K == k {
			return p, true
		}
	}
	return Point{}, false
}
