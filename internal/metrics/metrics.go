// Package metrics defines the Prometheus collectors for a topica run. The
// pipeline is a batch job, so collectors are written once to a node-exporter
// textfile instead of being scraped.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topica",
			Name:      "documents_total",
			Help:      "Documents seen by the preparation pipeline",
		},
		[]string{"result"}, // "kept" / "empty" / "tag_error" / "skipped"
	)

	PhrasesLearned = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "topica",
			Name:      "phrases_learned",
			Help:      "Collocations learned per n-gram stage",
		},
		[]string{"stage"},
	)

	VocabularySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "topica",
			Name:      "vocabulary_size",
			Help:      "Distinct tokens in the dictionary",
		},
	)

	SweepIterationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "topica",
			Name:      "sweep_iterations_total",
			Help:      "Completed model selection iterations",
		},
	)

	FitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "topica",
			Name:      "lda_fit_duration_seconds",
			Help:      "LDA training duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	Coherence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "topica",
			Name:      "coherence",
			Help:      "Coherence score by topic count",
		},
		[]string{"k", "measure"},
	)

	AssignmentsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "topica",
			Name:      "assignments_skipped_total",
			Help:      "Documents without a topic distribution",
		},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DocumentsTotal,
			PhrasesLearned,
			VocabularySize,
			SweepIterationsTotal,
			FitDuration,
			Coherence,
			AssignmentsSkipped,
		)
	})
}

// WriteTextfile writes the default registry in the text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
