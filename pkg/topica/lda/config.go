package lda

import (
	"fmt"
	"runtime"

	"github.com/cognicore/topica/pkg/topica/internalerr"
)

// Defaults for Config.
const (
	DefaultPasses         = 10
	DefaultIterations     = 50
	DefaultMinProbability = 0.01
	DefaultGammaThreshold = 1e-3
	DefaultChunkSize      = 256
)

// Config controls training. Zero fields take defaults.
type Config struct {
	K          int // number of topics
	Passes     int // full sweeps over the corpus
	Iterations int // max E-step iterations per document

	// Alpha and Eta are the symmetric document-topic and topic-word priors.
	// Zero means 1/K.
	Alpha float64
	Eta   float64

	Workers   int // concurrent E-step chunks, default GOMAXPROCS
	ChunkSize int // documents per E-step chunk

	// Seed fixes the topic-word initialisation. Nil draws a random seed,
	// so topic ids differ between runs.
	Seed *uint64

	MinProbability float64 // topics below this are dropped from DocumentTopics
	GammaThreshold float64 // E-step convergence on mean gamma change
}

// WithDefaults fills zero fields. K is left as is.
func (c Config) WithDefaults() Config {
	if c.Passes <= 0 {
		c.Passes = DefaultPasses
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.K > 0 {
		if c.Alpha <= 0 {
			c.Alpha = 1 / float64(c.K)
		}
		if c.Eta <= 0 {
			c.Eta = 1 / float64(c.K)
		}
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MinProbability <= 0 {
		c.MinProbability = DefaultMinProbability
	}
	if c.GammaThreshold <= 0 {
		c.GammaThreshold = DefaultGammaThreshold
	}
	return c
}

// Validate checks the topic count against the vocabulary size.
func (c Config) Validate(vocabSize int) error {
	if c.K <= 0 {
		return fmt.Errorf("%w: topic count %d must be positive", internalerr.ErrInvalidInput, c.K)
	}
	if c.K > vocabSize {
		return fmt.Errorf("%w: topic count %d exceeds vocabulary size %d", internalerr.ErrInvalidInput, c.K, vocabSize)
	}
	return nil
}

// SeedValue returns a pointer to seed, for Config literals.
func SeedValue(seed uint64) *uint64 {
	return &seed
}
