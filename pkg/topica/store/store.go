package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists pipeline runs and their results.
type Store interface {
	Close() error

	// Runs
	CreateRun(ctx context.Context, r Run) (Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Sweep results, one row per topic count
	SavePoints(ctx context.Context, runID string, points []SweepPoint) error
	GetPoints(ctx context.Context, runID string) ([]SweepPoint, error)

	// Learned collocations
	SavePhrases(ctx context.Context, runID string, phrases []Phrase) error
	GetPhrases(ctx context.Context, runID string) ([]Phrase, error)

	// Dominant-topic rows for one topic count
	SaveAssignments(ctx context.Context, runID string, k int, rows []Assignment) error
	GetAssignments(ctx context.Context, runID string, k int) ([]Assignment, error)
}

// Run describes one execution of the pipeline.
type Run struct {
	ID        string
	CreatedAt time.Time
	Input     string
	Documents int
	VocabSize int
	Measure   string
	Seed      uint64
	Version   string
	Config    string // YAML snapshot of the effective configuration
}

// SweepPoint is the stored outcome of one sweep iteration.
type SweepPoint struct {
	K             int
	Coherence     float64
	LogPerplexity float64
	PerTopic      []float64
	Duration      time.Duration
}

// Phrase is a learned collocation. Stage is "bigram" or "trigram".
type Phrase struct {
	Text  string
	Stage string
	Count int64
	Score float64
}

// Assignment is a stored dominant-topic row.
type Assignment struct {
	DocIndex      int
	DominantTopic int
	Contribution  float64
	Keywords      string
	Text          string
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a lexically sortable unique run id.
func NewRunID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
