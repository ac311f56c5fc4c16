package topica

import (
	"github.com/cognicore/topica/pkg/topica/assign"
	"github.com/cognicore/topica/pkg/topica/phrases"
	"github.com/cognicore/topica/pkg/topica/store"
	"github.com/cognicore/topica/pkg/topica/sweep"
)

func storePhrases(bigrams, trigrams []phrases.Phrase) []store.Phrase {
	out := make([]store.Phrase, 0, len(bigrams)+len(trigrams))
	for _, p := range bigrams {
		out = append(out, store.Phrase{Text: p.Text, Stage: "bigram", Count: p.Count, Score: p.Score})
	}
	for _, p := range trigrams {
		out = append(out, store.Phrase{Text: p.Text, Stage: "trigram", Count: p.Count, Score: p.Score})
	}
	return out
}

func storePoints(points []sweep.Point) []store.SweepPoint {
	out := make([]store.SweepPoint, len(points))
	for i, p := range points {
		out[i] = store.SweepPoint{
			K:             p.K,
			Coherence:     p.Coherence,
			LogPerplexity: p.LogPerplexity,
			PerTopic:      p.PerTopic,
			Duration:      p.Duration,
		}
	}
	return out
}

func storeAssignments(rows []assign.Assignment) []store.Assignment {
	out := make([]store.Assignment, len(rows))
	for i, r := range rows {
		out[i] = store.Assignment(r)
	}
	return out
}
