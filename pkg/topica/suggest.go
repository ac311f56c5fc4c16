package topica

import (
	"github.com/cognicore/topica/pkg/topica/ingest"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/pmi"
	"github.com/cognicore/topica/pkg/topica/stoplist"
)

// SuggestStopwords reviews the prepared vocabulary for corpus-specific
// stopwords: tokens found in more than th.DFPercent of documents whose
// strongest NPMI partner stays below th.NPMIMax.
func (e *Engine) SuggestStopwords(stops *stoplist.Manager, th stoplist.Thresholds) ([]stoplist.Candidate, error) {
	if e.dict == nil {
		return nil, internalerr.ErrNotFitted
	}
	if th == (stoplist.Thresholds{}) {
		th = stoplist.DefaultThresholds()
	}
	n := e.dict.NumDocs()
	if n == 0 {
		return nil, nil
	}

	var frequent []int
	for id := 0; id < e.dict.Len(); id++ {
		if 100*float64(e.dict.DocFreq(id))/float64(n) > th.DFPercent {
			frequent = append(frequent, id)
		}
	}
	if len(frequent) == 0 {
		return nil, nil
	}

	counter := pmi.NewCounter()
	for _, doc := range ingest.Lemmas(e.docs) {
		counter.AddDocument(doc)
	}
	calc := pmi.NewCalculator(1)
	vocab := e.dict.Tokens()

	stats := make([]stoplist.Stats, 0, len(frequent))
	for _, id := range frequent {
		tok := vocab[id]
		best := 0.0
		for _, other := range vocab {
			if other == tok {
				continue
			}
			nAB := counter.GetPairCount(tok, other)
			if nAB == 0 {
				continue
			}
			if v := calc.NPMI(nAB, counter.GetTokenCount(tok), counter.GetTokenCount(other), counter.TotalDocs()); v > best {
				best = v
			}
		}
		df := e.dict.DocFreq(id)
		stats = append(stats, stoplist.Stats{
			Token:     tok,
			DF:        df,
			DFPercent: 100 * float64(df) / float64(n),
			NPMIMax:   best,
		})
	}
	return stops.Suggest(stats, th), nil
}
