package phrases

// Collocations chains a bigram model and a trigram model learned over the
// bigram output. Both models are fit once, on the whole corpus, before any
// document is transformed.
type Collocations struct {
	Bigram  *Model
	Trigram *Model
}

// Fit learns the bigram model on docs, transforms the corpus with it, then
// learns the trigram model on the result.
func Fit(docs [][]string, cfg Config) (*Collocations, error) {
	bigram, err := Learn(docs, cfg)
	if err != nil {
		return nil, err
	}

	merged := make([][]string, len(docs))
	for i, doc := range docs {
		merged[i] = bigram.Transform(doc)
	}

	trigram, err := Learn(merged, cfg)
	if err != nil {
		return nil, err
	}
	return &Collocations{Bigram: bigram, Trigram: trigram}, nil
}

// Transform applies the bigram model, then the trigram model.
func (c *Collocations) Transform(doc []string) []string {
	return c.Trigram.Transform(c.Bigram.Transform(doc))
}

// Phrases returns the phrases of both models, bigrams first.
func (c *Collocations) Phrases() []Phrase {
	return append(c.Bigram.Phrases(), c.Trigram.Phrases()...)
}
