package pmi

import "sort"

// Counter maintains boolean co-occurrence counts over virtual documents.
// A virtual document is either a whole text or one sliding window of it.
type Counter struct {
	N   int64               // total number of virtual documents
	Nx  map[string]int64    // virtual-document frequency per token
	Nxy map[TokenPair]int64 // co-occurrence count per token pair

	// relevant, when non-nil, limits counting to these tokens.
	relevant map[string]struct{}
}

// TokenPair represents an ordered pair of tokens (t1 < t2)
type TokenPair struct {
	T1, T2 string
}

// NewCounter creates a new co-occurrence counter
func NewCounter() *Counter {
	return &Counter{
		N:   0,
		Nx:  make(map[string]int64),
		Nxy: make(map[TokenPair]int64),
	}
}

// NewRestrictedCounter creates a counter that only tracks the given tokens.
// Coherence scoring needs counts for topic words only, which keeps the pair
// table small on large corpora.
func NewRestrictedCounter(relevant []string) *Counter {
	c := NewCounter()
	c.relevant = make(map[string]struct{}, len(relevant))
	for _, t := range relevant {
		c.relevant[t] = struct{}{}
	}
	return c
}

// AddDocument counts one virtual document. Repeated tokens are counted once.
func (c *Counter) AddDocument(tokens []string) {
	c.N++

	unique := c.uniqueRelevant(tokens)
	for _, t := range unique {
		c.Nx[t]++
	}

	sort.Strings(unique)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			c.Nxy[TokenPair{T1: unique[i], T2: unique[j]}]++
		}
	}
}

// AddWindows counts every sliding window of the given size over tokens as a
// virtual document. Texts shorter than the window form a single window.
func (c *Counter) AddWindows(tokens []string, size int) {
	if size <= 0 || len(tokens) <= size {
		c.AddDocument(tokens)
		return
	}
	for start := 0; start+size <= len(tokens); start++ {
		c.AddDocument(tokens[start : start+size])
	}
}

func (c *Counter) uniqueRelevant(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if c.relevant != nil {
			if _, ok := c.relevant[t]; !ok {
				continue
			}
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// GetPairCount returns the co-occurrence count for a token pair
func (c *Counter) GetPairCount(t1, t2 string) int64 {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return c.Nxy[TokenPair{T1: t1, T2: t2}]
}

// GetTokenCount returns the virtual-document frequency for a token
func (c *Counter) GetTokenCount(t string) int64 {
	return c.Nx[t]
}

// Prob returns the fraction of virtual documents containing t.
func (c *Counter) Prob(t string) float64 {
	if c.N == 0 {
		return 0
	}
	return float64(c.Nx[t]) / float64(c.N)
}

// JointProb returns the fraction of virtual documents containing both tokens.
// A token paired with itself yields its own probability.
func (c *Counter) JointProb(t1, t2 string) float64 {
	if c.N == 0 {
		return 0
	}
	if t1 == t2 {
		return c.Prob(t1)
	}
	return float64(c.GetPairCount(t1, t2)) / float64(c.N)
}

// TotalDocs returns the total number of virtual documents processed
func (c *Counter) TotalDocs() int64 {
	return c.N
}

// UniqueTokens returns the number of unique tokens
func (c *Counter) UniqueTokens() int {
	return len(c.Nx)
}

// UniquePairs returns the number of unique token pairs
func (c *Counter) UniquePairs() int {
	return len(c.Nxy)
}
