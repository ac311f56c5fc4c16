// Package corpus maps tokens to dense integer ids and converts documents to
// bag-of-words vectors.
package corpus

import (
	"sort"
)

// WordCount is one entry of a bag-of-words vector.
type WordCount struct {
	ID    int
	Count int
}

// BoW is a sparse document vector sorted by ID.
type BoW []WordCount

// Total returns the number of tokens the vector represents.
func (b BoW) Total() int {
	n := 0
	for _, wc := range b {
		n += wc.Count
	}
	return n
}

// Dictionary is a bidirectional token/id mapping built from a complete
// corpus. Ids are dense, assigned in first-seen order (tokens new to a
// document are numbered in sorted order). It is read-only after Build.
type Dictionary struct {
	token2id map[string]int
	id2token []string
	docFreq  []int
	numDocs  int
}

// NewDictionary builds a dictionary over docs.
func NewDictionary(docs [][]string) *Dictionary {
	d := &Dictionary{token2id: make(map[string]int)}
	for _, doc := range docs {
		d.addDocument(doc)
	}
	return d
}

func (d *Dictionary) addDocument(doc []string) {
	d.numDocs++
	unique := uniqueSorted(doc)
	for _, tok := range unique {
		id, ok := d.token2id[tok]
		if !ok {
			id = len(d.id2token)
			d.token2id[tok] = id
			d.id2token = append(d.id2token, tok)
			d.docFreq = append(d.docFreq, 0)
		}
		d.docFreq[id]++
	}
}

// Build creates the dictionary and the bag-of-words vector of every document.
func Build(docs [][]string) (*Dictionary, []BoW) {
	d := NewDictionary(docs)
	return d, d.Corpus(docs)
}

// Len returns the vocabulary size.
func (d *Dictionary) Len() int {
	return len(d.id2token)
}

// NumDocs returns the number of documents the dictionary was built from.
func (d *Dictionary) NumDocs() int {
	return d.numDocs
}

// ID returns the id of tok.
func (d *Dictionary) ID(tok string) (int, bool) {
	id, ok := d.token2id[tok]
	return id, ok
}

// Token returns the token for id, or "" when id is out of range.
func (d *Dictionary) Token(id int) string {
	if id < 0 || id >= len(d.id2token) {
		return ""
	}
	return d.id2token[id]
}

// Tokens returns all tokens in id order.
func (d *Dictionary) Tokens() []string {
	out := make([]string, len(d.id2token))
	copy(out, d.id2token)
	return out
}

// DocFreq returns how many documents contain id.
func (d *Dictionary) DocFreq(id int) int {
	if id < 0 || id >= len(d.docFreq) {
		return 0
	}
	return d.docFreq[id]
}

// Doc2BoW converts a document to a sparse vector. Unknown tokens are dropped.
func (d *Dictionary) Doc2BoW(doc []string) BoW {
	counts := make(map[int]int)
	for _, tok := range doc {
		if id, ok := d.token2id[tok]; ok {
			counts[id]++
		}
	}
	bow := make(BoW, 0, len(counts))
	for id, c := range counts {
		bow = append(bow, WordCount{ID: id, Count: c})
	}
	sort.Slice(bow, func(i, j int) bool { return bow[i].ID < bow[j].ID })
	return bow
}

// Corpus converts every document in order.
func (d *Dictionary) Corpus(docs [][]string) []BoW {
	out := make([]BoW, len(docs))
	for i, doc := range docs {
		out[i] = d.Doc2BoW(doc)
	}
	return out
}

// FilterExtremes returns a compacted dictionary without tokens that appear
// in fewer than noBelow documents or in more than noAbove (a fraction) of
// documents, keeping at most keepN of the most frequent remaining tokens
// (keepN <= 0 keeps all). Surviving tokens keep their relative id order.
func (d *Dictionary) FilterExtremes(noBelow int, noAbove float64, keepN int) *Dictionary {
	maxDocs := int(noAbove * float64(d.numDocs))
	var keep []int
	for id := range d.id2token {
		df := d.docFreq[id]
		if df >= noBelow && df <= maxDocs {
			keep = append(keep, id)
		}
	}
	if keepN > 0 && len(keep) > keepN {
		sort.SliceStable(keep, func(i, j int) bool { return d.docFreq[keep[i]] > d.docFreq[keep[j]] })
		keep = keep[:keepN]
		sort.Ints(keep)
	}

	out := &Dictionary{
		token2id: make(map[string]int, len(keep)),
		id2token: make([]string, 0, len(keep)),
		docFreq:  make([]int, 0, len(keep)),
		numDocs:  d.numDocs,
	}
	for _, old := range keep {
		tok := d.id2token[old]
		out.token2id[tok] = len(out.id2token)
		out.id2token = append(out.id2token, tok)
		out.docFreq = append(out.docFreq, d.docFreq[old])
	}
	return out
}

// Filter holds FilterExtremes arguments.
type Filter struct {
	NoBelow int
	NoAbove float64
	KeepN   int
}

// Apply prunes d with the filter's bounds.
func (f Filter) Apply(d *Dictionary) *Dictionary {
	return d.FilterExtremes(f.NoBelow, f.NoAbove, f.KeepN)
}

func uniqueSorted(doc []string) []string {
	seen := make(map[string]struct{}, len(doc))
	out := make([]string, 0, len(doc))
	for _, tok := range doc {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
