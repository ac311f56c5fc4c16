// Package lexicon holds corpus-specific lemma overrides. A variant that is
// found in the lexicon is replaced by its canonical form instead of being
// looked up in the lemmatizer dictionary.
package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group is one canonical form and the variants folded into it.
type Group struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// Lexicon maps variants to canonical forms. The zero value is not usable;
// a nil *Lexicon is an empty lexicon.
type Lexicon struct {
	groups    map[string][]string // canonical -> variants, canonical first
	canonical map[string]string   // variant -> canonical
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		groups:    make(map[string][]string),
		canonical: make(map[string]string),
	}
}

// Load reads groups from a YAML file:
//
//	synonyms:
//	  - canonical: covid
//	    variants: [coronavirus, corona, covid19]
//	  - canonical: fake_news
//	    variants: [fakenews, fake news]
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse is Load for in-memory YAML. Groups without a canonical form are
// ignored.
func Parse(data []byte) (*Lexicon, error) {
	var doc struct {
		Synonyms []Group `yaml:"synonyms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	lex := New()
	for _, g := range doc.Synonyms {
		if key(g.Canonical) == "" {
			continue
		}
		lex.Add(g.Canonical, g.Variants...)
	}
	return lex, nil
}

// key normalizes a form to token shape: lowercase, inner spaces joined with
// the phrase delimiter so "fake news" matches the merged token fake_news.
func key(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// Add registers a group. Re-adding a canonical form replaces its variants.
func (l *Lexicon) Add(canonical string, variants ...string) {
	canonical = key(canonical)
	if canonical == "" {
		return
	}
	for _, old := range l.groups[canonical] {
		delete(l.canonical, old)
	}

	forms := []string{canonical}
	l.canonical[canonical] = canonical
	for _, v := range variants {
		v = key(v)
		if v == "" {
			continue
		}
		if prev, ok := l.canonical[v]; ok {
			if prev == canonical {
				continue
			}
			if _, isGroup := l.groups[v]; isGroup {
				continue // another group's canonical form
			}
			l.groups[prev] = without(l.groups[prev], v)
		}
		forms = append(forms, v)
		l.canonical[v] = canonical
	}
	l.groups[canonical] = forms
}

func without(forms []string, v string) []string {
	out := forms[:0]
	for _, f := range forms {
		if f != v {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the canonical form of token and whether the lexicon knows
// it. Unknown tokens are returned unchanged.
func (l *Lexicon) Lookup(token string) (string, bool) {
	if l == nil {
		return token, false
	}
	if c, ok := l.canonical[key(token)]; ok {
		return c, true
	}
	return token, false
}

// Groups returns every group ordered by canonical form.
func (l *Lexicon) Groups() []Group {
	if l == nil {
		return nil
	}
	out := make([]Group, 0, len(l.groups))
	for c, forms := range l.groups {
		out = append(out, Group{Canonical: c, Variants: append([]string(nil), forms[1:]...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}

// Len returns the number of groups.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.groups)
}
