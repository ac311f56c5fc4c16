// Package assign labels each document with its dominant topic.
package assign

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/lda"
)

// DefaultKeywords is the number of topic words listed per row.
const DefaultKeywords = 10

// TopicModel is the part of *lda.Model the extractor needs.
type TopicModel interface {
	DocumentTopics(bow corpus.BoW) []lda.TopicWeight
	ShowTopic(k, n int) []lda.TermWeight
}

// Vocabulary resolves word ids; *corpus.Dictionary implements it.
type Vocabulary interface {
	Token(id int) string
}

// Assignment is the dominant topic of one document.
type Assignment struct {
	DocIndex      int // position in the input corpus
	DominantTopic int
	Contribution  float64 // rounded to 4 decimals
	Keywords      string  // top topic words joined with ", "
	Text          string
}

// Extract returns one assignment per document with a non-empty topic
// distribution, in corpus order. Documents without one are skipped; the
// DocIndex of later rows still points at their own document.
// n is the number of keywords, DefaultKeywords when <= 0.
func Extract(model TopicModel, vocab Vocabulary, bows []corpus.BoW, texts []string, n int) []Assignment {
	if n <= 0 {
		n = DefaultKeywords
	}
	keywords := make(map[int]string)

	out := make([]Assignment, 0, len(bows))
	for i, bow := range bows {
		row := model.DocumentTopics(bow)
		if len(row) == 0 {
			continue
		}
		top := row[0]
		for _, tw := range row[1:] {
			if tw.Weight > top.Weight {
				top = tw
			}
		}

		kw, ok := keywords[top.Topic]
		if !ok {
			terms := model.ShowTopic(top.Topic, n)
			words := make([]string, len(terms))
			for j, t := range terms {
				words[j] = vocab.Token(t.ID)
			}
			kw = strings.Join(words, ", ")
			keywords[top.Topic] = kw
		}

		a := Assignment{
			DocIndex:      i,
			DominantTopic: top.Topic,
			Contribution:  round4(top.Weight),
			Keywords:      kw,
		}
		if i < len(texts) {
			a.Text = texts[i]
		}
		out = append(out, a)
	}
	return out
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// Header is the column order of Table and WriteCSV.
var Header = []string{"dominant_topic", "perc_contribution", "topic_keywords", "text"}

// Table renders rows as string records, without the header.
func Table(rows []Assignment) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			strconv.Itoa(r.DominantTopic),
			strconv.FormatFloat(r.Contribution, 'f', 4, 64),
			r.Keywords,
			r.Text,
		}
	}
	return out
}

// WriteCSV writes the header followed by one record per row.
func WriteCSV(w io.Writer, rows []Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(Table(rows)); err != nil {
		return err
	}
	return cw.Error()
}

// TopicCount is the number of documents dominated by a topic.
type TopicCount struct {
	Topic     int
	Documents int
}

// TopicSummary counts documents per dominant topic, most documents first
// (ties by topic id).
func TopicSummary(rows []Assignment) []TopicCount {
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.DominantTopic]++
	}
	out := make([]TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, TopicCount{Topic: topic, Documents: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Documents == out[j].Documents {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Documents > out[j].Documents
	})
	return out
}
