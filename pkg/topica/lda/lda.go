// Package lda trains Latent Dirichlet Allocation topic models with batch
// variational Bayes over bag-of-words corpora.
package lda

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cognicore/topica/internal/logger"
	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/internalerr"
)

// TopicWeight is one entry of a document's topic distribution.
type TopicWeight struct {
	Topic  int
	Weight float64
}

// TermWeight is one word of a topic with its probability.
type TermWeight struct {
	ID     int
	Weight float64
}

// Model is a trained topic model. It is read-only after Train and safe for
// concurrent use.
type Model struct {
	cfg         Config
	k, v        int
	seed        uint64
	lambda      *mat.Dense // K x V variational topic-word parameters
	expElogbeta *mat.Dense
}

// Train fits a model with cfg.K topics to bows. vocabSize is the dictionary
// length; every id in bows must be below it.
func Train(ctx context.Context, bows []corpus.BoW, vocabSize int, cfg Config) (*Model, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(vocabSize); err != nil {
		return nil, err
	}
	tokens := 0
	for _, bow := range bows {
		tokens += bow.Total()
	}
	if tokens == 0 {
		return nil, internalerr.ErrEmptyCorpus
	}

	seed := rand.Uint64()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	m := &Model{cfg: cfg, k: cfg.K, v: vocabSize, seed: seed}
	m.init()

	log := logger.FromContext(ctx)
	for pass := 0; pass < cfg.Passes; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		chunks, err := m.eStep(ctx, bows)
		if err != nil {
			return nil, err
		}
		m.mStep(chunks)
		log.Debug("lda pass",
			zap.Int("k", m.k),
			zap.Int("pass", pass+1),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return m, nil
}

// init draws lambda from Gamma(100, 1/100), which keeps the initial topics
// close to uniform but distinct.
func (m *Model) init() {
	src := rand.NewPCG(m.seed, m.seed^0x9e3779b97f4a7c15)
	g := distuv.Gamma{Alpha: 100, Beta: 100, Src: src}

	data := make([]float64, m.k*m.v)
	for i := range data {
		data[i] = g.Rand()
	}
	m.lambda = mat.NewDense(m.k, m.v, data)
	m.expElogbeta = mat.NewDense(m.k, m.v, nil)
	m.updateExpElogbeta()
}

func (m *Model) updateExpElogbeta() {
	for k := 0; k < m.k; k++ {
		row := m.expElogbeta.RawRowView(k)
		dirichletExpectation(m.lambda.RawRowView(k), row)
		for w := range row {
			row[w] = math.Exp(row[w])
		}
	}
}

// dirichletExpectation writes E[log x] for x ~ Dir(alpha) into out.
func dirichletExpectation(alpha, out []float64) {
	psiSum := mathext.Digamma(floats.Sum(alpha))
	for i, a := range alpha {
		out[i] = mathext.Digamma(a) - psiSum
	}
}

// chunkStats holds the sufficient statistics of one E-step chunk, restricted
// to the word ids that occur in it.
type chunkStats struct {
	ids  []int     // ascending
	vals []float64 // K x len(ids), row-major
}

// eStep runs inference over fixed-size chunks in parallel. Results are
// returned in chunk order so the merge does not depend on scheduling.
func (m *Model) eStep(ctx context.Context, bows []corpus.BoW) ([]chunkStats, error) {
	size := m.cfg.ChunkSize
	n := (len(bows) + size - 1) / size
	results := make([]chunkStats, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for c := 0; c < n; c++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo := c * size
			hi := min(lo+size, len(bows))
			results[c] = m.chunk(bows[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Model) chunk(bows []corpus.BoW) chunkStats {
	col := make(map[int]int)
	for _, bow := range bows {
		for _, wc := range bow {
			col[wc.ID] = 0
		}
	}
	ids := make([]int, 0, len(col))
	for id := range col {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for i, id := range ids {
		col[id] = i
	}

	width := len(ids)
	vals := make([]float64, m.k*width)
	for _, bow := range bows {
		if len(bow) == 0 {
			continue
		}
		inf := m.infer(bow)
		for n, wc := range bow {
			c := col[wc.ID]
			w := float64(wc.Count) / inf.phinorm[n]
			for k := 0; k < m.k; k++ {
				vals[k*width+c] += inf.expElogtheta[k] * w
			}
		}
	}
	return chunkStats{ids: ids, vals: vals}
}

// mStep merges chunk statistics and sets lambda = eta + sstats * expElogbeta.
func (m *Model) mStep(chunks []chunkStats) {
	sstats := mat.NewDense(m.k, m.v, nil)
	for _, cs := range chunks {
		width := len(cs.ids)
		for k := 0; k < m.k; k++ {
			row := sstats.RawRowView(k)
			for c, id := range cs.ids {
				row[id] += cs.vals[k*width+c]
			}
		}
	}
	sstats.MulElem(sstats, m.expElogbeta)
	eta := m.cfg.Eta
	m.lambda.Apply(func(_, _ int, v float64) float64 { return eta + v }, sstats)
	m.updateExpElogbeta()
}

type inference struct {
	gamma        []float64
	elogtheta    []float64
	expElogtheta []float64
	phinorm      []float64
}

// infer runs the variational E-step for one document. Gamma starts at
// alpha + N/K so inference is deterministic.
func (m *Model) infer(bow corpus.BoW) inference {
	alpha := m.cfg.Alpha
	total := float64(bow.Total())

	inf := inference{
		gamma:        make([]float64, m.k),
		elogtheta:    make([]float64, m.k),
		expElogtheta: make([]float64, m.k),
		phinorm:      make([]float64, len(bow)),
	}
	for k := range inf.gamma {
		inf.gamma[k] = alpha + total/float64(m.k)
	}

	update := func() {
		dirichletExpectation(inf.gamma, inf.elogtheta)
		for k, e := range inf.elogtheta {
			inf.expElogtheta[k] = math.Exp(e)
		}
		for n, wc := range bow {
			s := 0.0
			for k := 0; k < m.k; k++ {
				s += inf.expElogtheta[k] * m.expElogbeta.At(k, wc.ID)
			}
			inf.phinorm[n] = s + 1e-100
		}
	}
	update()

	last := make([]float64, m.k)
	for it := 0; it < m.cfg.Iterations; it++ {
		copy(last, inf.gamma)
		for k := 0; k < m.k; k++ {
			row := m.expElogbeta.RawRowView(k)
			s := 0.0
			for n, wc := range bow {
				s += float64(wc.Count) / inf.phinorm[n] * row[wc.ID]
			}
			inf.gamma[k] = alpha + inf.expElogtheta[k]*s
		}
		update()
		if floats.Distance(inf.gamma, last, 1)/float64(m.k) < m.cfg.GammaThreshold {
			break
		}
	}
	return inf
}

// DocumentTopics infers the topic distribution of bow, sorted by weight
// descending (ties by topic id). Topics below MinProbability are dropped;
// an empty bow gives an empty row.
func (m *Model) DocumentTopics(bow corpus.BoW) []TopicWeight {
	if len(bow) == 0 {
		return []TopicWeight{}
	}
	inf := m.infer(bow)
	sum := floats.Sum(inf.gamma)

	out := make([]TopicWeight, 0, m.k)
	for k, g := range inf.gamma {
		if w := g / sum; w >= m.cfg.MinProbability {
			out = append(out, TopicWeight{Topic: k, Weight: w})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// Topics returns the K x V topic-word distribution; rows sum to 1.
func (m *Model) Topics() *mat.Dense {
	out := mat.DenseCopyOf(m.lambda)
	for k := 0; k < m.k; k++ {
		row := out.RawRowView(k)
		floats.Scale(1/floats.Sum(row), row)
	}
	return out
}

// ShowTopic returns the n most probable words of topic k, most probable
// first. Ties are broken by id.
func (m *Model) ShowTopic(k, n int) []TermWeight {
	if k < 0 || k >= m.k || n <= 0 {
		return nil
	}
	row := m.lambda.RawRowView(k)
	sum := floats.Sum(row)

	terms := make([]TermWeight, m.v)
	for id, v := range row {
		terms[id] = TermWeight{ID: id, Weight: v / sum}
	}
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Weight > terms[j].Weight })
	if n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

// TopicTerms returns the ids of the top n words of every topic.
func (m *Model) TopicTerms(n int) [][]int {
	out := make([][]int, m.k)
	for k := range out {
		terms := m.ShowTopic(k, n)
		ids := make([]int, len(terms))
		for i, t := range terms {
			ids[i] = t.ID
		}
		out[k] = ids
	}
	return out
}

// LogPerplexity returns the per-word variational lower bound of bows; higher
// is better. Perplexity is 2^(-bound).
func (m *Model) LogPerplexity(bows []corpus.BoW) float64 {
	alpha, eta := m.cfg.Alpha, m.cfg.Eta
	K, V := float64(m.k), float64(m.v)

	elogbeta := mat.NewDense(m.k, m.v, nil)
	for k := 0; k < m.k; k++ {
		dirichletExpectation(m.lambda.RawRowView(k), elogbeta.RawRowView(k))
	}

	score := 0.0
	words := 0
	scratch := make([]float64, m.k)
	for _, bow := range bows {
		if len(bow) == 0 {
			continue
		}
		words += bow.Total()
		inf := m.infer(bow)
		for _, wc := range bow {
			for k := 0; k < m.k; k++ {
				scratch[k] = inf.elogtheta[k] + elogbeta.At(k, wc.ID)
			}
			score += float64(wc.Count) * floats.LogSumExp(scratch)
		}
		for k, g := range inf.gamma {
			score += (alpha-g)*inf.elogtheta[k] + lgamma(g) - lgamma(alpha)
		}
		score += lgamma(K*alpha) - lgamma(floats.Sum(inf.gamma))
	}

	for k := 0; k < m.k; k++ {
		lam := m.lambda.RawRowView(k)
		eb := elogbeta.RawRowView(k)
		for w, l := range lam {
			score += (eta-l)*eb[w] + lgamma(l) - lgamma(eta)
		}
		score += lgamma(V*eta) - lgamma(floats.Sum(lam))
	}

	if words == 0 {
		return 0
	}
	return score / float64(words)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// K returns the number of topics.
func (m *Model) K() int { return m.k }

// VocabSize returns the vocabulary size the model was trained on.
func (m *Model) VocabSize() int { return m.v }

// Seed returns the seed used for initialisation.
func (m *Model) Seed() uint64 { return m.seed }

// Alpha returns the document-topic prior.
func (m *Model) Alpha() float64 { return m.cfg.Alpha }

// Eta returns the topic-word prior.
func (m *Model) Eta() float64 { return m.cfg.Eta }

func (m *Model) String() string {
	return fmt.Sprintf("lda.Model{k=%d, vocab=%d, seed=%d}", m.k, m.v, m.seed)
}
