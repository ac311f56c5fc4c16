package pmi

import "math"

// Calculator handles PMI (Pointwise Mutual Information) calculations on
// smoothed counts.
type Calculator struct {
	epsilon float64 // smoothing constant
}

// NewCalculator creates a new PMI calculator with the given epsilon
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	return &Calculator{epsilon: epsilon}
}

// PMI calculates the pointwise mutual information between two tokens
//
// PMI(a,b) = log((N_ab + ε) * N / ((N_a + ε)(N_b + ε)))
func (c *Calculator) PMI(nAB, nA, nB, N int64) float64 {
	if N == 0 {
		return 0
	}

	numerator := (float64(nAB) + c.epsilon) * float64(N)
	denominator := (float64(nA) + c.epsilon) * (float64(nB) + c.epsilon)

	if denominator == 0 {
		return 0
	}

	return math.Log(numerator / denominator)
}

// NPMI calculates normalized PMI (range: -1 to 1)
// NPMI(a,b) = PMI(a,b) / -log(P(a,b))
func (c *Calculator) NPMI(nAB, nA, nB, N int64) float64 {
	if N == 0 || nAB == 0 {
		return 0
	}

	pmi := c.PMI(nAB, nA, nB, N)
	pAB := (float64(nAB) + c.epsilon) / float64(N)
	logPAB := math.Log(pAB)

	if logPAB == 0 {
		return 0
	}

	return pmi / -logPAB
}

// CoherenceEpsilon is the additive smoothing used by the probability-space
// measures below.
const CoherenceEpsilon = 1e-12

// LogRatio returns log((P(a,b) + eps) / (P(a) P(b))). Zero marginals yield 0.
func LogRatio(pAB, pA, pB, eps float64) float64 {
	if pA == 0 || pB == 0 {
		return 0
	}
	return math.Log((pAB + eps) / (pA * pB))
}

// NormalizedLogRatio is LogRatio divided by -log(P(a,b) + eps), in [-1, 1].
func NormalizedLogRatio(pAB, pA, pB, eps float64) float64 {
	if pA == 0 || pB == 0 {
		return 0
	}
	denom := -math.Log(pAB + eps)
	if denom == 0 {
		return 0
	}
	return LogRatio(pAB, pA, pB, eps) / denom
}

// LogConditional returns log((P(a,b) + eps) / P(b)), the UMass measure.
func LogConditional(pAB, pB, eps float64) float64 {
	if pB == 0 {
		return 0
	}
	return math.Log(pAB+eps) - math.Log(pB)
}
