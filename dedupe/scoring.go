package dedupe

import "math"

// maxLogisticScore bounds raw scores before exponentiation. Unbounded
// scores overflow exp and poison downstream probabilities with NaN.
const maxLogisticScore = 700

// Scorer evaluates the remaining unlabeled candidate pool. Scores are
// match probabilities in [0,1], parallel to the pool's pair order, and
// Remove keeps the scorer's state aligned when a pair leaves the pool.
type Scorer interface {
	CandidateScores() []float64
	Remove(i int)
}

// RuleScorer scores a pair by the fraction of learned blocking
// predicates that put both records in a common bucket. A pair every
// learned rule agrees on gets probability 1.
type RuleScorer struct {
	scores []float64
}

// NewRuleScorer precomputes rule-confidence scores for the pool.
func NewRuleScorer(predicates []Predicate, pairs []CandidatePair) *RuleScorer {
	scores := make([]float64, len(pairs))
	for i, pair := range pairs {
		if len(predicates) == 0 {
			continue
		}
		hits := 0
		for _, p := range predicates {
			if covers(p, pair.Records[0], pair.Records[1]) {
				hits++
			}
		}
		scores[i] = float64(hits) / float64(len(predicates))
	}
	return &RuleScorer{scores: scores}
}

func (s *RuleScorer) CandidateScores() []float64 { return s.scores }

func (s *RuleScorer) Remove(i int) {
	s.scores = append(s.scores[:i], s.scores[i+1:]...)
}

// LogisticScorer is a logistic-regression classifier over per-pair
// feature vectors. Raw scores are clipped before exponentiation so an
// extreme score yields a saturated probability instead of NaN.
type LogisticScorer struct {
	weights  []float64
	bias     float64
	features [][]float64
}

// NewLogisticScorer creates a scorer over the pool's feature vectors
// with zero-initialized weights.
func NewLogisticScorer(pairs []CandidatePair, numFeatures int) *LogisticScorer {
	features := make([][]float64, len(pairs))
	for i, pair := range pairs {
		features[i] = pair.Features
	}
	return &LogisticScorer{
		weights:  make([]float64, numFeatures),
		features: features,
	}
}

func (s *LogisticScorer) CandidateScores() []float64 {
	scores := make([]float64, len(s.features))
	for i, f := range s.features {
		scores[i] = s.Predict(f)
	}
	return scores
}

func (s *LogisticScorer) Remove(i int) {
	s.features = append(s.features[:i], s.features[i+1:]...)
}

// Predict returns the match probability for one feature vector.
func (s *LogisticScorer) Predict(features []float64) float64 {
	return robustSigmoid(s.raw(features))
}

// Learn performs one online gradient step from a labeled example.
func (s *LogisticScorer) Learn(features []float64, match bool, learningRate float64) {
	target := 0.0
	if match {
		target = 1.0
	}
	err := target - s.Predict(features)
	for j := range s.weights {
		if j < len(features) {
			s.weights[j] += learningRate * err * features[j]
		}
	}
	s.bias += learningRate * err
}

func (s *LogisticScorer) raw(features []float64) float64 {
	score := s.bias
	for j, w := range s.weights {
		if j < len(features) {
			score += w * features[j]
		}
	}
	return score
}

// robustSigmoid is the logistic function with the raw score clipped to
// [-maxLogisticScore, maxLogisticScore].
func robustSigmoid(score float64) float64 {
	if score > maxLogisticScore {
		score = maxLogisticScore
	} else if score < -maxLogisticScore {
		score = -maxLogisticScore
	}
	return 1 / (1 + math.Exp(-score))
}
