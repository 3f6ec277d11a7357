package dedupe

import (
	"math"

	"github.com/subashy6/matchkit/core"
)

// CandidatePair is one unlabeled pair in the active-learning pool: the
// canonical pair, the two full records, and the feature vector the
// classifier scores.
type CandidatePair struct {
	Pair     core.RecordPair
	Records  [2]Record
	Features []float64
}

// Sampler drains a candidate pool by repeatedly picking the most
// informative unlabeled pair across a fixed set of scoring models.
//
// Draining is sequential and stateful; concurrent PopBiased calls are
// unsafe.
type Sampler struct {
	pairs   []CandidatePair
	scorers []Scorer

	labeledMatches   int
	labeledDistincts int
}

// NewSampler creates a sampler over the pool with the given scorers.
// Scorer state must be parallel to pairs.
func NewSampler(pairs []CandidatePair, scorers []Scorer) *Sampler {
	return &Sampler{pairs: pairs, scorers: scorers}
}

// Remaining returns the number of unlabeled pairs left in the pool.
func (s *Sampler) Remaining() int { return len(s.pairs) }

// MarkLabeled records the user's label for a previously popped pair,
// feeding the class balance used by PopBiased.
func (s *Sampler) MarkLabeled(match bool) {
	if match {
		s.labeledMatches++
	} else {
		s.labeledDistincts++
	}
}

// PopBiased removes and returns the most informative unlabeled pair.
//
// While labeled matches and distincts are roughly balanced the pair the
// models disagree on most strongly is chosen (vote disagreement first,
// score spread as the tiebreak). Once the imbalance between the two
// classes exceeds the given threshold, selection is biased toward pairs
// the models predict to belong to the under-represented class: majority
// vote first, then strongest single-model confidence, then the most
// extreme mean score.
//
// Fails with ErrExhaustedPool when no pairs remain.
func (s *Sampler) PopBiased(imbalance int) (CandidatePair, error) {
	if len(s.pairs) == 0 {
		return CandidatePair{}, ErrExhaustedPool
	}

	probs := make([][]float64, len(s.scorers))
	for i, scorer := range s.scorers {
		probs[i] = scorer.CandidateScores()
	}

	var idx int
	bias := s.labeledMatches - s.labeledDistincts
	if abs(bias) > imbalance {
		idx = s.pickForClass(probs, bias < 0)
	} else {
		idx = s.pickDisagreement(probs)
	}

	chosen := s.pairs[idx]
	s.pairs = append(s.pairs[:idx], s.pairs[idx+1:]...)
	for _, scorer := range s.scorers {
		scorer.Remove(idx)
	}
	return chosen, nil
}

// pickForClass biases selection toward the under-represented class:
// wantMatch selects the pair most confidently predicted to be a match,
// otherwise the pair most confidently predicted distinct.
func (s *Sampler) pickForClass(probs [][]float64, wantMatch bool) int {
	n := len(s.pairs)

	// Majority of models predicting the wanted class.
	best, bestConf := -1, -1.0
	for j := 0; j < n; j++ {
		votes := 0
		for i := range probs {
			if (probs[i][j] > 0.5) == wantMatch {
				votes++
			}
		}
		if votes*2 <= len(probs) {
			continue
		}
		if conf := classConfidence(meanAt(probs, j), wantMatch); conf > bestConf {
			best, bestConf = j, conf
		}
	}
	if best >= 0 {
		return best
	}

	// No majority anywhere: strongest single-model confidence.
	best, bestConf = -1, -1.0
	for j := 0; j < n; j++ {
		for i := range probs {
			if conf := classConfidence(probs[i][j], wantMatch); conf > bestConf {
				best, bestConf = j, conf
			}
		}
	}
	if best >= 0 {
		return best
	}

	// No scorers at all: fall back to the first pair.
	return 0
}

// pickDisagreement selects the pair with the strongest inter-model
// disagreement: highest standard deviation of binary votes, spread of
// raw scores as the tiebreak (and as the fallback when all models vote
// alike).
func (s *Sampler) pickDisagreement(probs [][]float64) int {
	n := len(s.pairs)
	best, bestStd, bestSpread := 0, -1.0, -1.0
	for j := 0; j < n; j++ {
		std := voteStd(probs, j)
		spread := scoreSpread(probs, j)
		if std > bestStd || (std == bestStd && spread > bestSpread) {
			best, bestStd, bestSpread = j, std, spread
		}
	}
	return best
}

// voteStd is the standard deviation of the models' binary votes for one
// pair: zero when all agree, maximal when they split evenly.
func voteStd(probs [][]float64, j int) float64 {
	if len(probs) == 0 {
		return 0
	}
	var mean float64
	for i := range probs {
		if probs[i][j] > 0.5 {
			mean++
		}
	}
	mean /= float64(len(probs))
	return math.Sqrt(mean * (1 - mean))
}

func scoreSpread(probs [][]float64, j int) float64 {
	if len(probs) == 0 {
		return 0
	}
	lo, hi := probs[0][j], probs[0][j]
	for i := 1; i < len(probs); i++ {
		lo = math.Min(lo, probs[i][j])
		hi = math.Max(hi, probs[i][j])
	}
	return hi - lo
}

func meanAt(probs [][]float64, j int) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for i := range probs {
		sum += probs[i][j]
	}
	return sum / float64(len(probs))
}

// classConfidence maps a match probability onto confidence for the
// wanted class.
func classConfidence(p float64, wantMatch bool) float64 {
	if wantMatch {
		return p
	}
	return 1 - p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
