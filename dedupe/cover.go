package dedupe

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// MatchPair is one known true-match training pair.
type MatchPair struct {
	A, B Record
}

// CoverLearner selects a near-minimal set of blocking predicates that
// together cover at least a (1 - epsilon) fraction of known true-match
// pairs, scored by estimated comparison cost over the training records.
type CoverLearner struct {
	// Epsilon is the tolerated fraction of uncovered match pairs.
	Epsilon float64
}

// coverage is one candidate predicate with its covered match set and
// estimated comparison cost.
type coverage struct {
	predicate Predicate
	covered   *roaring.Bitmap
	cost      float64
}

// searchFrame is one explicit branch-and-bound step: the next candidate
// to branch on and the partial solution accumulated so far. An explicit
// stack keeps the search iterative and cheap to bound.
type searchFrame struct {
	next    int
	chosen  []int
	covered *roaring.Bitmap
	cost    float64
}

// Learn picks the predicate cover. Records are the training sample used
// for cost estimation; matches are the known true-match pairs.
//
// When no predicate covers any match pair at all, the uncovered budget
// is reset to zero and the empty cover is returned instead of failing;
// the caller falls back to exhaustive pairing or wider predicates.
func (l *CoverLearner) Learn(candidates []Predicate, records []Record, matches []MatchPair) []Predicate {
	if len(candidates) == 0 || len(matches) == 0 {
		return nil
	}

	coverages := make([]coverage, 0, len(candidates))
	for _, p := range candidates {
		cov := roaring.New()
		for i, m := range matches {
			if covers(p, m.A, m.B) {
				cov.Add(uint32(i))
			}
		}
		coverages = append(coverages, coverage{
			predicate: p,
			covered:   cov,
			cost:      estimateComparisons(p, records),
		})
	}

	coverable := roaring.New()
	for _, c := range coverages {
		coverable.Or(c.covered)
	}
	if coverable.IsEmpty() {
		// Empty cover: nothing is coverable, so the uncovered budget
		// collapses to zero and there is nothing to search.
		return nil
	}

	// Pairs no predicate can cover consume the epsilon budget first.
	budget := int(math.Floor(l.Epsilon * float64(len(matches))))
	uncoverable := len(matches) - int(coverable.GetCardinality())
	budget -= uncoverable
	if budget < 0 {
		budget = 0
	}
	required := int(coverable.GetCardinality()) - budget

	// Branch on cheap, high-yield predicates first.
	sort.SliceStable(coverages, func(i, j int) bool {
		return effectiveness(coverages[i]) > effectiveness(coverages[j])
	})

	best, bestCost := l.greedySeed(coverages, required)
	l.branchAndBound(coverages, required, &best, &bestCost)

	selected := make([]Predicate, len(best))
	for i, idx := range best {
		selected[i] = coverages[idx].predicate
	}
	return selected
}

func effectiveness(c coverage) float64 {
	if c.cost <= 0 {
		return float64(c.covered.GetCardinality())
	}
	return float64(c.covered.GetCardinality()) / c.cost
}

// greedySeed builds an initial feasible solution to tighten the
// branch-and-bound cost bound from the start.
func (l *CoverLearner) greedySeed(coverages []coverage, required int) ([]int, float64) {
	covered := roaring.New()
	var chosen []int
	var cost float64

	for int(covered.GetCardinality()) < required {
		bestIdx, bestGain := -1, 0.0
		for i, c := range coverages {
			gain := float64(roaring.AndNot(c.covered, covered).GetCardinality())
			if gain <= 0 {
				continue
			}
			if c.cost > 0 {
				gain /= c.cost
			}
			if bestIdx == -1 || gain > bestGain {
				bestIdx, bestGain = i, gain
			}
		}
		if bestIdx == -1 {
			break
		}
		chosen = append(chosen, bestIdx)
		covered.Or(coverages[bestIdx].covered)
		cost += coverages[bestIdx].cost
	}
	return chosen, cost
}

func (l *CoverLearner) branchAndBound(coverages []coverage, required int, best *[]int, bestCost *float64) {
	stack := []searchFrame{{next: 0, covered: roaring.New()}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if int(frame.covered.GetCardinality()) >= required {
			if frame.cost < *bestCost {
				*bestCost = frame.cost
				*best = append([]int(nil), frame.chosen...)
			}
			continue
		}
		if frame.next >= len(coverages) || frame.cost >= *bestCost {
			continue
		}

		// Bound: even taking every remaining predicate cannot reach the
		// required coverage.
		reachable := frame.covered.Clone()
		for i := frame.next; i < len(coverages); i++ {
			reachable.Or(coverages[i].covered)
		}
		if int(reachable.GetCardinality()) < required {
			continue
		}

		// Branch: skip candidate, then take it (LIFO explores "take" first).
		stack = append(stack, searchFrame{
			next:    frame.next + 1,
			chosen:  frame.chosen,
			covered: frame.covered,
			cost:    frame.cost,
		})

		take := coverages[frame.next]
		withCovered := frame.covered.Clone()
		withCovered.Or(take.covered)
		stack = append(stack, searchFrame{
			next:    frame.next + 1,
			chosen:  append(append([]int(nil), frame.chosen...), frame.next),
			covered: withCovered,
			cost:    frame.cost + take.cost,
		})
	}
}

// estimateComparisons estimates how many candidate comparisons a
// predicate would generate over the record sample: the sum of
// same-bucket pair counts.
func estimateComparisons(p Predicate, records []Record) float64 {
	buckets := make(map[string]int)
	for _, r := range records {
		for _, key := range p.Keys(r) {
			buckets[key]++
		}
	}
	var comparisons float64
	for _, n := range buckets {
		comparisons += float64(n) * float64(n-1) / 2
	}
	return comparisons
}
