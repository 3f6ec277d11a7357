package recommend

import (
	"math"
	"sort"

	"github.com/subashy6/matchkit/core"
)

// AssignmentSource provides the term assignment history of attributes.
// It is maintained externally (accepted and rejected suggestions) and is
// read-only to the recommender.
type AssignmentSource interface {
	AssignedTerms(id core.AttributeID) []core.TermID
	RejectedTerms(id core.AttributeID) []core.TermID
}

// Options contains configuration options for the recommender.
type Options struct {
	// MinConfidence is the floor that [0,1] confidence components are
	// rescaled onto, so a borderline suggestion never reports a zero or
	// trivial confidence while a high-margin one stays near 1.
	MinConfidence float64
}

// DefaultOptions contains the default recommender configuration.
var DefaultOptions = Options{
	MinConfidence: 0.1,
}

// Recommender converts a neighbor list into ranked term suggestions.
type Recommender struct {
	assignments AssignmentSource
	catalog     Catalog
	thresholds  *Thresholds
	opts        Options
}

// NewRecommender creates a recommender reading assignment history and
// term thresholds.
func NewRecommender(assignments AssignmentSource, catalog Catalog, thresholds *Thresholds, optFns ...func(o *Options)) *Recommender {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Recommender{
		assignments: assignments,
		catalog:     catalog,
		thresholds:  thresholds,
		opts:        opts,
	}
}

// termDistances accumulates the normalized distances (distance divided
// by the term's threshold) of qualifying neighbors for one term.
type termDistances struct {
	assigned []float64
	rejected []float64
}

// Recommend scores glossary terms for one attribute from its neighbor
// list.
//
// A neighbor qualifies for a term when its distance is within that
// term's threshold. The mean normalized distance across qualifying
// neighbors with the term assigned gives the assigned distance; the same
// over rejections gives the rejected distance (absent rejections count
// as infinitely far). A term is suggested only when the rejected
// distance is at least the assigned distance; disabled terms are always
// excluded.
func (r *Recommender) Recommend(neighbors core.Neighbors) []core.Suggestion {
	if len(neighbors) == 0 {
		return nil
	}

	byTerm := make(map[core.TermID]*termDistances)
	accumulate := func(term core.TermID, dist float32, rejected bool) {
		threshold := r.thresholds.Get(term)
		if threshold <= 0 || float64(dist) > threshold {
			return
		}
		td, ok := byTerm[term]
		if !ok {
			td = &termDistances{}
			byTerm[term] = td
		}
		ratio := float64(dist) / threshold
		if rejected {
			td.rejected = append(td.rejected, ratio)
		} else {
			td.assigned = append(td.assigned, ratio)
		}
	}

	for _, n := range neighbors {
		for _, term := range r.assignments.AssignedTerms(n.AttributeID) {
			accumulate(term, n.Distance, false)
		}
		for _, term := range r.assignments.RejectedTerms(n.AttributeID) {
			accumulate(term, n.Distance, true)
		}
	}

	suggestions := make([]core.Suggestion, 0, len(byTerm))
	for term, td := range byTerm {
		if len(td.assigned) == 0 || r.catalog.TermDisabled(term) {
			continue
		}

		assignedDist := mean(td.assigned)
		rejectedDist := math.Inf(1)
		if len(td.rejected) > 0 {
			rejectedDist = mean(td.rejected)
		}
		if rejectedDist < assignedDist {
			continue
		}

		suggestions = append(suggestions, core.Suggestion{
			TermID:     term,
			Confidence: r.confidence(assignedDist, rejectedDist),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return lessUUID(suggestions[i].TermID, suggestions[j].TermID)
	})
	return suggestions
}

// BatchRecommend applies Recommend independently per attribute,
// order-preserving.
func (r *Recommender) BatchRecommend(batches []core.Neighbors) [][]core.Suggestion {
	out := make([][]core.Suggestion, len(batches))
	for i, neighbors := range batches {
		out[i] = r.Recommend(neighbors)
	}
	return out
}

// confidence combines the margin to the assignment threshold with the
// margin to the rejected distance, taking the weaker of the two. Each
// component is rescaled from [0,1] onto [MinConfidence,1].
func (r *Recommender) confidence(assignedDist, rejectedDist float64) float64 {
	fromThreshold := 1 - assignedDist

	fromRejection := 1.0
	if !math.IsInf(rejectedDist, 1) {
		if rejectedDist == 0 {
			fromRejection = 0
		} else {
			fromRejection = 1 - assignedDist/rejectedDist
		}
	}

	return math.Min(r.rescale(fromThreshold), r.rescale(fromRejection))
}

func (r *Recommender) rescale(v float64) float64 {
	v = math.Max(0, math.Min(1, v))
	return r.opts.MinConfidence + (1-r.opts.MinConfidence)*v
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func lessUUID(a, b core.TermID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
