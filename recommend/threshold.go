// Package recommend converts neighbor sets into ranked glossary-term
// suggestions and adapts per-term similarity thresholds from user
// feedback.
package recommend

import (
	"math"

	"github.com/subashy6/matchkit/core"
)

// Catalog exposes per-term configuration maintained by the host.
type Catalog interface {
	// TermDisabled reports whether suggestions for the term are turned off.
	TermDisabled(id core.TermID) bool

	// AdaptiveLearningEnabled reports whether feedback may move the
	// term's threshold. Disabled terms keep their threshold frozen.
	AdaptiveLearningEnabled(id core.TermID) bool
}

// Thresholds holds per-term similarity thresholds. A term with no
// recorded threshold falls back to the configured default, which covers
// newly created terms with no feedback history.
//
// Thread safety: none. Mutation goes through ThresholdCalculator under
// the caller's single-writer discipline.
type Thresholds struct {
	values       map[core.TermID]float64
	defaultValue float64
	maxValue     float64
}

// ThresholdOptions configures a Thresholds store.
type ThresholdOptions struct {
	// Default is the threshold assumed for terms without history.
	Default float64

	// Max caps threshold growth.
	Max float64
}

// DefaultThresholdOptions are the default threshold settings.
var DefaultThresholdOptions = ThresholdOptions{
	Default: 1.0,
	Max:     16.0,
}

// NewThresholds creates an empty threshold store.
func NewThresholds(optFns ...func(o *ThresholdOptions)) *Thresholds {
	opts := DefaultThresholdOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Thresholds{
		values:       make(map[core.TermID]float64),
		defaultValue: opts.Default,
		maxValue:     opts.Max,
	}
}

// Get returns the threshold for a term, falling back to the default.
func (t *Thresholds) Get(id core.TermID) float64 {
	if v, ok := t.values[id]; ok {
		return v
	}
	return t.defaultValue
}

// Set records a threshold, typically when loading persisted state.
func (t *Thresholds) Set(id core.TermID, v float64) {
	t.values[id] = v
}

// Max returns the configured threshold cap.
func (t *Thresholds) Max() float64 { return t.maxValue }

// Feedback is one accept/reject decision on a suggested term.
type Feedback struct {
	TermID   core.TermID
	Positive bool
}

// ThresholdCalculator adapts term thresholds toward a target acceptance
// accuracy with an exponential multiplicative update. Each individual
// feedback nudges the threshold immediately, a per-feedback stochastic
// adjustment rather than a batch average.
type ThresholdCalculator struct {
	thresholds *Thresholds
	catalog    Catalog
	opts       CalculatorOptions
}

// CalculatorOptions configures the threshold update rule.
type CalculatorOptions struct {
	// TargetAccuracy is the acceptance rate the thresholds converge to.
	TargetAccuracy float64

	// Step scales the per-feedback multiplicative change.
	Step float64
}

// DefaultCalculatorOptions are the default update settings.
var DefaultCalculatorOptions = CalculatorOptions{
	TargetAccuracy: 0.8,
	Step:           0.1,
}

// NewThresholdCalculator creates a calculator mutating the given store.
func NewThresholdCalculator(thresholds *Thresholds, catalog Catalog, optFns ...func(o *CalculatorOptions)) *ThresholdCalculator {
	opts := DefaultCalculatorOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ThresholdCalculator{
		thresholds: thresholds,
		catalog:    catalog,
		opts:       opts,
	}
}

// ProcessFeedbacks applies each feedback in order and returns only the
// terms whose thresholds actually changed, with their new values.
//
// A positive feedback observes accuracy 1.0 and grows the threshold
// (capped at the configured max); a negative feedback observes 0.0 and
// shrinks it. Terms with adaptive learning disabled are skipped.
func (c *ThresholdCalculator) ProcessFeedbacks(feedbacks []Feedback) map[core.TermID]float64 {
	changed := make(map[core.TermID]float64)

	for _, fb := range feedbacks {
		if !c.catalog.AdaptiveLearningEnabled(fb.TermID) {
			continue
		}

		observed := 0.0
		if fb.Positive {
			observed = 1.0
		}

		current := c.thresholds.Get(fb.TermID)
		relativeChange := 1 + c.opts.Step*math.Abs(c.opts.TargetAccuracy-observed)

		var next float64
		if observed < c.opts.TargetAccuracy {
			next = current / relativeChange
		} else {
			next = math.Min(current*relativeChange, c.thresholds.Max())
		}

		if next == current {
			continue
		}
		c.thresholds.Set(fb.TermID, next)
		changed[fb.TermID] = next
	}

	return changed
}
