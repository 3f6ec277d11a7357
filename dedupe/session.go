package dedupe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/subashy6/matchkit/core"
)

// FeatureExtractor turns a record pair into the feature vector scored by
// the classifier. All pairs in one session must produce vectors of the
// same length.
type FeatureExtractor func(a, b Record) []float64

// FieldFeatures builds the default extractor over a fixed field list:
// per field, an exact-match indicator and the token Jaccard similarity
// of the normalized values.
func FieldFeatures(fields []string) FeatureExtractor {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)

	return func(a, b Record) []float64 {
		features := make([]float64, 0, 2*len(sorted))
		for _, field := range sorted {
			va := normalize(a.Fields[field])
			vb := normalize(b.Fields[field])

			exact := 0.0
			if va != "" && va == vb {
				exact = 1.0
			}
			features = append(features, exact, tokenJaccard(va, vb))
		}
		return features
	}
}

func tokenJaccard(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(ta))
	for _, tok := range ta {
		set[tok] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(tb))
	for _, tok := range tb {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			shared++
		}
	}
	union := len(set) + len(seen) - shared
	return float64(shared) / float64(union)
}

// SessionOptions contains configuration options for a training session.
type SessionOptions struct {
	// Extractor builds classifier features. Defaults to FieldFeatures
	// over the union of fields observed in the pool.
	Extractor FeatureExtractor

	// LearningRate for online classifier updates on labeled pairs.
	LearningRate float64
}

// DefaultSessionOptions contains the default session configuration.
var DefaultSessionOptions = SessionOptions{
	LearningRate: 0.1,
}

// Session is one active-learning training run: a candidate pool built
// from blocking output, two scoring models, and the sampler draining the
// pool. Sessions are sequential; all methods require external
// serialization.
type Session struct {
	sampler    *Sampler
	classifier *LogisticScorer
	extractor  FeatureExtractor
	opts       SessionOptions
}

// NewSession fetches full record details for the candidate pairs,
// builds the pool with rule-based and classifier scorers, and returns a
// session ready for PopBiased.
func NewSession(ctx context.Context, store RecordStore, pairs []core.RecordPair, learnedPredicates []Predicate, optFns ...func(o *SessionOptions)) (*Session, error) {
	opts := DefaultSessionOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultSessionOptions.LearningRate
	}

	ids := make([]core.RecordID, 0, 2*len(pairs))
	seen := make(map[core.RecordID]struct{}, 2*len(pairs))
	for _, p := range pairs {
		for _, id := range []core.RecordID{p.Low, p.High} {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	details, err := store.FetchRecordDetailsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch record details: %w", err)
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = FieldFeatures(observedFields(details))
	}

	pool := make([]CandidatePair, 0, len(pairs))
	for _, p := range pairs {
		a, okA := details[p.Low]
		b, okB := details[p.High]
		if !okA || !okB {
			return nil, fmt.Errorf("record details missing for pair %s", p)
		}
		pool = append(pool, CandidatePair{
			Pair:     p,
			Records:  [2]Record{a, b},
			Features: extractor(a, b),
		})
	}

	numFeatures := 0
	if len(pool) > 0 {
		numFeatures = len(pool[0].Features)
	}

	classifier := NewLogisticScorer(pool, numFeatures)
	scorers := []Scorer{
		NewRuleScorer(learnedPredicates, pool),
		classifier,
	}

	return &Session{
		sampler:    NewSampler(pool, scorers),
		classifier: classifier,
		extractor:  extractor,
		opts:       opts,
	}, nil
}

// PopBiased removes and returns the most informative unlabeled pair.
func (s *Session) PopBiased(imbalance int) (CandidatePair, error) {
	return s.sampler.PopBiased(imbalance)
}

// Label records the user's decision for a popped pair: the class
// balance advances and the classifier takes one online gradient step.
func (s *Session) Label(pair CandidatePair, match bool) {
	s.sampler.MarkLabeled(match)
	s.classifier.Learn(pair.Features, match, s.opts.LearningRate)
}

// Remaining returns the number of unlabeled pairs left.
func (s *Session) Remaining() int { return s.sampler.Remaining() }

func observedFields(details map[core.RecordID]Record) []string {
	set := make(map[string]struct{})
	for _, r := range details {
		for field := range r.Fields {
			set[field] = struct{}{}
		}
	}
	fields := make([]string, 0, len(set))
	for field := range set {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
