package matchkit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/subashy6/matchkit/core"
	"github.com/subashy6/matchkit/fingerprint"
	"github.com/subashy6/matchkit/neighbors"
	"github.com/subashy6/matchkit/recommend"
)

const defaultCapacity = 100_000

// ThresholdStore persists adapted term thresholds after feedback
// processing. Implementations typically write to the host's database.
type ThresholdStore interface {
	SaveThresholds(ctx context.Context, thresholds map[core.TermID]float64) error
}

// Suggester is the suggestion engine: a fingerprint index, a neighbor
// calculator over it, and a recommender with feedback-adapted thresholds.
//
// All operations are safe for concurrent use. Mutations take a write
// lock; queries share a read lock, so index memory observed by an
// in-flight search is never moved under it.
type Suggester struct {
	mu sync.RWMutex

	index         *fingerprint.Index
	calculator    *neighbors.Calculator
	recommender   *recommend.Recommender
	thresholds    *recommend.Thresholds
	thresholdCalc *recommend.ThresholdCalculator

	store        ThresholdStore
	metrics      MetricsCollector
	logger       *Logger
	snapshotPath string
}

// NewSuggester creates a suggestion engine with an empty index.
//
// catalog exposes per-term flags (disabled, adaptive learning);
// assignments exposes the accept/reject history read during
// recommendation. Both are maintained by the host.
func NewSuggester(catalog recommend.Catalog, assignments recommend.AssignmentSource, optFns ...Option) (*Suggester, error) {
	opts := applyOptions(optFns)

	dim := opts.dimension
	if dim <= 0 {
		dim = core.FingerprintDim
	}

	index, err := fingerprint.NewIndex(opts.capacity, dim)
	if err != nil {
		return nil, err
	}

	return assemble(index, catalog, assignments, opts), nil
}

// NewSuggesterFromFile creates a suggestion engine from an index
// snapshot written by SaveToFile. Capacity and dimension come from the
// snapshot; WithCapacity and WithDimension are ignored.
//
// The snapshot path defaults to the loaded filename, so a later
// Checkpoint rewrites the same file.
func NewSuggesterFromFile(filename string, catalog recommend.Catalog, assignments recommend.AssignmentSource, optFns ...Option) (*Suggester, error) {
	opts := applyOptions(optFns)

	index, err := fingerprint.LoadFromFile(filename)
	if err != nil {
		return nil, err
	}

	if opts.snapshotPath == "" {
		opts.snapshotPath = filename
	}

	return assemble(index, catalog, assignments, opts), nil
}

func assemble(index *fingerprint.Index, catalog recommend.Catalog, assignments recommend.AssignmentSource, opts options) *Suggester {
	thresholds := recommend.NewThresholds(opts.thresholdOptions...)

	calcOptFns := []func(*neighbors.Options){neighbors.WithResources(opts.resources)}

	return &Suggester{
		index:         index,
		calculator:    neighbors.NewCalculator(index, calcOptFns...),
		recommender:   recommend.NewRecommender(assignments, catalog, thresholds, opts.recommenderOpts...),
		thresholds:    thresholds,
		thresholdCalc: recommend.NewThresholdCalculator(thresholds, catalog, opts.calculatorOptions...),
		store:         opts.thresholdStore,
		metrics:       opts.metricsCollector,
		logger:        opts.logger,
		snapshotPath:  opts.snapshotPath,
	}
}

// SetFingerprint stores the fingerprint for an attribute, overwriting a
// known attribute in place. Inserting a new attribute into a full index
// fails with ErrIndexFull.
func (s *Suggester) SetFingerprint(ctx context.Context, id core.AttributeID, fp core.Fingerprint) error {
	start := time.Now()
	err := s.set(id, fp)
	s.metrics.RecordSet(time.Since(start), err)
	s.logger.LogSet(ctx, id, len(fp), err)
	return err
}

func (s *Suggester) set(id core.AttributeID, fp core.Fingerprint) error {
	if len(fp) != s.index.Dimension() {
		return &ErrDimensionMismatch{Expected: s.index.Dimension(), Actual: len(fp)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return translateError(s.index.Set(id, fp))
}

// FingerprintWithID pairs an attribute with its fingerprint for batch
// mutation.
type FingerprintWithID struct {
	ID          core.AttributeID
	Fingerprint core.Fingerprint
}

// BatchSetResult reports per-item outcomes of SetFingerprints. Errors[i]
// is nil when item i was applied.
type BatchSetResult struct {
	Errors []error
}

// Failed returns the number of items that were not applied.
func (r BatchSetResult) Failed() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// SetFingerprints applies a batch of fingerprint mutations under a
// single write lock. Items are applied in order; a failed item does not
// stop the batch.
func (s *Suggester) SetFingerprints(ctx context.Context, items []FingerprintWithID) BatchSetResult {
	start := time.Now()
	result := BatchSetResult{Errors: make([]error, len(items))}

	s.mu.Lock()
	for i, item := range items {
		if len(item.Fingerprint) != s.index.Dimension() {
			result.Errors[i] = &ErrDimensionMismatch{Expected: s.index.Dimension(), Actual: len(item.Fingerprint)}
			continue
		}
		result.Errors[i] = translateError(s.index.Set(item.ID, item.Fingerprint))
	}
	s.mu.Unlock()

	failed := result.Failed()
	s.metrics.RecordBatchSet(len(items), failed, time.Since(start))
	s.logger.LogBatchSet(ctx, len(items), failed)
	return result
}

// DeleteFingerprint removes an attribute from the index. Deleting an
// unknown attribute fails with ErrNotFound.
func (s *Suggester) DeleteFingerprint(ctx context.Context, id core.AttributeID) error {
	start := time.Now()
	s.mu.Lock()
	err := translateError(s.index.Delete(id))
	s.mu.Unlock()
	s.metrics.RecordDelete(time.Since(start), err)
	s.logger.LogDelete(ctx, id, err)
	return err
}

// GetFingerprint returns a copy of the fingerprint stored for an
// attribute.
func (s *Suggester) GetFingerprint(id core.AttributeID) (core.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fp, err := s.index.Get(id)
	if err != nil {
		return nil, translateError(err)
	}
	out := make(core.Fingerprint, len(fp))
	copy(out, fp)
	return out, nil
}

// Contains reports whether the attribute is indexed.
func (s *Suggester) Contains(id core.AttributeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Contains(id)
}

// TopK returns, per query attribute, up to k nearest other attributes by
// ascending Euclidean distance. Unknown attributes yield an empty
// neighbor list; results preserve input order.
func (s *Suggester) TopK(ctx context.Context, ids []core.AttributeID, k int) ([]core.Neighbors, error) {
	start := time.Now()
	s.mu.RLock()
	results, err := s.calculator.TopK(ctx, ids, k)
	s.mu.RUnlock()
	err = translateError(err)
	s.metrics.RecordSearch(k, time.Since(start), err)
	s.logger.LogSearch(ctx, len(ids), k, err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Recommend suggests glossary terms for one attribute from its k nearest
// neighbors, ranked by descending confidence.
func (s *Suggester) Recommend(ctx context.Context, id core.AttributeID, k int) ([]core.Suggestion, error) {
	batches, err := s.BatchRecommend(ctx, []core.AttributeID{id}, k)
	if err != nil {
		return nil, err
	}
	return batches[0], nil
}

// BatchRecommend suggests terms for each query attribute independently,
// order-preserving. An attribute with no indexed fingerprint or no
// qualifying neighbors yields an empty suggestion list.
func (s *Suggester) BatchRecommend(ctx context.Context, ids []core.AttributeID, k int) ([][]core.Suggestion, error) {
	start := time.Now()

	s.mu.RLock()
	neighborSets, err := s.calculator.TopK(ctx, ids, k)
	var suggestions [][]core.Suggestion
	if err == nil {
		suggestions = s.recommender.BatchRecommend(neighborSets)
	}
	s.mu.RUnlock()

	if err != nil {
		err = translateError(err)
		s.metrics.RecordSearch(k, time.Since(start), err)
		s.logger.LogRecommend(ctx, len(ids), 0, err)
		return nil, err
	}

	suggested := 0
	for _, batch := range suggestions {
		suggested += len(batch)
	}
	s.metrics.RecordSearch(k, time.Since(start), nil)
	s.logger.LogRecommend(ctx, len(ids), suggested, nil)
	return suggestions, nil
}

// ProcessFeedbacks applies accept/reject decisions to the per-term
// thresholds and returns the terms whose thresholds changed, with their
// new values. Changed thresholds are persisted through the configured
// ThresholdStore, if any; a persistence failure leaves the in-memory
// thresholds adapted and returns the error alongside the changed map.
func (s *Suggester) ProcessFeedbacks(ctx context.Context, feedbacks []recommend.Feedback) (map[core.TermID]float64, error) {
	start := time.Now()

	s.mu.Lock()
	changed := s.thresholdCalc.ProcessFeedbacks(feedbacks)
	s.mu.Unlock()

	var err error
	if s.store != nil && len(changed) > 0 {
		if err = s.store.SaveThresholds(ctx, changed); err != nil {
			err = fmt.Errorf("persist thresholds: %w", err)
		}
	}

	s.metrics.RecordFeedback(len(feedbacks), len(changed), time.Since(start))
	s.logger.LogFeedback(ctx, len(feedbacks), len(changed), err)
	return changed, err
}

// Threshold returns the current similarity threshold for a term.
func (s *Suggester) Threshold(id core.TermID) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds.Get(id)
}

// SetThreshold records a term threshold, typically when loading
// persisted state at startup.
func (s *Suggester) SetThreshold(id core.TermID, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds.Set(id, v)
}

// SaveToFile writes a compressed snapshot of the fingerprint index to a
// file, replacing it atomically.
func (s *Suggester) SaveToFile(ctx context.Context, path string) error {
	s.mu.RLock()
	err := s.index.SaveToFile(path)
	s.mu.RUnlock()
	s.logger.LogSnapshot(ctx, path, err)
	return err
}

// Checkpoint saves a snapshot to the configured snapshot path.
func (s *Suggester) Checkpoint(ctx context.Context) error {
	if s.snapshotPath == "" {
		return fmt.Errorf("matchkit: no snapshot path configured")
	}
	return s.SaveToFile(ctx, s.snapshotPath)
}

// Stats is a snapshot of index occupancy.
type Stats struct {
	Indexed   int
	Capacity  int
	Dimension int
}

// Stats returns statistics about the underlying index.
func (s *Suggester) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Indexed:   s.index.Len(),
		Capacity:  s.index.Capacity(),
		Dimension: s.index.Dimension(),
	}
}
