package matchkit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subashy6/matchkit/core"
	"github.com/subashy6/matchkit/recommend"
)

type fakeCatalog struct {
	disabled map[core.TermID]bool
	frozen   map[core.TermID]bool
}

func (c *fakeCatalog) TermDisabled(id core.TermID) bool { return c.disabled[id] }

func (c *fakeCatalog) AdaptiveLearningEnabled(id core.TermID) bool { return !c.frozen[id] }

type fakeAssignments struct {
	assigned map[core.AttributeID][]core.TermID
	rejected map[core.AttributeID][]core.TermID
}

func (a *fakeAssignments) AssignedTerms(id core.AttributeID) []core.TermID { return a.assigned[id] }

func (a *fakeAssignments) RejectedTerms(id core.AttributeID) []core.TermID { return a.rejected[id] }

type fakeThresholdStore struct {
	saved []map[core.TermID]float64
	err   error
}

func (s *fakeThresholdStore) SaveThresholds(_ context.Context, thresholds map[core.TermID]float64) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, thresholds)
	return nil
}

func newTestSuggester(t *testing.T, optFns ...Option) (*Suggester, *fakeCatalog, *fakeAssignments) {
	t.Helper()
	catalog := &fakeCatalog{
		disabled: make(map[core.TermID]bool),
		frozen:   make(map[core.TermID]bool),
	}
	assignments := &fakeAssignments{
		assigned: make(map[core.AttributeID][]core.TermID),
		rejected: make(map[core.AttributeID][]core.TermID),
	}
	optFns = append([]Option{WithDimension(2)}, optFns...)
	sg, err := NewSuggester(catalog, assignments, optFns...)
	require.NoError(t, err)
	return sg, catalog, assignments
}

func TestSuggester_SetAndGet(t *testing.T) {
	ctx := context.Background()
	sg, _, _ := newTestSuggester(t)

	id := uuid.New()
	require.NoError(t, sg.SetFingerprint(ctx, id, core.Fingerprint{1, 2}))
	assert.True(t, sg.Contains(id))

	fp, err := sg.GetFingerprint(id)
	require.NoError(t, err)
	assert.Equal(t, core.Fingerprint{1, 2}, fp)

	// The returned fingerprint is a copy.
	fp[0] = 99
	fp2, err := sg.GetFingerprint(id)
	require.NoError(t, err)
	assert.Equal(t, core.Fingerprint{1, 2}, fp2)

	_, err = sg.GetFingerprint(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuggester_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	sg, _, _ := newTestSuggester(t)

	err := sg.SetFingerprint(ctx, uuid.New(), core.Fingerprint{1, 2, 3})

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
}

func TestSuggester_DeleteUnknown(t *testing.T) {
	ctx := context.Background()
	sg, _, _ := newTestSuggester(t)

	err := sg.DeleteFingerprint(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuggester_CapacityExhausted(t *testing.T) {
	ctx := context.Background()
	sg, _, _ := newTestSuggester(t, WithCapacity(2))

	require.NoError(t, sg.SetFingerprint(ctx, uuid.New(), core.Fingerprint{1, 0}))
	existing := uuid.New()
	require.NoError(t, sg.SetFingerprint(ctx, existing, core.Fingerprint{2, 0}))

	err := sg.SetFingerprint(ctx, uuid.New(), core.Fingerprint{3, 0})
	assert.ErrorIs(t, err, ErrIndexFull)

	// Updates still work at capacity.
	assert.NoError(t, sg.SetFingerprint(ctx, existing, core.Fingerprint{4, 0}))

	stats := sg.Stats()
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, 2, stats.Dimension)
}

func TestSuggester_SetFingerprints(t *testing.T) {
	ctx := context.Background()
	sg, _, _ := newTestSuggester(t, WithCapacity(2))

	items := []FingerprintWithID{
		{ID: uuid.New(), Fingerprint: core.Fingerprint{1, 0}},
		{ID: uuid.New(), Fingerprint: core.Fingerprint{1, 0, 0}},
		{ID: uuid.New(), Fingerprint: core.Fingerprint{2, 0}},
		{ID: uuid.New(), Fingerprint: core.Fingerprint{3, 0}},
	}
	result := sg.SetFingerprints(ctx, items)

	require.Len(t, result.Errors, 4)
	assert.NoError(t, result.Errors[0])
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, result.Errors[1], &dm)
	assert.NoError(t, result.Errors[2])
	assert.ErrorIs(t, result.Errors[3], ErrIndexFull)
	assert.Equal(t, 2, result.Failed())
}

func TestSuggester_TopK(t *testing.T) {
	ctx := context.Background()
	sg, _, _ := newTestSuggester(t)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, sg.SetFingerprint(ctx, a, core.Fingerprint{0, 0}))
	require.NoError(t, sg.SetFingerprint(ctx, b, core.Fingerprint{1, 0}))
	require.NoError(t, sg.SetFingerprint(ctx, c, core.Fingerprint{0, 3}))

	t.Run("InvalidK", func(t *testing.T) {
		_, err := sg.TopK(ctx, []core.AttributeID{a}, 0)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("NearestFirst", func(t *testing.T) {
		results, err := sg.TopK(ctx, []core.AttributeID{a}, 2)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Len(t, results[0], 2)
		assert.Equal(t, b, results[0][0].AttributeID)
		assert.InDelta(t, 1.0, results[0][0].Distance, 1e-6)
		assert.Equal(t, c, results[0][1].AttributeID)
		assert.InDelta(t, 3.0, results[0][1].Distance, 1e-6)
	})

	t.Run("UnknownAttributeYieldsEmpty", func(t *testing.T) {
		results, err := sg.TopK(ctx, []core.AttributeID{uuid.New()}, 2)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Empty(t, results[0])
	})
}

func TestSuggester_Recommend(t *testing.T) {
	ctx := context.Background()
	sg, catalog, assignments := newTestSuggester(t)

	query, neighbor := uuid.New(), uuid.New()
	term := uuid.New()
	require.NoError(t, sg.SetFingerprint(ctx, query, core.Fingerprint{0, 0}))
	require.NoError(t, sg.SetFingerprint(ctx, neighbor, core.Fingerprint{0.5, 0}))
	assignments.assigned[neighbor] = []core.TermID{term}

	t.Run("SuggestsAssignedTerm", func(t *testing.T) {
		suggestions, err := sg.Recommend(ctx, query, 1)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
		assert.Equal(t, term, suggestions[0].TermID)
		// Normalized distance 0.5 against the default threshold, no
		// rejections: confidence rescales 0.5 onto [0.1,1].
		assert.InDelta(t, 0.55, suggestions[0].Confidence, 1e-9)
	})

	t.Run("DisabledTermExcluded", func(t *testing.T) {
		catalog.disabled[term] = true
		defer delete(catalog.disabled, term)

		suggestions, err := sg.Recommend(ctx, query, 1)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("BatchOrderPreserving", func(t *testing.T) {
		batches, err := sg.BatchRecommend(ctx, []core.AttributeID{uuid.New(), query}, 1)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Empty(t, batches[0])
		require.Len(t, batches[1], 1)
		assert.Equal(t, term, batches[1][0].TermID)
	})
}

func TestSuggester_ProcessFeedbacks(t *testing.T) {
	ctx := context.Background()
	term := uuid.New()

	t.Run("PersistsChangedThresholds", func(t *testing.T) {
		store := &fakeThresholdStore{}
		sg, _, _ := newTestSuggester(t, WithThresholdStore(store))

		changed, err := sg.ProcessFeedbacks(ctx, []recommend.Feedback{{TermID: term, Positive: true}})
		require.NoError(t, err)
		require.Len(t, changed, 1)
		assert.InDelta(t, 1.02, changed[term], 1e-9)
		assert.InDelta(t, 1.02, sg.Threshold(term), 1e-9)

		require.Len(t, store.saved, 1)
		assert.InDelta(t, 1.02, store.saved[0][term], 1e-9)
	})

	t.Run("NoChangeSkipsPersistence", func(t *testing.T) {
		store := &fakeThresholdStore{}
		sg, catalog, _ := newTestSuggester(t, WithThresholdStore(store))
		catalog.frozen[term] = true

		changed, err := sg.ProcessFeedbacks(ctx, []recommend.Feedback{{TermID: term, Positive: true}})
		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.Empty(t, store.saved)
	})

	t.Run("StoreFailureKeepsAdaptedThresholds", func(t *testing.T) {
		boom := errors.New("backend down")
		store := &fakeThresholdStore{err: boom}
		sg, _, _ := newTestSuggester(t, WithThresholdStore(store))

		changed, err := sg.ProcessFeedbacks(ctx, []recommend.Feedback{{TermID: term, Positive: true}})
		assert.ErrorIs(t, err, boom)
		require.Len(t, changed, 1)
		assert.InDelta(t, 1.02, sg.Threshold(term), 1e-9)
	})
}

func TestSuggester_Snapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.snap")

	sg, _, _ := newTestSuggester(t, WithCapacity(8))
	a, b := uuid.New(), uuid.New()
	require.NoError(t, sg.SetFingerprint(ctx, a, core.Fingerprint{1, 2}))
	require.NoError(t, sg.SetFingerprint(ctx, b, core.Fingerprint{3, 4}))

	require.NoError(t, sg.SaveToFile(ctx, path))

	catalog := &fakeCatalog{disabled: map[core.TermID]bool{}, frozen: map[core.TermID]bool{}}
	assignments := &fakeAssignments{}
	restored, err := NewSuggesterFromFile(path, catalog, assignments)
	require.NoError(t, err)

	stats := restored.Stats()
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 8, stats.Capacity)
	assert.Equal(t, 2, stats.Dimension)

	fp, err := restored.GetFingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, core.Fingerprint{3, 4}, fp)

	// The loaded filename becomes the checkpoint target.
	require.NoError(t, restored.SetFingerprint(ctx, uuid.New(), core.Fingerprint{5, 6}))
	require.NoError(t, restored.Checkpoint(ctx))

	again, err := NewSuggesterFromFile(path, catalog, assignments)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Stats().Indexed)
}

func TestSuggester_CheckpointWithoutPath(t *testing.T) {
	sg, _, _ := newTestSuggester(t)
	assert.Error(t, sg.Checkpoint(context.Background()))
}

func TestSuggester_Metrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	sg, _, _ := newTestSuggester(t, WithMetricsCollector(metrics))

	id := uuid.New()
	require.NoError(t, sg.SetFingerprint(ctx, id, core.Fingerprint{1, 0}))
	_, err := sg.TopK(ctx, []core.AttributeID{id}, 1)
	require.NoError(t, err)
	require.Error(t, sg.DeleteFingerprint(ctx, uuid.New()))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SetCount)
	assert.Equal(t, int64(0), stats.SetErrors)
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.Equal(t, int64(1), stats.DeleteErrors)
}
