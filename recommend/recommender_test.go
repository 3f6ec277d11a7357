package recommend

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subashy6/matchkit/core"
)

// fakeAssignments is a test double for the externally maintained term
// assignment history.
type fakeAssignments struct {
	assigned map[core.AttributeID][]core.TermID
	rejected map[core.AttributeID][]core.TermID
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{
		assigned: make(map[core.AttributeID][]core.TermID),
		rejected: make(map[core.AttributeID][]core.TermID),
	}
}

func (a *fakeAssignments) AssignedTerms(id core.AttributeID) []core.TermID { return a.assigned[id] }

func (a *fakeAssignments) RejectedTerms(id core.AttributeID) []core.TermID { return a.rejected[id] }

func TestRecommender(t *testing.T) {
	term := uuid.New()
	attr := uuid.New()

	t.Run("SuggestsAssignedTermWithinThreshold", func(t *testing.T) {
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{{AttributeID: attr, Distance: 0.5}})

		require.Len(t, got, 1)
		assert.Equal(t, term, got[0].TermID)
		// assigned_distance = 0.5; confidence = 0.1 + 0.9*(1-0.5) = 0.55
		assert.InDelta(t, 0.55, got[0].Confidence, 1e-9)
	})

	t.Run("NeighborBeyondThresholdDoesNotQualify", func(t *testing.T) {
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{{AttributeID: attr, Distance: 1.5}})
		assert.Empty(t, got)
	})

	t.Run("RejectionCloserThanAssignmentBlocks", func(t *testing.T) {
		other := uuid.New()
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}
		assignments.rejected[other] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{
			{AttributeID: attr, Distance: 0.4},
			{AttributeID: other, Distance: 0.2},
		})
		assert.Empty(t, got)
	})

	t.Run("TieBetweenRejectionAndAssignmentSuggests", func(t *testing.T) {
		other := uuid.New()
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}
		assignments.rejected[other] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{
			{AttributeID: attr, Distance: 0.4},
			{AttributeID: other, Distance: 0.4},
		})

		require.Len(t, got, 1)
		// Zero margin to the rejection: confidence sits at the floor.
		assert.InDelta(t, 0.1, got[0].Confidence, 1e-9)
	})

	t.Run("RejectionFartherThanAssignmentSuggests", func(t *testing.T) {
		other := uuid.New()
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}
		assignments.rejected[other] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{
			{AttributeID: attr, Distance: 0.2},
			{AttributeID: other, Distance: 0.8},
		})

		require.Len(t, got, 1)
		// fromThreshold = 0.8, fromRejection = 1 - 0.2/0.8 = 0.75
		assert.InDelta(t, 0.1+0.9*0.75, got[0].Confidence, 1e-9)
	})

	t.Run("DisabledTermExcluded", func(t *testing.T) {
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}
		catalog := newFakeCatalog()
		catalog.disabled[term] = true

		r := NewRecommender(assignments, catalog, NewThresholds())
		got := r.Recommend(core.Neighbors{{AttributeID: attr, Distance: 0.1}})
		assert.Empty(t, got)
	})

	t.Run("MeanAcrossQualifyingNeighbors", func(t *testing.T) {
		a2 := uuid.New()
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}
		assignments.assigned[a2] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{
			{AttributeID: attr, Distance: 0.2},
			{AttributeID: a2, Distance: 0.6},
		})

		require.Len(t, got, 1)
		// assigned_distance = (0.2+0.6)/2 = 0.4
		assert.InDelta(t, 0.1+0.9*0.6, got[0].Confidence, 1e-9)
	})

	t.Run("PerTermThresholdFallsBackToDefault", func(t *testing.T) {
		tuned := uuid.New()
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term, tuned}

		th := NewThresholds()
		th.Set(tuned, 0.3) // tighter than the 1.0 default

		r := NewRecommender(assignments, newFakeCatalog(), th)
		got := r.Recommend(core.Neighbors{{AttributeID: attr, Distance: 0.5}})

		// Only the default-threshold term qualifies at distance 0.5.
		require.Len(t, got, 1)
		assert.Equal(t, term, got[0].TermID)
	})

	t.Run("RankedByConfidence", func(t *testing.T) {
		near, far := uuid.New(), uuid.New()
		termNear, termFar := uuid.New(), uuid.New()
		assignments := newFakeAssignments()
		assignments.assigned[near] = []core.TermID{termNear}
		assignments.assigned[far] = []core.TermID{termFar}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.Recommend(core.Neighbors{
			{AttributeID: far, Distance: 0.9},
			{AttributeID: near, Distance: 0.1},
		})

		require.Len(t, got, 2)
		assert.Equal(t, termNear, got[0].TermID)
		assert.Greater(t, got[0].Confidence, got[1].Confidence)
	})

	t.Run("BatchRecommendOrderPreserving", func(t *testing.T) {
		assignments := newFakeAssignments()
		assignments.assigned[attr] = []core.TermID{term}

		r := NewRecommender(assignments, newFakeCatalog(), NewThresholds())
		got := r.BatchRecommend([]core.Neighbors{
			nil,
			{{AttributeID: attr, Distance: 0.5}},
			{},
		})

		require.Len(t, got, 3)
		assert.Empty(t, got[0])
		require.Len(t, got[1], 1)
		assert.Equal(t, term, got[1][0].TermID)
		assert.Empty(t, got[2])
	})
}
