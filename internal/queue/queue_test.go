package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounded(t *testing.T) {
	t.Run("KeepsNearestUnderCapacity", func(t *testing.T) {
		b := NewBounded(8)
		b.Offer(Candidate{Slot: 1, Distance: 3.0})
		b.Offer(Candidate{Slot: 2, Distance: 1.0})
		b.Offer(Candidate{Slot: 3, Distance: 2.0})

		got := b.Drain()
		require.Len(t, got, 3)
		assert.Equal(t, uint32(2), got[0].Slot)
		assert.Equal(t, uint32(3), got[1].Slot)
		assert.Equal(t, uint32(1), got[2].Slot)
	})

	t.Run("EvictsFarthestAtCapacity", func(t *testing.T) {
		b := NewBounded(2)
		b.Offer(Candidate{Slot: 1, Distance: 5.0})
		b.Offer(Candidate{Slot: 2, Distance: 4.0})
		b.Offer(Candidate{Slot: 3, Distance: 1.0})

		got := b.Drain()
		require.Len(t, got, 2)
		assert.Equal(t, uint32(3), got[0].Slot)
		assert.Equal(t, uint32(2), got[1].Slot)
	})

	t.Run("DrainSortedRandomized", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		b := NewBounded(16)
		for i := 0; i < 1000; i++ {
			b.Offer(Candidate{Slot: uint32(i), Distance: rng.Float32()})
		}

		got := b.Drain()
		require.Len(t, got, 16)
		assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
			return got[i].Distance < got[j].Distance
		}))
		assert.Equal(t, 0, b.Len())
	})
}
