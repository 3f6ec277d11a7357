package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Run("SquaredL2", func(t *testing.T) {
		a := []float32{1.0, 2.0, 3.0}
		b := []float32{4.0, 6.0, 3.0}

		assert.Equal(t, float32(25.0), SquaredL2(a, b))
		assert.Equal(t, float32(0.0), SquaredL2(a, a))
	})

	t.Run("L2", func(t *testing.T) {
		a := []float32{0.0, 0.0}
		b := []float32{3.0, 4.0}

		assert.Equal(t, float32(5.0), L2(a, b))
	})

	t.Run("Dot", func(t *testing.T) {
		a := []float32{1.0, 2.0, 3.0}
		b := []float32{4.0, 5.0, 6.0}

		assert.Equal(t, float32(32.0), Dot(a, b))
	})
}
