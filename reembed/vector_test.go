package reembed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func TestNormalizeVector(t *testing.T) {
	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
		assert.Empty(t, NormalizeVector([]float32{}))
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		result := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, result)
	})

	t.Run("unit vector unchanged", func(t *testing.T) {
		result := NormalizeVector([]float32{1, 0, 0})
		assert.InDelta(t, 1.0, magnitude(result), 1e-6)
		assert.InDelta(t, 1.0, float64(result[0]), 1e-6)
	})

	t.Run("arbitrary vector normalized", func(t *testing.T) {
		result := NormalizeVector([]float32{3, 4})
		require.Len(t, result, 2)
		assert.InDelta(t, 1.0, magnitude(result), 1e-6)
		assert.InDelta(t, 0.6, float64(result[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(result[1]), 1e-6)
	})

	t.Run("input not mutated", func(t *testing.T) {
		input := []float32{3, 4}
		NormalizeVector(input)
		assert.Equal(t, []float32{3, 4}, input)
	})
}
