package embed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{
			name:     "unit vector remains unchanged",
			input:    []float32{1.0, 0.0, 0.0},
			expected: []float32{1.0, 0.0, 0.0},
		},
		{
			name:     "scale non-unit vector",
			input:    []float32{3.0, 4.0},
			expected: []float32{0.6, 0.8},
		},
		{
			name:     "negative values",
			input:    []float32{-1.0, 1.0},
			expected: []float32{-1.0 / float32(math.Sqrt(2)), 1.0 / float32(math.Sqrt(2))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			require.Equal(t, len(tt.expected), len(result))

			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
			}
			assert.InDelta(t, 1.0, magnitude(result), 1e-6)
		})
	}
}

func TestNormalizeVector_DoesNotMutateInput(t *testing.T) {
	input := []float32{3, 4}
	_ = NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	result := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, result)
	assert.True(t, IsZero(result))
}

func TestNormalizeVector_EmptyVector(t *testing.T) {
	assert.Empty(t, NormalizeVector([]float32{}))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(nil))
	assert.False(t, IsZero([]float32{0, 1e-9}))
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
