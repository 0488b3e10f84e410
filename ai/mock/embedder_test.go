package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("Go", 16)
	b := DeterministicVector("Go", 16)
	c := DeterministicVector("Rust", 16)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_RecordsCalls(t *testing.T) {
	m := NewMockEmbedder().WithDimension(4)

	vs, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vs, 2)
	assert.Len(t, vs[0], 4)

	_, err = m.EmbedText(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []string{"a", "b", "c"}, m.Texts())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Empty(t, m.Texts())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	assert.Equal(t, DefaultDimension, p.Model().Dimension)
	assert.Equal(t, MockModelName, p.Model().Name)
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
