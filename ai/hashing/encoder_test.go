package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/poiesic/jobvec/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestEncoder_UnitLengthAndDimension(t *testing.T) {
	enc, err := NewEncoder(384)
	require.NoError(t, err)

	for _, text := range []string{"Senior Go Developer", "x", "!!!", "Design APIs Write tests"} {
		v, err := enc.EmbedText(context.Background(), text)
		require.NoError(t, err)
		assert.Len(t, v, 384)
		assert.InDelta(t, 1.0, norm(v), 1e-5, text)
	}
}

func TestEncoder_Deterministic(t *testing.T) {
	enc, err := NewEncoder(64)
	require.NoError(t, err)

	a, err := enc.EmbedText(context.Background(), "Data Engineer")
	require.NoError(t, err)
	b, err := enc.EmbedText(context.Background(), "Data Engineer")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Case and punctuation do not change the features
	c, err := enc.EmbedText(context.Background(), "data-engineer")
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestEncoder_SimilarTextsCloser(t *testing.T) {
	enc, err := NewEncoder(384)
	require.NoError(t, err)

	vs, err := enc.EmbedTexts(context.Background(), []string{
		"senior go developer",
		"go developer",
		"pastry chef",
	})
	require.NoError(t, err)
	require.Len(t, vs, 3)

	assert.Greater(t, dot(vs[0], vs[1]), dot(vs[0], vs[2]))
}

func TestEncoder_CancelledContext(t *testing.T) {
	enc, err := NewEncoder(8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = enc.EmbedTexts(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEncoder_InvalidDimension(t *testing.T) {
	_, err := NewEncoder(0)
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c", "go", "k8s"}, Tokenize("C++, Go & K8s"))
	assert.Empty(t, Tokenize(" -- "))
}

func TestProvider(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithEncoder(ai.EncoderHashing), ai.WithDimension(32)))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, ai.ModelInfo{Name: ModelName, Dimension: 32}, p.Model())
	v, err := p.Embedder().EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 32)
}
