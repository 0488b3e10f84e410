package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/jobvec/ai"
	"github.com/poiesic/jobvec/ai/mock"
	"github.com/poiesic/jobvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestEmbedder(t *testing.T, m *mock.MockEmbedder) *SectionEmbedder {
	t.Helper()
	se, err := NewSectionEmbedder(m, ai.ModelInfo{Name: mock.MockModelName, Dimension: m.Dimension})
	require.NoError(t, err)
	t.Cleanup(se.Release)
	return se
}

func fullJob() core.JobData {
	return core.JobData{
		Title: strPtr("Senior Dev"),
		Sections: core.JobSections{
			RequiredSkills:   []string{"Go", "Rust"},
			Responsibilities: []string{"Design APIs", "Write tests"},
			Qualifications:   []string{"BSc"},
			Description:      strPtr("Build things."),
		},
	}
}

func TestNewSectionEmbedder_RequiresEncoder(t *testing.T) {
	_, err := NewSectionEmbedder(nil, ai.ModelInfo{})
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestEmbed_AllSections(t *testing.T) {
	m := mock.NewMockEmbedder().WithDimension(8)
	se := newTestEmbedder(t, m)

	bundle, err := se.Embed(context.Background(), fullJob())
	require.NoError(t, err)

	assert.Equal(t, "Senior Dev", *bundle.Title.Text)
	assert.Equal(t, "Go, Rust", *bundle.RequiredSkills.Text)
	assert.Equal(t, "Design APIs Write tests", *bundle.Responsibilities.Text)
	assert.Equal(t, "BSc", *bundle.Qualifications.Text)
	assert.Equal(t, "Build things.", *bundle.Description.Text)

	for _, name := range core.Sections {
		s := bundle.Section(name)
		require.Len(t, s.Vector, 8, name)
		assert.InDelta(t, 1.0, magnitude(s.Vector), 1e-5, name)
	}

	// One batched call for the whole job
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, []string{"Senior Dev", "Go, Rust", "Design APIs Write tests", "BSc", "Build things."}, m.Texts())
}

func TestEmbed_EmptyJobMakesNoEncoderCall(t *testing.T) {
	m := mock.NewMockEmbedder()
	se := newTestEmbedder(t, m)

	bundle, err := se.Embed(context.Background(), core.JobData{})
	require.NoError(t, err)

	for _, name := range core.Sections {
		s := bundle.Section(name)
		assert.Nil(t, s.Text, name)
		assert.Nil(t, s.Vector, name)
	}
	assert.Zero(t, m.CallCount())

	meta := Classify(bundle, se.Model())
	assert.False(t, meta.EmbeddingReady)
	assert.Equal(t, []string{}, meta.SectionsEmbedded)
}

func TestEmbed_PartialSections(t *testing.T) {
	m := mock.NewMockEmbedder().WithDimension(4)
	se := newTestEmbedder(t, m)

	job := core.JobData{Sections: core.JobSections{Qualifications: []string{"PhD"}}}
	bundle, err := se.Embed(context.Background(), job)
	require.NoError(t, err)

	assert.Nil(t, bundle.Title.Vector)
	assert.NotNil(t, bundle.Qualifications.Vector)

	meta := Classify(bundle, se.Model())
	assert.Equal(t, []string{"qualifications"}, meta.SectionsEmbedded)
	assert.True(t, meta.EmbeddingReady)
}

func TestEmbed_Deterministic(t *testing.T) {
	se := newTestEmbedder(t, mock.NewMockEmbedder().WithDimension(16))

	a, err := se.Embed(context.Background(), fullJob())
	require.NoError(t, err)
	b, err := se.Embed(context.Background(), fullJob())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEmbed_NormalizesEncoderOutput(t *testing.T) {
	m := mock.NewMockEmbedder().WithDimension(2).
		WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{3, 4}
			}
			return out, nil
		})
	se := newTestEmbedder(t, m)

	bundle, err := se.Embed(context.Background(), core.JobData{Title: strPtr("Dev")})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, bundle.Title.Vector, 1e-6)
}

func TestEmbed_EncoderFailure(t *testing.T) {
	boom := errors.New("model not loaded")
	m := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	})
	se := newTestEmbedder(t, m)

	_, err := se.Embed(context.Background(), fullJob())
	assert.ErrorIs(t, err, core.ErrEncodingFailure)
	assert.ErrorIs(t, err, boom)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	m := mock.NewMockEmbedder().WithDimension(8)
	se, err := NewSectionEmbedder(m, ai.ModelInfo{Name: "x", Dimension: 384})
	require.NoError(t, err)
	defer se.Release()

	_, err = se.Embed(context.Background(), fullJob())
	assert.ErrorIs(t, err, core.ErrEncodingFailure)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbed_ZeroVector(t *testing.T) {
	m := mock.NewMockEmbedder().WithDimension(3).
		WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{0, 0, 0}}, nil
		})
	se := newTestEmbedder(t, m)

	_, err := se.Embed(context.Background(), core.JobData{Title: strPtr("Dev")})
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestEmbed_VectorCountMismatch(t *testing.T) {
	m := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, nil
	})
	se := newTestEmbedder(t, m)

	_, err := se.Embed(context.Background(), fullJob())
	assert.ErrorIs(t, err, core.ErrEncodingFailure)
}

func TestEmbed_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	m := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return nil, ctx.Err()
	})
	se := newTestEmbedder(t, m)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := se.Embed(ctx, fullJob())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithPoolSize(t *testing.T) {
	se, err := NewSectionEmbedder(mock.NewMockEmbedder(), ai.ModelInfo{}, WithPoolSize(0), WithLogger(nil))
	require.NoError(t, err)
	defer se.Release()

	assert.Equal(t, 1, se.pool.Cap())
}

func TestSectionText(t *testing.T) {
	job := core.JobData{
		Title: strPtr("   "),
		Sections: core.JobSections{
			RequiredSkills:   []string{"Python", "SQL"},
			Responsibilities: []string{},
		},
	}

	assert.Nil(t, SectionText(job, core.SectionTitle))
	assert.Equal(t, "Python, SQL", *SectionText(job, core.SectionRequiredSkills))
	assert.Nil(t, SectionText(job, core.SectionResponsibilities))
	assert.Nil(t, SectionText(job, core.SectionDescription))
	assert.Nil(t, SectionText(job, core.SectionName("salary")))
}
