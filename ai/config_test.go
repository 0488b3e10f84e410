package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, EncoderOpenAI, cfg.Encoder)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.EmbeddingModel)
	assert.Equal(t, 384, cfg.Dimension)
	assert.Equal(t, "none", cfg.Token)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultEmbeddingHost, cfg.EmbeddingHost)
		assert.Equal(t, DefaultDimension, cfg.Dimension)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEncoder(EncoderHashing),
			WithEmbeddingHost("http://tei:8080"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithToken("secret"),
			WithDimension(1536),
		)

		assert.Equal(t, EncoderHashing, cfg.Encoder)
		assert.Equal(t, "http://tei:8080", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "secret", cfg.Token)
		assert.Equal(t, 1536, cfg.Dimension)
		assert.Equal(t, ModelInfo{Name: "text-embedding-3-small", Dimension: 1536}, cfg.Model())
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, Encoder: " OpenAI "}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, EncoderOpenAI, cfg.Encoder)
			assert.Equal(t, "none", cfg.Token)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Encoder:        EncoderOpenAI,
			EmbeddingHost:  "http://localhost:8080",
			EmbeddingModel: "BAAI/bge-small-en-v1.5",
			Dimension:      384,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingHost = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingHost")
	})

	t.Run("hashing needs no host", func(t *testing.T) {
		cfg := valid()
		cfg.Encoder = EncoderHashing
		cfg.EmbeddingHost = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown encoder", func(t *testing.T) {
		cfg := valid()
		cfg.Encoder = "word2vec"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "word2vec")
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingModel = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})

	t.Run("dimension not positive", func(t *testing.T) {
		cfg := valid()
		cfg.Dimension = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Dimension")
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())
}
