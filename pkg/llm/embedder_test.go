package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/documind/documind/pkg/llm"
)

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     "all-minilm",
		BaseURL:   "http://localhost:11434",
		Dimension: 384,
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.Equal(t, 384, emb.Dimension())
}

func TestNewEmbedderDefaults(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
	require.NoError(t, err)
	assert.Equal(t, 384, emb.Dimension())
}
