package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/pkg/llm"
)

func TestRewrite_NoOpForEmptyHistory(t *testing.T) {
	// A nil model proves the short-circuit: any model call would panic.
	rewriter := llm.NewRewriter(nil)

	for _, q := range []string{"what is chunking?", "", "  spaced  "} {
		out, err := rewriter.Rewrite(context.Background(), q, nil)
		require.NoError(t, err)
		assert.Equal(t, q, out)
	}
}

func TestRewrite_SingleCallWithHistory(t *testing.T) {
	model := &fakeModel{response: "  pgvector index rebuild procedure \n"}
	rewriter := llm.NewRewriter(model)

	history := []models.ChatTurn{
		{Role: models.RoleHuman, Content: "how does the index get created?"},
		{Role: models.RoleAssistant, Content: "it is created with cosine similarity"},
	}

	out, err := rewriter.Rewrite(context.Background(), "and when it changes?", history)
	require.NoError(t, err)

	assert.Equal(t, "pgvector index rebuild procedure", out, "output is trimmed, not validated")
	assert.Equal(t, 1, model.calls)

	// History first, then the question, then the rewrite instruction.
	require.Len(t, model.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[1].Role)
	assert.Equal(t, "and when it changes?", textOf(model.messages[2]))
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[3].Role)
}

func TestRewrite_EmptyResponsePassedThrough(t *testing.T) {
	model := &fakeModel{response: ""}
	rewriter := llm.NewRewriter(model)

	history := []models.ChatTurn{{Role: models.RoleHuman, Content: "hi"}}

	out, err := rewriter.Rewrite(context.Background(), "q", history)
	require.NoError(t, err)
	assert.Equal(t, "", out, "an empty rewrite becomes the literal query text")
}
