package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/documind/documind/internal/models"
)

const rewriteInstruction = "Given the above conversation, generate a search query to look up " +
	"in order to get information relevant to the conversation. Only return the query, no other text."

// Rewriter turns a follow-up question plus conversation history into a
// standalone search query.
type Rewriter struct {
	llm llms.Model
}

// NewRewriter wraps an existing language model. Useful for sharing a
// client with the chat engine and for substituting fakes in tests.
func NewRewriter(model llms.Model) *Rewriter {
	return &Rewriter{llm: model}
}

func NewRewriterWithConfig(config ChatConfig) (*Rewriter, error) {
	if config.Model == "" {
		config.Model = "llama3"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Rewriter{llm: model}, nil
}

// Rewrite returns the question unchanged when there is no history; no
// model call is made in that case. Otherwise it makes exactly one model
// call and returns the trimmed output as-is, with no retry or
// validation — an empty response becomes the literal query text.
func (r *Rewriter) Rewrite(ctx context.Context, question string, history []models.ChatTurn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	content := historyContent(history)
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, question))
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, rewriteInstruction))

	response, err := r.llm.GenerateContent(ctx, content, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("rewrite error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", nil
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
