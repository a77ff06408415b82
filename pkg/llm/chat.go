package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/documind/documind/internal/models"
)

// systemTemplate is the behavioral contract for answer generation. The
// model is instructed, not verified: citation and refusal compliance is
// best-effort.
const systemTemplate = `You are DocuMind, a strictly context-aware assistant.

RULES:
1. Answer the user's question LITERALLY based ONLY on the provided context below.
2. If the answer is not in the context, say EXACTLY: "I don't know. This information is outside my provided documents."
3. DO NOT use your own outside knowledge.
4. Cite your sources. Every claim must have a reference.
   Format: (Source: [filename], Page: [number])

CONTEXT:
%s`

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model     string
	MaxTokens int
	BaseURL   string // Ollama server URL
}

// ChatEngine renders the citation-requiring prompt from gated context
// and invokes the language model once, at temperature 0.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "llama3"
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

// NewWithModel wraps an existing language model. Useful for sharing a
// client with the rewriter and for substituting fakes in tests.
func NewWithModel(config ChatConfig, model llms.Model) *ChatEngine {
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	return &ChatEngine{config: config, llm: model}
}

// Answer generates a response from the gated context records, the prior
// conversation turns and the current question. The model output is
// returned unmodified.
func (ce *ChatEngine) Answer(ctx context.Context, question string, matches []models.SearchMatch, history []models.ChatTurn) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemTemplate, formatContext(matches))),
	}
	content = append(content, historyContent(history)...)
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, question))

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(0),
		llms.WithMaxTokens(ce.config.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content, nil
}

// formatContext renders one record per match with its source filename,
// page number and stored text, separated by delimiter lines.
func formatContext(matches []models.SearchMatch) string {
	var b strings.Builder
	for _, match := range matches {
		b.WriteString(fmt.Sprintf("---\nSource: %s\nPage: %s\nContent: %s\n",
			metaString(match.Metadata, "source", "Unknown"),
			metaString(match.Metadata, "page_number", "N/A"),
			metaString(match.Metadata, "text", "")))
	}
	return b.String()
}

func metaString(metadata map[string]interface{}, key, fallback string) string {
	value, ok := metadata[key]
	if !ok || value == nil {
		return fallback
	}
	return fmt.Sprintf("%v", value)
}

func historyContent(history []models.ChatTurn) []llms.MessageContent {
	var content []llms.MessageContent
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, turn.Content))
	}
	return content
}
