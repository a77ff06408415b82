package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/types"
)

// RefusalSentence is the exact text returned when no retrieved content
// clears the confidence threshold. The generation prompt instructs the
// model to use the same sentence for in-context refusals.
const RefusalSentence = "I don't know. This information is outside my provided documents."

const refusalAnnotation = " (No relevant matches found above confidence threshold)"

type EngineConfig struct {
	TopK int

	// Threshold is the minimum similarity score a match needs to reach
	// the generator. Zero and negative values select the default 0.50;
	// to disable gating entirely, pass a small positive value instead.
	Threshold float64
}

// Engine drives the query pipeline: rewrite, retrieve, gate, then
// either refuse or generate. No stage is retried; collaborator errors
// propagate to the caller.
type Engine struct {
	config    EngineConfig
	rewriter  types.Rewriter
	embedder  types.Embedder
	index     types.VectorIndex
	generator types.Generator
}

func NewEngine(config EngineConfig, rewriter types.Rewriter, embedder types.Embedder, index types.VectorIndex, generator types.Generator) *Engine {
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.Threshold <= 0 {
		config.Threshold = 0.50
	}

	return &Engine{
		config:    config,
		rewriter:  rewriter,
		embedder:  embedder,
		index:     index,
		generator: generator,
	}
}

// Ask answers a question strictly from indexed content. History is read
// but never mutated; appending the new turns after a successful answer
// is the caller's responsibility.
func (e *Engine) Ask(ctx context.Context, question string, history []models.ChatTurn) (string, error) {
	searchQuery, err := e.rewriter.Rewrite(ctx, question, history)
	if err != nil {
		return "", fmt.Errorf("query rewrite failed: %w", err)
	}
	if searchQuery != question {
		log.Printf("rewritten query: %s", searchQuery)
	}

	vector, err := e.embedder.EmbedQuery(ctx, searchQuery)
	if err != nil {
		return "", fmt.Errorf("query embedding failed: %w", err)
	}

	matches, err := e.index.Query(ctx, vector, e.config.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	gated := Gate(matches, e.config.Threshold)
	if len(gated) == 0 {
		return RefusalSentence + refusalAnnotation, nil
	}

	answer, err := e.generator.Answer(ctx, question, gated, history)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return answer, nil
}
