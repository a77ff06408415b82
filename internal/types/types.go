package types

import (
	"context"

	"github.com/documind/documind/internal/models"
)

// Core interfaces

// Extractor turns a single PDF file into page-level text elements.
type Extractor interface {
	Extract(path string) ([]models.Element, error)
}

// Loader produces the raw elements of an ingestion run, typically by
// extracting every PDF in a directory.
type Loader interface {
	Load() ([]models.Element, error)
}

// Embedder maps text to fixed-dimension vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorIndex owns the vector store: schema lifecycle, batched upsert
// and top-k cosine similarity search.
type VectorIndex interface {
	EnsureSchema(ctx context.Context, expectedDim int) error
	Upsert(ctx context.Context, chunks []models.Chunk, embedder Embedder) error
	Query(ctx context.Context, vector []float32, topK int) ([]models.SearchMatch, error)
	Close()
}

// Rewriter produces a standalone search query from a question plus
// conversation history.
type Rewriter interface {
	Rewrite(ctx context.Context, question string, history []models.ChatTurn) (string, error)
}

// Generator renders the citation-constrained prompt and invokes the
// language model once.
type Generator interface {
	Answer(ctx context.Context, question string, matches []models.SearchMatch, history []models.ChatTurn) (string, error)
}
