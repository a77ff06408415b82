package rag

import (
	"context"
	"fmt"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/types"
	"github.com/documind/documind/pkg/processor"
)

type IngestStats struct {
	Elements int
	Chunks   int
}

// Ingestor runs the ingestion pipeline: load, normalize and chunk,
// ensure the index schema matches the embedding dimension, then embed
// and upsert in batches.
type Ingestor struct {
	loader    types.Loader
	processor *processor.Processor
	embedder  types.Embedder
	index     types.VectorIndex

	// OnChunk, when set, is called once per chunk as chunking
	// completes, before embedding starts. Callers use it to drive
	// progress reporting.
	OnChunk func(models.Chunk)
}

func NewIngestor(loader types.Loader, proc *processor.Processor, embedder types.Embedder, index types.VectorIndex) *Ingestor {
	return &Ingestor{
		loader:    loader,
		processor: proc,
		embedder:  embedder,
		index:     index,
	}
}

func (ing *Ingestor) Ingest(ctx context.Context) (IngestStats, error) {
	var stats IngestStats

	elements, err := ing.loader.Load()
	if err != nil {
		return stats, fmt.Errorf("failed to load documents: %w", err)
	}
	stats.Elements = len(elements)
	if len(elements) == 0 {
		return stats, nil
	}

	chunks, err := ing.processor.Process(elements)
	if err != nil {
		return stats, fmt.Errorf("failed to chunk documents: %w", err)
	}
	stats.Chunks = len(chunks)

	if ing.OnChunk != nil {
		for _, chunk := range chunks {
			ing.OnChunk(chunk)
		}
	}

	if err := ing.index.EnsureSchema(ctx, ing.embedder.Dimension()); err != nil {
		return stats, fmt.Errorf("failed to prepare index: %w", err)
	}

	if err := ing.index.Upsert(ctx, chunks, ing.embedder); err != nil {
		return stats, fmt.Errorf("failed to upsert chunks: %w", err)
	}

	return stats, nil
}
