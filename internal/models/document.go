package models

// Element is a unit of extracted PDF text with its page provenance.
// Elements are immutable once produced by the extractor.
type Element struct {
	Text       string
	Source     string
	PageNumber int
	Metadata   map[string]interface{}
}

// Chunk is a bounded, overlap-aware slice of normalized element text.
// It is the unit of embedding and storage and is never mutated after
// creation.
type Chunk struct {
	Text        string
	Source      string
	PageNumber  int
	ChunkID     string
	StartOffset int
	Metadata    map[string]interface{}
}

// SearchMatch is one similarity hit returned by the vector index.
// Score is cosine similarity in [0,1]; Metadata carries everything
// stored alongside the vector, including source, page_number and text.
type SearchMatch struct {
	Score    float64
	Metadata map[string]interface{}
}

// Chat roles as stored in conversation history.
const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

// ChatTurn is a single entry in the caller-owned conversation history.
type ChatTurn struct {
	Role    string
	Content string
}
