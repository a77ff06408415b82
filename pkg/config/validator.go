package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration before any pipeline runs. A non-empty
// result is fatal at startup; there is no partial execution with a bad config.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.Index.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "index.url",
			Message: "vector store connection string is required (DATABASE_URL)",
		})
	} else if _, err := url.Parse(c.Index.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "index.url",
			Message: "invalid vector store URL",
		})
	}

	if c.Index.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "index.name",
			Message: "index name is required (DOCUMIND_INDEX_NAME)",
		})
	}

	if c.Index.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.dimension",
			Message: "dimension must be positive",
		})
	}

	if c.Index.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	// Overlapping windows only make sense when the window is strictly
	// larger than the overlap.
	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Retrieval.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.threshold",
			Message: "threshold must be between 0 and 1",
		})
	}

	return errors
}
