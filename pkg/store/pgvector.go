package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/types"
)

type VectorIndexConfig struct {
	ConnString   string
	Schema       string
	TableName    string
	BatchSize    int
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// VectorIndex owns a pgvector-backed table: schema lifecycle with a
// destructive rebuild on dimension mismatch, batched embed-and-upsert,
// and top-k cosine similarity search.
type VectorIndex struct {
	config  VectorIndexConfig
	pool    *pgxpool.Pool
	catalog catalog
}

func NewWithConfig(config VectorIndexConfig) (*VectorIndex, error) {
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = 2 * time.Minute
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &VectorIndex{
		config:  config,
		pool:    pool,
		catalog: &pgCatalog{pool: pool, schema: config.Schema, table: config.TableName},
	}, nil
}

// EnsureSchema makes the index match the embedding model's dimension.
// An existing table with a different dimension is dropped and recreated;
// everything previously stored is discarded. The operation is idempotent:
// when the table already has the expected dimension it issues no create
// or drop calls.
func (v *VectorIndex) EnsureSchema(ctx context.Context, expectedDim int) error {
	dim, exists, err := v.catalog.describe(ctx)
	if err != nil {
		return fmt.Errorf("failed to describe index: %w", err)
	}

	if exists && dim != expectedDim {
		log.Printf("dimension mismatch (found %d, need %d), rebuilding index %s",
			dim, expectedDim, v.config.TableName)
		if err := v.catalog.drop(ctx); err != nil {
			return fmt.Errorf("failed to delete index: %w", err)
		}
		if err := v.waitFor(ctx, "index deletion", func(ctx context.Context) (bool, error) {
			_, stillThere, err := v.catalog.describe(ctx)
			return !stillThere, err
		}); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		if err := v.catalog.create(ctx, expectedDim); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		if err := v.waitFor(ctx, "index readiness", v.catalog.ready); err != nil {
			return err
		}
	}

	return nil
}

func (v *VectorIndex) waitFor(ctx context.Context, what string, cond func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(v.config.PollTimeout)
	for {
		ok, err := cond(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for %s: %w", what, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s", what)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(v.config.PollInterval):
		}
	}
}

// Upsert embeds and stores chunks in batches to bound request size. A
// failing batch aborts the run; batches already committed are not rolled
// back, so a partially ingested corpus is recovered by re-running
// ingestion (ids are deterministic, re-ingestion overwrites in place).
func (v *VectorIndex) Upsert(ctx context.Context, chunks []models.Chunk, embedder types.Embedder) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, page_number, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		v.qualifiedTable())

	for start := 0; start < len(chunks); start += v.config.BatchSize {
		end := start + v.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}

		tx, err := v.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		for i, chunk := range batch {
			_, err = tx.Exec(ctx, stmt,
				VectorID(chunk),
				chunk.Source,
				chunk.PageNumber,
				chunk.Text,
				pgvector.NewVector(embeddings[i]),
				SanitizeMetadata(chunk),
			)
			if err != nil {
				tx.Rollback(ctx)
				return fmt.Errorf("failed to upsert batch %d-%d: %w", start, end, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// Query returns up to topK matches ordered by descending cosine
// similarity, each carrying its stored metadata.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.SearchMatch, error) {
	query := fmt.Sprintf(`
		SELECT metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		v.qualifiedTable())

	rows, err := v.pool.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var matches []models.SearchMatch
	for rows.Next() {
		var match models.SearchMatch
		if err := rows.Scan(&match.Metadata, &match.Score); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	return matches, nil
}

func (v *VectorIndex) Close() {
	if v.pool != nil {
		v.pool.Close()
	}
}

func (v *VectorIndex) qualifiedTable() string {
	return pgx.Identifier{v.config.Schema, v.config.TableName}.Sanitize()
}

// VectorID is a content-addressed fingerprint of (source, position,
// normalized text). Stable across runs and processes, so re-ingestion of
// the same corpus is idempotent.
func VectorID(chunk models.Chunk) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", chunk.Source, chunk.StartOffset, chunk.Text)
	return hex.EncodeToString(h.Sum(nil))
}

// SanitizeMetadata keeps only string, int, float, bool and string-list
// values from the chunk metadata and guarantees the mandatory source,
// page_number, text and chunk_id keys. Anything else, such as nested
// structures, is dropped silently.
func SanitizeMetadata(chunk models.Chunk) map[string]interface{} {
	clean := make(map[string]interface{}, len(chunk.Metadata)+4)
	for key, value := range chunk.Metadata {
		if v, ok := sanitizeValue(value); ok {
			clean[key] = v
		}
	}

	clean["source"] = chunk.Source
	clean["page_number"] = chunk.PageNumber
	clean["text"] = chunk.Text
	clean["chunk_id"] = chunk.ChunkID

	return clean
}

func sanitizeValue(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return v, true
	case []string:
		return v, true
	case []interface{}:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			strs = append(strs, s)
		}
		return strs, true
	default:
		return nil, false
	}
}

// catalog is the control-plane boundary of the store: describe, create,
// delete and readiness. Kept narrow so schema handling is testable
// without a database.
type catalog interface {
	describe(ctx context.Context) (dimension int, exists bool, err error)
	create(ctx context.Context, dimension int) error
	drop(ctx context.Context) error
	ready(ctx context.Context) (bool, error)
}

type pgCatalog struct {
	pool   *pgxpool.Pool
	schema string
	table  string
}

func (c *pgCatalog) describe(ctx context.Context) (int, bool, error) {
	// pgvector records the declared dimension in atttypmod.
	var dim int
	err := c.pool.QueryRow(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		JOIN pg_class cl ON a.attrelid = cl.oid
		JOIN pg_namespace n ON cl.relnamespace = n.oid
		WHERE n.nspname = $1 AND cl.relname = $2 AND a.attname = 'embedding'`,
		c.schema, c.table).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return dim, true, nil
}

func (c *pgCatalog) create(ctx context.Context, dimension int) error {
	if _, err := c.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	table := pgx.Identifier{c.schema, c.table}.Sanitize()
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			page_number INTEGER NOT NULL DEFAULT 1,
			content TEXT,
			embedding vector(%d),
			metadata JSONB
		)`, table, dimension)

	if _, err := c.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		pgx.Identifier{c.indexName()}.Sanitize(), table)

	if _, err := c.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create similarity index: %w", err)
	}

	return nil
}

func (c *pgCatalog) drop(ctx context.Context) error {
	_, err := c.pool.Exec(ctx,
		fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{c.schema, c.table}.Sanitize()))
	return err
}

func (c *pgCatalog) ready(ctx context.Context) (bool, error) {
	var valid bool
	err := c.pool.QueryRow(ctx, `
		SELECT i.indisvalid
		FROM pg_index i
		JOIN pg_class cl ON i.indexrelid = cl.oid
		JOIN pg_namespace n ON cl.relnamespace = n.oid
		WHERE n.nspname = $1 AND cl.relname = $2`,
		c.schema, c.indexName()).Scan(&valid)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return valid, nil
}

func (c *pgCatalog) indexName() string {
	return c.table + "_embedding_idx"
}
