package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/pkg/config"
	"github.com/documind/documind/pkg/extractor"
	"github.com/documind/documind/pkg/llm"
	"github.com/documind/documind/pkg/processor"
	"github.com/documind/documind/pkg/rag"
	"github.com/documind/documind/pkg/store"
)

func main() {
	var configPath string
	var dataDir string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&dataDir, "data", "data", "Directory of PDF files to ingest")
	flag.Parse()

	// Optional .env file, matching the deployment convention
	godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config error: %v", e)
		}
		log.Fatal("invalid configuration")
	}

	if err := run(cfg, dataDir); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, dataDir string) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     cfg.LLM.EmbeddingModel,
		BaseURL:   cfg.LLM.BaseURL,
		Dimension: cfg.Index.Dimension,
	})
	if err != nil {
		return err
	}

	index, err := store.NewWithConfig(store.VectorIndexConfig{
		ConnString:  cfg.Index.URL,
		Schema:      cfg.Index.Schema,
		TableName:   cfg.Index.Name,
		BatchSize:   cfg.Index.BatchSize,
		PollTimeout: time.Duration(cfg.Index.PollTimeoutS) * time.Second,
	})
	if err != nil {
		return err
	}
	defer index.Close()

	proc, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Processor.ChunkSize,
		ChunkOverlap: cfg.Processor.ChunkOverlap,
	})
	if err != nil {
		return err
	}

	ingestor := rag.NewIngestor(extractor.NewLoader(dataDir), &proc, embedder, index)

	color.Blue("\nStarting ingestion pipeline for %s\n", dataDir)
	bar := getSpinner("Loading, chunking and upserting documents...")
	ingestor.OnChunk = func(chunk models.Chunk) {
		bar.Describe(color.CyanString("Chunked %s (%s)", chunk.Source, chunk.ChunkID))
		bar.Add(1)
	}

	stats, err := ingestor.Ingest(context.Background())
	bar.Finish()
	if err != nil {
		return err
	}

	if stats.Elements == 0 {
		color.Yellow("No documents found. Please add PDFs to the %s folder.\n", dataDir)
		return nil
	}

	color.Green("\n✓ Loaded %d raw document elements\n", stats.Elements)
	color.Green("✓ Upserted %d chunks\n", stats.Chunks)
	color.Green("Ingestion pipeline complete.\n")

	return nil
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
