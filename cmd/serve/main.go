package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/documind/documind/pkg/config"
	"github.com/documind/documind/pkg/llm"
	"github.com/documind/documind/pkg/rag"
	"github.com/documind/documind/pkg/store"
	"github.com/documind/documind/server"
)

func main() {
	var configPath string
	var addr string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&addr, "addr", ":8080", "Listen address")
	flag.Parse()

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

	if err := run(cfg, addr); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, addr string) error {
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

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		BaseURL:   cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	rewriter, err := llm.NewRewriterWithConfig(llm.ChatConfig{
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	engine := rag.NewEngine(rag.EngineConfig{
		TopK:      cfg.Retrieval.TopK,
		Threshold: cfg.Retrieval.Threshold,
	}, rewriter, embedder, index, chatEngine)

	return server.NewWSServer(engine).ListenAndServe(context.Background(), addr)
}
