package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/pkg/config"
	"github.com/documind/documind/pkg/llm"
	"github.com/documind/documind/pkg/rag"
	"github.com/documind/documind/pkg/store"
)

func main() {
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
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

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	engine, index, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	color.Cyan("\n--- DocuMind CLI ---")
	color.Cyan("Ask questions about your documents (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	// History is owned here: the pipeline only reads it, the loop
	// appends the new turns after each successful answer.
	var history []models.ChatTurn

	for {
		userPrompt("\nQuery: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if strings.ToLower(question) == "exit" {
			break
		}
		if question == "" {
			continue
		}

		fmt.Println("\nThinking...")

		answer, err := engine.Ask(context.Background(), question, history)
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("\nAnswer:\n%s\n", answer)

		history = append(history,
			models.ChatTurn{Role: models.RoleHuman, Content: question},
			models.ChatTurn{Role: models.RoleAssistant, Content: answer},
		)
	}

	return nil
}

func buildEngine(cfg *config.Config) (*rag.Engine, *store.VectorIndex, error) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     cfg.LLM.EmbeddingModel,
		BaseURL:   cfg.LLM.BaseURL,
		Dimension: cfg.Index.Dimension,
	})
	if err != nil {
		return nil, nil, err
	}

	index, err := store.NewWithConfig(store.VectorIndexConfig{
		ConnString:  cfg.Index.URL,
		Schema:      cfg.Index.Schema,
		TableName:   cfg.Index.Name,
		BatchSize:   cfg.Index.BatchSize,
		PollTimeout: time.Duration(cfg.Index.PollTimeoutS) * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		BaseURL:   cfg.LLM.BaseURL,
	})
	if err != nil {
		index.Close()
		return nil, nil, err
	}

	rewriter, err := llm.NewRewriterWithConfig(llm.ChatConfig{
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		index.Close()
		return nil, nil, err
	}

	engine := rag.NewEngine(rag.EngineConfig{
		TopK:      cfg.Retrieval.TopK,
		Threshold: cfg.Retrieval.Threshold,
	}, rewriter, embedder, index, chatEngine)

	return engine, index, nil
}
