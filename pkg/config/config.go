package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		EmbeddingModel string `yaml:"embedding_model"`
		MaxTokens      int    `yaml:"max_tokens"`
	} `yaml:"llm"`

	Index struct {
		URL          string `yaml:"url"`
		Name         string `yaml:"name"`
		Schema       string `yaml:"schema"`
		Dimension    int    `yaml:"dimension"`
		BatchSize    int    `yaml:"batch_size"`
		PollTimeoutS int    `yaml:"poll_timeout_seconds"`
	} `yaml:"index"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`

	Retrieval struct {
		TopK      int     `yaml:"top_k"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"retrieval"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/documind/config.yaml"),
			"/etc/documind/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "llama3"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "all-minilm"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Index.Schema == "" {
		config.Index.Schema = "public"
	}
	if config.Index.Dimension == 0 {
		config.Index.Dimension = 384 // all-minilm output dimension
	}
	if config.Index.BatchSize == 0 {
		config.Index.BatchSize = 100
	}
	if config.Index.PollTimeoutS == 0 {
		config.Index.PollTimeoutS = 120
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 5
	}
	// An explicit threshold: 0.0 in the file is indistinguishable from
	// an absent key, so it also gets the default. Use a small positive
	// value to effectively turn gating off.
	if config.Retrieval.Threshold == 0 {
		config.Retrieval.Threshold = 0.50
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.URL = dbURL
	}
	if name := os.Getenv("DOCUMIND_INDEX_NAME"); name != "" {
		config.Index.Name = name
	}
	if schema := os.Getenv("DOCUMIND_SCHEMA"); schema != "" {
		config.Index.Schema = schema
	}
}
