package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Error reports an invalid configuration value. It is raised before any I/O
// is performed and is never retried.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider  string
	Model     string
	MaxTokens int
}

type Config struct {
	PostgresDSN string
	Neo4jURI    string
	Neo4jUser   string
	Neo4jPass   string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	DataDir      string
	Port         string
	PipelineFile string

	Embeddings EmbeddingsConfig
	LLM        LLMConfig
}

// Load reads configuration from the environment, falling back to local
// development defaults.
func Load() Config {
	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/ragline?sslmode=disable"),
		Neo4jURI:    getEnv("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUser:   getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPass:   getEnv("NEO4J_PASSWORD", "password"),

		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		DataDir:      getEnv("DATA_DIR", "./data"),
		Port:         getEnv("PORT", "8080"),
		PipelineFile: getEnv("PIPELINE_FILE", "pipeline.yaml"),

		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOllama),
			Model:     getEnv("EMBEDDINGS_MODEL", "nomic-embed-text"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 768),
		},
		LLM: LLMConfig{
			Provider:  getEnv("LLM_PROVIDER", ProviderOllama),
			Model:     getEnv("LLM_MODEL", "llama3.1"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1024),
		},
	}
}

// Validate checks provider selections and credentials before any connection
// is attempted.
func (c Config) Validate() error {
	switch c.Embeddings.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return &Error{Field: "EMBEDDINGS_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.Embeddings.Provider)}
	}
	switch c.LLM.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return &Error{Field: "LLM_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.LLM.Provider)}
	}
	if (c.LLM.Provider == ProviderOpenAI || c.Embeddings.Provider == ProviderOpenAI) && c.OpenAIAPIKey == "" {
		return &Error{Field: "OPENAI_API_KEY", Reason: "required when an openai provider is selected"}
	}
	if c.Embeddings.Dimension <= 0 {
		return &Error{Field: "EMBEDDINGS_DIMENSION", Reason: "must be positive"}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
