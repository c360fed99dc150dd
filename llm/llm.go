package llm

import (
	"context"
	"fmt"
	"strings"

	"ragline/config"
)

// Sizer estimates the prompt size of a text in the same unit the provider
// budget is expressed in. The packer and the synthesizer share one Sizer so
// budget arithmetic stays consistent end to end.
type Sizer interface {
	EstimateSize(text string) int
}

// Client is the model-invocation collaborator. Implementations perform the
// network call; they own timeouts but not retries.
type Client interface {
	Sizer

	// Complete sends a single prompt and returns the generated text.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Options struct {
	Provider  string
	Model     string
	MaxTokens int

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// NewClient builds a provider client from configuration.
func NewClient(cfg config.Config) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		MaxTokens:     cfg.LLM.MaxTokens,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not required for budget packing; both provider clients use
// this same heuristic so the unit is shared across the pipeline.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
