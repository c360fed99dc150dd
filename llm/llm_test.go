package llm

import (
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/config"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 3, EstimateTokens("three short words")) // 3 * 1.33 = 3.99
	assert.Equal(t, 133, EstimateTokens(words(100)))
}

func words(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, 'w', ' ')
	}
	return string(out)
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ProviderError{Provider: "ollama", Transient: true, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ollama")

	var provErr *ProviderError
	require.ErrorAs(t, error(err), &provErr)
	assert.True(t, provErr.Transient)
}

func TestIsTransientOpenAI(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"auth failure", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"connection failure", &openai.RequestError{HTTPStatusCode: 0, Err: errors.New("dial tcp")}, true},
		{"request server error", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("unavailable")}, true},
		{"plain error", errors.New("something else"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.transient, isTransientOpenAI(tc.err))
		})
	}
}

func TestNewClientProviderSelection(t *testing.T) {
	cfg := config.Config{OllamaHost: "http://localhost:11434"}
	cfg.LLM.Provider = config.ProviderOllama
	cfg.LLM.Model = "llama3"

	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)

	cfg.LLM.Provider = config.ProviderOpenAI
	_, err = NewClient(cfg)
	assert.Error(t, err) // no API key

	cfg.LLM.Provider = "anthropic"
	_, err = NewClient(cfg)
	assert.Error(t, err)
}
