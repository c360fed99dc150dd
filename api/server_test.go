package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/config"
	"ragline/engine"
	"ragline/node"
	"ragline/postprocess"
	"ragline/retriever"
	"ragline/synthesis"
)

type fixedLLM struct{}

func (fixedLLM) EstimateSize(text string) int {
	return len(strings.Fields(text))
}

func (fixedLLM) Complete(context.Context, string, int) (string, error) {
	return "the answer", nil
}

func quietLogger() *log.Logger {
	return log.New(&strings.Builder{}, "", 0)
}

func testServer(t *testing.T, chain postprocess.Chain) *Server {
	t.Helper()

	store := node.NewMemoryStore()
	store.Add(
		node.Chunk{ID: "c1", DocumentID: "d1", Index: 0, Text: "first chunk", Metadata: map[string]string{"title": "Doc"}},
		node.Chunk{ID: "c2", DocumentID: "d1", Index: 1, Text: "second chunk", Metadata: map[string]string{"title": "Doc"}},
	)

	synth, err := synthesis.New(fixedLLM{}, synthesis.Config{Strategy: synthesis.StrategyCompact, PromptBudget: 2000}, quietLogger())
	require.NoError(t, err)

	eng, err := engine.New(retriever.NewListRetriever(store), chain, synth, quietLogger())
	require.NoError(t, err)

	return NewServer(eng, nil, quietLogger(), config.Config{})
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestQueryEndpoint(t *testing.T) {
	srv := testServer(t, nil)

	body := strings.NewReader(`{"question":"what is in the corpus"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the answer", resp.Answer)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "c1", resp.Sources[0].ID)
	assert.Equal(t, "d1", resp.Sources[0].DocumentID)
	assert.Equal(t, "first chunk", resp.Sources[0].Snippet)
	assert.Equal(t, "compact", resp.Metadata["strategy"])
}

func TestQueryEndpointRejectsInvalidJSON(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEndpointRejectsEmptyQuestion(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question":"  "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEndpointMapsUnsupportedProcessorTo422(t *testing.T) {
	// List retrieval carries no similarity scores, so a cutoff processor is a
	// pipeline misconfiguration rather than a server fault.
	chain := postprocess.Chain{&postprocess.SimilarityCutoff{Cutoff: 0.5}}
	srv := testServer(t, chain)

	body := strings.NewReader(`{"question":"anything"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", body))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, engine.StagePostprocess, resp.Stage)
}

func TestIngestEndpointUnavailableWithoutIngestor(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
