package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ragline/config"
	"ragline/engine"
	"ragline/ingestion"
	"ragline/node"
	"ragline/postprocess"
)

// Server exposes the query pipeline over HTTP.
type Server struct {
	router   chi.Router
	engine   *engine.Engine
	ingestor *ingestion.Service
	logger   *log.Logger
	cfg      config.Config
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer   string         `json:"answer"`
	Sources  []sourceChunk  `json:"sources"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type sourceChunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"documentId"`
	Snippet    string            `json:"snippet"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type ingestRequest struct {
	Dir string `json:"dir"`
}

// NewServer creates and configures the HTTP server.
func NewServer(eng *engine.Engine, ingestor *ingestion.Service, logger *log.Logger, cfg config.Config) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		engine:   eng,
		ingestor: ingestor,
		logger:   logger,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	r.Post("/api/query", s.handleQuery)
	r.Post("/api/ingest", s.handleIngest)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	resp, err := s.engine.Query(r.Context(), req.Question)
	if err != nil {
		status := http.StatusInternalServerError
		stage := ""
		var qErr *engine.QueryError
		if errors.As(err, &qErr) {
			stage = qErr.Stage
			if qErr.Stage == engine.StageQuery {
				status = http.StatusBadRequest
			}
		}
		var unsupported *postprocess.UnsupportedError
		var cfgErr *config.Error
		if errors.As(err, &unsupported) || errors.As(err, &cfgErr) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Printf("query failed: %v", err)
		writeJSON(w, status, errorResponse{Error: err.Error(), Stage: stage})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:   resp.Text,
		Sources:  toSourceChunks(resp.SourceChunks),
		Metadata: resp.Metadata,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ingestion is not configured"})
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	dir := req.Dir
	if dir == "" {
		dir = s.cfg.DataDir
	}

	if err := s.ingestor.IngestDirectory(r.Context(), dir); err != nil {
		s.logger.Printf("ingest failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "ingestion complete"})
}

func toSourceChunks(chunks []node.Chunk) []sourceChunk {
	sources := make([]sourceChunk, len(chunks))
	for i, c := range chunks {
		snippet := c.Text
		if len(snippet) > 500 {
			snippet = snippet[:500] + "..."
		}
		sources[i] = sourceChunk{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Snippet:    snippet,
			Metadata:   c.Metadata,
		}
	}
	return sources
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
