package node

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a chunk id or relationship target does not
// exist in the store.
var ErrNotFound = errors.New("chunk not found")

// Store is the read-only document-store contract consumed by the pipeline.
// Implementations must not be mutated by any pipeline stage.
type Store interface {
	// GetChunk returns the chunk with the given id, or ErrNotFound.
	GetChunk(ctx context.Context, id string) (Chunk, error)

	// Resolve follows a relationship edge of the given kind from the chunk.
	// It returns ErrNotFound when the chunk carries no such edge or the
	// target id is absent from the store.
	Resolve(ctx context.Context, chunk Chunk, kind RelKind) (Chunk, error)
}

// Ensure MemoryStore implements the interface.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory chunk store keyed by id. Insertion order is
// preserved so it can back exhaustive, index-ordered retrieval.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
	order  []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]Chunk)}
}

// Add stores chunks in the given order. A chunk with an already known id
// replaces the previous entry without changing its position.
func (s *MemoryStore) Add(chunks ...Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if _, ok := s.chunks[c.ID]; !ok {
			s.order = append(s.order, c.ID)
		}
		s.chunks[c.ID] = c
	}
}

// GetChunk retrieves a chunk by id.
func (s *MemoryStore) GetChunk(_ context.Context, id string) (Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return Chunk{}, ErrNotFound
	}
	return c, nil
}

// Resolve follows a relationship edge through the store.
func (s *MemoryStore) Resolve(_ context.Context, chunk Chunk, kind RelKind) (Chunk, error) {
	ref, ok := chunk.Related(kind)
	if !ok {
		return Chunk{}, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[ref.ID]
	if !ok {
		return Chunk{}, ErrNotFound
	}
	return c, nil
}

// All returns every stored chunk in insertion order.
func (s *MemoryStore) All(_ context.Context) []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chunk, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chunks[id])
	}
	return out
}

// Len reports the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
