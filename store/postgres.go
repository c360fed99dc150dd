package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"ragline/node"
)

// PostgresChunkStore serves chunk lookups and vector similarity search from
// the rag_chunks table. It implements node.Store for relationship
// resolution.
type PostgresChunkStore struct {
	pool *pgxpool.Pool
}

func NewPostgresChunkStore(pool *pgxpool.Pool) *PostgresChunkStore {
	return &PostgresChunkStore{pool: pool}
}

const chunkColumns = "id, document_id, chunk_index, content, metadata, prev_id, next_id, parent_id"

// SimilarChunks returns the limit nearest chunks to the embedding, scored by
// inverse L2 distance so higher is more relevant.
func (s *PostgresChunkStore) SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]node.ScoredChunk, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := limit * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s, (embedding <-> $1::vector) AS distance
        FROM rag_chunks
        ORDER BY embedding <-> $1::vector, chunk_index
        LIMIT $2
    `, chunkColumns), pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]node.ScoredChunk, 0, limit)
	for rows.Next() {
		chunk, distance, scanErr := scanChunkWithDistance(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		results = append(results, node.ScoredChunk{Chunk: chunk, Score: 1 / (1 + distance)})
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

// GetChunk retrieves a chunk by id.
func (s *PostgresChunkStore) GetChunk(ctx context.Context, id string) (node.Chunk, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM rag_chunks WHERE id = $1", chunkColumns), id)
	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return node.Chunk{}, node.ErrNotFound
		}
		return node.Chunk{}, fmt.Errorf("query chunk: %w", err)
	}
	return chunk, nil
}

// Resolve follows a relationship edge via the chunk's stored references.
func (s *PostgresChunkStore) Resolve(ctx context.Context, chunk node.Chunk, kind node.RelKind) (node.Chunk, error) {
	ref, ok := chunk.Related(kind)
	if !ok {
		return node.Chunk{}, node.ErrNotFound
	}
	return s.GetChunk(ctx, ref.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (node.Chunk, error) {
	var (
		chunk    node.Chunk
		metadata map[string]string
		prevID   *string
		nextID   *string
		parentID *string
	)
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Text, &metadata, &prevID, &nextID, &parentID); err != nil {
		return node.Chunk{}, err
	}
	chunk.Metadata = metadata
	chunk.Relationships = buildRelationships(prevID, nextID, parentID)
	return chunk, nil
}

func scanChunkWithDistance(row rowScanner) (node.Chunk, float64, error) {
	var (
		chunk    node.Chunk
		metadata map[string]string
		prevID   *string
		nextID   *string
		parentID *string
		distance float64
	)
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Text, &metadata, &prevID, &nextID, &parentID, &distance); err != nil {
		return node.Chunk{}, 0, err
	}
	chunk.Metadata = metadata
	chunk.Relationships = buildRelationships(prevID, nextID, parentID)
	return chunk, distance, nil
}

func buildRelationships(prevID, nextID, parentID *string) map[node.RelKind]node.Ref {
	rels := make(map[node.RelKind]node.Ref)
	if prevID != nil && *prevID != "" {
		rels[node.RelPrevious] = node.Ref{ID: *prevID}
	}
	if nextID != nil && *nextID != "" {
		rels[node.RelNext] = node.Ref{ID: *nextID}
	}
	if parentID != nil && *parentID != "" {
		rels[node.RelParent] = node.Ref{ID: *parentID}
	}
	if len(rels) == 0 {
		return nil
	}
	return rels
}

var _ node.Store = (*PostgresChunkStore)(nil)
