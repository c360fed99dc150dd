package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"ragline/embeddings"
	"ragline/node"
	"ragline/store"
)

type Service struct {
	pool      *pgxpool.Pool
	graph     *store.Neo4jGraphStore
	embedder  embeddings.Embedder
	logger    *log.Logger
	dimension int

	chunkSize    int
	chunkOverlap int
}

func NewService(pool *pgxpool.Pool, graph *store.Neo4jGraphStore, embedder embeddings.Embedder, logger *log.Logger, dimension int) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		pool:         pool,
		graph:        graph,
		embedder:     embedder,
		logger:       logger,
		dimension:    dimension,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}
}

// IngestDirectory walks dir and ingests every supported document. A failure
// on one file is logged and does not stop the walk.
func (s *Service) IngestDirectory(ctx context.Context, dir string) error {
	if s.embedder == nil {
		return fmt.Errorf("embedder not configured")
	}
	if err := store.EnsureSchema(ctx, s.pool, s.dimension); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}

	entries := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) != FormatUnknown {
			entries = append(entries, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk data directory: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Printf("no supported documents found in %s", dir)
		return nil
	}

	for _, path := range entries {
		if err := s.IngestFile(ctx, dir, path); err != nil {
			s.logger.Printf("ingest failed for %s: %v", path, err)
		}
	}

	return nil
}

// IngestFile parses one document, links its chunks and writes them to both
// stores. Unchanged documents (same content hash) are skipped.
func (s *Service) IngestFile(ctx context.Context, root, path string) (err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	relPath, relErr := filepath.Rel(root, path)
	if relErr != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	parser, err := ParserFor(DetectFormat(path))
	if err != nil {
		return err
	}

	parsed, err := parser.Parse(ctx, DocumentPayload{Path: relPath, Data: data})
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	hash := sha256.Sum256(data)
	hashHex := hex.EncodeToString(hash[:])

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Printf("rollback error: %v", rbErr)
			}
		}
	}()

	docID, changed, err := upsertDocument(ctx, tx, relPath, parsed.Title, hashHex)
	if err != nil {
		return err
	}
	if !changed {
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return fmt.Errorf("commit transaction: %w", commitErr)
		}
		s.logger.Printf("no updates required for %s", relPath)
		return nil
	}

	chunks := BuildChunks(docID.String(), relPath, parsed, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return fmt.Errorf("commit transaction: %w", commitErr)
		}
		s.logger.Printf("skip empty document %s", path)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(vectors))
	}

	if _, err = tx.Exec(ctx, "DELETE FROM rag_chunks WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("clear existing chunks: %w", err)
	}

	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rag_chunks (id, document_id, chunk_index, content, metadata, prev_id, next_id, parent_id, embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		`, chunk.ID, docID, chunk.Index, chunk.Text, chunk.Metadata,
			relID(chunk, node.RelPrevious), relID(chunk, node.RelNext), relID(chunk, node.RelParent),
			pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}

	if s.graph != nil {
		doc := store.Document{
			ID:     docID.String(),
			Path:   relPath,
			Title:  parsed.Title,
			SHA:    hashHex,
			Chunks: chunks,
		}
		if err := s.graph.SyncDocument(ctx, doc); err != nil {
			return fmt.Errorf("sync chunk graph: %w", err)
		}
	}

	s.logger.Printf("ingested %s (%d chunks)", relPath, len(chunks))
	return nil
}

// BuildChunks assigns ids, sequences the flow chunks with previous/next
// references and, when a section splits into several chunks, adds a parent
// chunk holding the whole section so retrieval can widen context upward.
func BuildChunks(docID, relPath string, parsed *ParsedDocument, target, overlap int) []node.Chunk {
	var flow []node.Chunk
	var parents []node.Chunk

	for _, section := range parsed.Sections {
		parts := ChunkText(section.Text, target, overlap)
		if len(parts) == 0 {
			continue
		}

		metadata := map[string]string{
			"title":       parsed.Title,
			"source_path": relPath,
		}
		if section.Title != "" {
			metadata["section"] = section.Title
		}

		var parentID string
		if len(parts) > 1 {
			parentID = uuid.New().String()
		}

		sectionStart := len(flow)
		for _, part := range parts {
			chunk := node.Chunk{
				ID:         uuid.New().String(),
				DocumentID: docID,
				Text:       part,
				Metadata:   metadata,
			}
			if parentID != "" {
				chunk.Relationships = map[node.RelKind]node.Ref{
					node.RelParent: {ID: parentID},
				}
			}
			flow = append(flow, chunk)
		}

		if parentID != "" {
			parents = append(parents, node.Chunk{
				ID:         parentID,
				DocumentID: docID,
				Text:       section.Text,
				Metadata:   metadata,
				Relationships: map[node.RelKind]node.Ref{
					node.RelChild: {ID: flow[sectionStart].ID},
				},
			})
		}
	}

	// Link the flow sequence. Parent chunks sit outside it.
	for i := range flow {
		if flow[i].Relationships == nil {
			flow[i].Relationships = make(map[node.RelKind]node.Ref)
		}
		if i > 0 {
			flow[i].Relationships[node.RelPrevious] = node.Ref{ID: flow[i-1].ID}
		}
		if i < len(flow)-1 {
			flow[i].Relationships[node.RelNext] = node.Ref{ID: flow[i+1].ID}
		}
	}

	chunks := append(flow, parents...)
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

func relID(chunk node.Chunk, kind node.RelKind) *string {
	if ref, ok := chunk.Related(kind); ok {
		id := ref.ID
		return &id
	}
	return nil
}

func upsertDocument(ctx context.Context, tx pgx.Tx, path, title, sha string) (uuid.UUID, bool, error) {
	var (
		docID        uuid.UUID
		existingHash string
	)

	err := tx.QueryRow(ctx, "SELECT id, sha256 FROM rag_documents WHERE source_path = $1", path).Scan(&docID, &existingHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			newID := uuid.New()
			_, execErr := tx.Exec(ctx, `
				INSERT INTO rag_documents (id, source_path, title, sha256, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
			`, newID, path, title, sha)
			if execErr != nil {
				return uuid.Nil, false, fmt.Errorf("insert document: %w", execErr)
			}
			return newID, true, nil
		}
		return uuid.Nil, false, fmt.Errorf("query document: %w", err)
	}

	if existingHash == sha {
		return docID, false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE rag_documents
		SET title = $2,
		    sha256 = $3,
		    updated_at = NOW()
		WHERE id = $1
	`, docID, title, sha); err != nil {
		return uuid.Nil, false, fmt.Errorf("update document: %w", err)
	}

	return docID, true, nil
}
