package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"ragline/node"
)

// Document groups the chunks of one ingested source file for graph sync.
type Document struct {
	ID     string
	Path   string
	Title  string
	SHA    string
	Chunks []node.Chunk
}

// Neo4jGraphStore mirrors chunk topology into a property graph: one node per
// chunk, NEXT edges between consecutive chunks and PARENT edges where a
// parent reference exists. It implements node.Store so relationship
// resolution can be served from the graph instead of the relational store.
type Neo4jGraphStore struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jGraphStore(driver neo4j.DriverWithContext) *Neo4jGraphStore {
	return &Neo4jGraphStore{driver: driver}
}

// SyncDocument replaces the graph representation of one document.
func (s *Neo4jGraphStore) SyncDocument(ctx context.Context, doc Document) error {
	if s.driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (d:Document {id: $id})
			SET d.path = $path,
			    d.title = $title,
			    d.sha256 = $sha,
			    d.updated_at = datetime()
		`, map[string]any{"id": doc.ID, "path": doc.Path, "title": doc.Title, "sha": doc.SHA}); err != nil {
			return nil, fmt.Errorf("upsert document node: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (d:Document {id: $id})-[:HAS_CHUNK]->(c:Chunk)
			DETACH DELETE c
		`, map[string]any{"id": doc.ID}); err != nil {
			return nil, fmt.Errorf("clear existing chunk nodes: %w", err)
		}

		for _, chunk := range doc.Chunks {
			if _, err := tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})
				MERGE (c:Chunk {id: $chunk_id})
				SET c.index = $chunk_index,
				    c.document_id = $doc_id,
				    c.text = $chunk_text
				MERGE (d)-[:HAS_CHUNK {order: $chunk_index}]->(c)
			`, map[string]any{
				"doc_id":      doc.ID,
				"chunk_id":    chunk.ID,
				"chunk_index": chunk.Index,
				"chunk_text":  chunk.Text,
			}); err != nil {
				return nil, fmt.Errorf("upsert chunk node: %w", err)
			}
		}

		for _, chunk := range doc.Chunks {
			if next, ok := chunk.Related(node.RelNext); ok {
				if _, err := tx.Run(ctx, `
					MATCH (a:Chunk {id: $from}), (b:Chunk {id: $to})
					MERGE (a)-[:NEXT]->(b)
				`, map[string]any{"from": chunk.ID, "to": next.ID}); err != nil {
					return nil, fmt.Errorf("link next chunk: %w", err)
				}
			}
			if parent, ok := chunk.Related(node.RelParent); ok {
				if _, err := tx.Run(ctx, `
					MATCH (a:Chunk {id: $from}), (b:Chunk {id: $to})
					MERGE (a)-[:PARENT]->(b)
				`, map[string]any{"from": chunk.ID, "to": parent.ID}); err != nil {
					return nil, fmt.Errorf("link parent chunk: %w", err)
				}
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("sync document graph: %w", err)
	}

	return nil
}

// GetChunk retrieves a chunk node by id.
func (s *Neo4jGraphStore) GetChunk(ctx context.Context, id string) (node.Chunk, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (c:Chunk {id: $id})
		OPTIONAL MATCH (c)-[:NEXT]->(next:Chunk)
		OPTIONAL MATCH (prev:Chunk)-[:NEXT]->(c)
		OPTIONAL MATCH (c)-[:PARENT]->(parent:Chunk)
		RETURN c.id AS id, c.document_id AS documentId, c.index AS idx, c.text AS text,
		       next.id AS nextId, prev.id AS prevId, parent.id AS parentId
	`, map[string]any{"id": id})
	if err != nil {
		return node.Chunk{}, fmt.Errorf("run chunk query: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return node.Chunk{}, node.ErrNotFound
	}
	return recordToChunk(record), nil
}

// Resolve follows a relationship edge in the graph.
func (s *Neo4jGraphStore) Resolve(ctx context.Context, chunk node.Chunk, kind node.RelKind) (node.Chunk, error) {
	pattern, ok := edgePatterns[kind]
	if !ok {
		return node.Chunk{}, node.ErrNotFound
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, fmt.Sprintf(`
		MATCH (c:Chunk {id: $id})
		MATCH %s
		OPTIONAL MATCH (t)-[:NEXT]->(next:Chunk)
		OPTIONAL MATCH (prev:Chunk)-[:NEXT]->(t)
		OPTIONAL MATCH (t)-[:PARENT]->(parent:Chunk)
		RETURN t.id AS id, t.document_id AS documentId, t.index AS idx, t.text AS text,
		       next.id AS nextId, prev.id AS prevId, parent.id AS parentId
		ORDER BY t.index
		LIMIT 1
	`, pattern), map[string]any{"id": chunk.ID})
	if err != nil {
		return node.Chunk{}, fmt.Errorf("run relationship query: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return node.Chunk{}, node.ErrNotFound
	}
	return recordToChunk(record), nil
}

var edgePatterns = map[node.RelKind]string{
	node.RelNext:     "(c)-[:NEXT]->(t:Chunk)",
	node.RelPrevious: "(t:Chunk)-[:NEXT]->(c)",
	node.RelParent:   "(c)-[:PARENT]->(t:Chunk)",
	node.RelChild:    "(t:Chunk)-[:PARENT]->(c)",
}

func recordToChunk(record *neo4j.Record) node.Chunk {
	chunk := node.Chunk{}
	if v, ok := record.Get("id"); ok {
		chunk.ID, _ = v.(string)
	}
	if v, ok := record.Get("documentId"); ok {
		chunk.DocumentID, _ = v.(string)
	}
	if v, ok := record.Get("idx"); ok {
		switch idx := v.(type) {
		case int64:
			chunk.Index = int(idx)
		case int32:
			chunk.Index = int(idx)
		}
	}
	if v, ok := record.Get("text"); ok {
		chunk.Text, _ = v.(string)
	}

	rels := make(map[node.RelKind]node.Ref)
	for key, kind := range map[string]node.RelKind{
		"prevId":   node.RelPrevious,
		"nextId":   node.RelNext,
		"parentId": node.RelParent,
	} {
		if v, ok := record.Get(key); ok {
			if id, ok := v.(string); ok && id != "" {
				rels[kind] = node.Ref{ID: id}
			}
		}
	}
	if len(rels) > 0 {
		chunk.Relationships = rels
	}
	return chunk
}

var _ node.Store = (*Neo4jGraphStore)(nil)
