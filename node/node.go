// Package node defines the retrievable chunk entity shared by every pipeline
// stage, together with the document-store contract used to resolve
// relationships between chunks.
package node

// RelKind names a relationship edge between two chunks.
type RelKind string

const (
	RelPrevious RelKind = "previous"
	RelNext     RelKind = "next"
	RelParent   RelKind = "parent"
	RelChild    RelKind = "child"
)

// Ref is a weak, id-based reference to another chunk. Relationships are
// always resolved through a Store lookup, never held as direct pointers, so
// mutually linked chunks (previous/next) are unproblematic.
type Ref struct {
	ID       string
	Metadata map[string]string
}

// Chunk is an immutable unit of retrievable text. The id is stable and
// unique within a store; edits must produce a new Chunk under a new id.
type Chunk struct {
	ID            string
	DocumentID    string
	Index         int
	Text          string
	Metadata      map[string]string
	Relationships map[RelKind]Ref
}

// Related returns the reference for the given relationship kind, if present.
func (c Chunk) Related(kind RelKind) (Ref, bool) {
	ref, ok := c.Relationships[kind]
	return ref, ok
}

// ScoredChunk pairs a chunk with a retriever-assigned relevance score.
// Scores are comparable only within a single retriever invocation.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Chunks strips scores, preserving order.
func Chunks(scored []ScoredChunk) []Chunk {
	out := make([]Chunk, len(scored))
	for i, sc := range scored {
		out[i] = sc.Chunk
	}
	return out
}
