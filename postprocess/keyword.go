package postprocess

import (
	"context"
	"strings"

	"ragline/node"
)

// KeywordFilter drops chunks that miss a required keyword or contain an
// excluded one. Matching is a case-insensitive substring test.
type KeywordFilter struct {
	Required []string
	Excluded []string
}

func (f *KeywordFilter) Process(_ context.Context, _ Query, chunks []node.ScoredChunk) ([]node.ScoredChunk, error) {
	required := normalizeKeywords(f.Required)
	excluded := normalizeKeywords(f.Excluded)
	if len(required) == 0 && len(excluded) == 0 {
		return chunks, nil
	}

	filtered := make([]node.ScoredChunk, 0, len(chunks))
	for _, sc := range chunks {
		text := strings.ToLower(sc.Chunk.Text)
		if !containsAll(text, required) {
			continue
		}
		if containsAny(text, excluded) {
			continue
		}
		filtered = append(filtered, sc)
	}
	return filtered, nil
}

func normalizeKeywords(keywords []string) []string {
	result := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		trimmed := strings.ToLower(strings.TrimSpace(kw))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var _ Processor = (*KeywordFilter)(nil)
