package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextSplitsOnParagraphs(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	c := strings.Repeat("c", 60)
	content := a + "\n\n" + b + "\n\n" + c

	chunks := ChunkText(content, 130, 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, a+"\n\n"+b, chunks[0])
	assert.Equal(t, c, chunks[1])
}

func TestChunkTextCarriesOverlap(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	c := strings.Repeat("c", 60)
	content := a + "\n\n" + b + "\n\n" + c

	chunks := ChunkText(content, 130, 50)
	require.Len(t, chunks, 2)
	// The previous chunk's last paragraph opens the next chunk.
	assert.Equal(t, b+"\n\n"+c, chunks[1])
}

func TestChunkTextSmallContentIsOneChunk(t *testing.T) {
	chunks := ChunkText("short paragraph", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short paragraph", chunks[0])
}

func TestChunkTextEmptyContent(t *testing.T) {
	assert.Empty(t, ChunkText("", 1000, 200))
	assert.Empty(t, ChunkText("\n\n  \n\n", 1000, 200))
}

func TestChunkTextNormalizesWindowsLineEndings(t *testing.T) {
	chunks := ChunkText("one\r\n\r\ntwo", 1000, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one\n\ntwo", chunks[0])
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatMarkdown, DetectFormat("docs/guide.md"))
	assert.Equal(t, FormatMarkdown, DetectFormat("README.MARKDOWN"))
	assert.Equal(t, FormatPDF, DetectFormat("paper.pdf"))
	assert.Equal(t, FormatText, DetectFormat("notes.txt"))
	assert.Equal(t, FormatUnknown, DetectFormat("image.png"))
	assert.Equal(t, FormatUnknown, DetectFormat("no-extension"))
}
