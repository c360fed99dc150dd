package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParserSections(t *testing.T) {
	src := []byte(`# System Guide

Intro paragraph.

## Setup

Install the binary.

Run the migrations.

## Usage

Ask a question.
`)

	parsed, err := markdownParser{}.Parse(context.Background(), DocumentPayload{Path: "docs/guide.md", Data: src})
	require.NoError(t, err)
	assert.Equal(t, "System Guide", parsed.Title)

	require.Len(t, parsed.Sections, 3)
	assert.Equal(t, "System Guide", parsed.Sections[0].Title)
	assert.Equal(t, 1, parsed.Sections[0].Level)
	assert.Equal(t, "Intro paragraph.", parsed.Sections[0].Text)

	assert.Equal(t, "Setup", parsed.Sections[1].Title)
	assert.Equal(t, 2, parsed.Sections[1].Level)
	assert.Contains(t, parsed.Sections[1].Text, "Install the binary.")
	assert.Contains(t, parsed.Sections[1].Text, "Run the migrations.")

	assert.Equal(t, "Usage", parsed.Sections[2].Title)
}

func TestMarkdownParserTitleFallsBackToFilename(t *testing.T) {
	src := []byte("Just a paragraph without headings.\n")

	parsed, err := markdownParser{}.Parse(context.Background(), DocumentPayload{Path: "notes/scratch.md", Data: src})
	require.NoError(t, err)
	assert.Equal(t, "scratch", parsed.Title)
	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, "Just a paragraph without headings.", parsed.Sections[0].Text)
}

func TestTextParser(t *testing.T) {
	src := []byte("Release Notes\r\n\r\nFixed the thing.   \n")

	parsed, err := textParser{}.Parse(context.Background(), DocumentPayload{Path: "notes.txt", Data: src})
	require.NoError(t, err)
	assert.Equal(t, "Release Notes", parsed.Title)
	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, "Release Notes\n\nFixed the thing.", parsed.Sections[0].Text)
}

func TestTextParserEmptyFallsBackToFilename(t *testing.T) {
	parsed, err := textParser{}.Parse(context.Background(), DocumentPayload{Path: "dir/empty.txt", Data: nil})
	require.NoError(t, err)
	assert.Equal(t, "empty", parsed.Title)
}

func TestParserForUnknownFormat(t *testing.T) {
	_, err := ParserFor(FormatUnknown)
	assert.Error(t, err)
}
