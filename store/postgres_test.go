package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragline/node"
)

func strPtr(s string) *string { return &s }

func TestBuildRelationships(t *testing.T) {
	rels := buildRelationships(strPtr("p"), strPtr("n"), nil)
	require.Len(t, rels, 2)
	assert.Equal(t, node.Ref{ID: "p"}, rels[node.RelPrevious])
	assert.Equal(t, node.Ref{ID: "n"}, rels[node.RelNext])

	rels = buildRelationships(nil, nil, strPtr("parent"))
	require.Len(t, rels, 1)
	assert.Equal(t, node.Ref{ID: "parent"}, rels[node.RelParent])

	// Empty strings count as absent, same as NULL columns.
	assert.Nil(t, buildRelationships(strPtr(""), nil, strPtr("")))
	assert.Nil(t, buildRelationships(nil, nil, nil))
}
