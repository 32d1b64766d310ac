package diagram

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/schemagraph/internal/schema"
)

// Test Plan for Diagram:
// - Every model becomes a node in model order
// - Refs to models in the collection become edges with "<model>-<field>-<ref>" IDs
// - Refs to unknown models are not drawn but listed as unresolved
// - Several fields referencing the same model keep one edge each in Edges
// - Related lists both directions, sorted, excluding self references
// - DOT output is a directed graph with the model names and edges
// - Empty input yields an empty, renderable diagram

func sampleModels() []schema.Model {
	return []schema.Model{
		{Name: "User", FilePath: "models/user.js", Fields: []schema.Field{
			{Name: "name", Type: schema.TypeString, Required: true},
			{Name: "manager", Type: schema.TypeObjectID, Ref: "User"},
		}},
		{Name: "Post", FilePath: "models/post.js", Fields: []schema.Field{
			{Name: "author", Type: schema.TypeObjectID, Ref: "User"},
			{Name: "editors", Type: schema.TypeObjectID, IsArray: true, Ref: "User"},
			{Name: "category", Type: schema.TypeObjectID, Ref: "Category"},
		}},
		{Name: "Tag", FilePath: "models/tag.js", Fields: []schema.Field{
			{Name: "label", Type: schema.TypeString},
		}},
	}
}

func TestBuild_NodesAndEdges(t *testing.T) {
	t.Parallel()

	d := Build(sampleModels())

	require.Len(t, d.Nodes, 3)
	assert.Equal(t, "User", d.Nodes[0].ID)
	assert.Equal(t, "models/post.js", d.Nodes[1].FilePath)

	assert.Equal(t, []Edge{
		{ID: "User-manager-User", Source: "User", Target: "User", Field: "manager"},
		{ID: "Post-author-User", Source: "Post", Target: "User", Field: "author"},
		{ID: "Post-editors-User", Source: "Post", Target: "User", Field: "editors", IsArray: true},
	}, d.Edges)

	assert.Equal(t, []UnresolvedRef{{Model: "Post", Field: "category", Ref: "Category"}}, d.Unresolved)
}

func TestDiagram_Related(t *testing.T) {
	t.Parallel()

	d := Build(sampleModels())

	assert.Equal(t, []string{"Post"}, d.Related("User"))
	assert.Equal(t, []string{"User"}, d.Related("Post"))
	assert.Empty(t, d.Related("Tag"))
	assert.Nil(t, d.Related("Missing"))
}

func TestDiagram_Node(t *testing.T) {
	t.Parallel()

	d := Build(sampleModels())

	n, ok := d.Node("Tag")
	require.True(t, ok)
	assert.Len(t, n.Fields, 1)

	_, ok = d.Node("Nope")
	assert.False(t, ok)
}

func TestDiagram_DOT(t *testing.T) {
	t.Parallel()

	d := Build(sampleModels())

	var buf bytes.Buffer
	require.NoError(t, d.DOT(&buf))
	out := buf.String()

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, `"Post" -> "User"`)
	assert.Contains(t, out, "author, editors[]")
	assert.Contains(t, out, "rankdir")
	assert.NotContains(t, out, `-> "Category"`)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	d := Build(nil)
	assert.Empty(t, d.Nodes)
	assert.NotNil(t, d.Edges)
	assert.Empty(t, d.Unresolved)

	var buf bytes.Buffer
	assert.NoError(t, d.DOT(&buf))
}

func TestFieldSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "name: String*", fieldSummary(schema.Field{Name: "name", Type: schema.TypeString, Required: true}))
	assert.Equal(t, "tags: ObjectId[] -> Tag", fieldSummary(schema.Field{Name: "tags", Type: schema.TypeObjectID, IsArray: true, Ref: "Tag"}))
	assert.Equal(t, `a\|b`, escapeRecord("a|b"))
}
