package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyNode struct{ id, name string }

func (d *dummyNode) ID() string      { return d.id }
func (d *dummyNode) Name() string    { return d.name }
func (d *dummyNode) Version() string { return "1.0" }
func (d *dummyNode) Execute(ctx context.Context, input NodeInput) (NodeOutput, error) {
	return NodeOutput{Data: input.Data}, nil
}
func (d *dummyNode) Validate(input NodeInput) error { return nil }
func (d *dummyNode) InputSchema() Schema            { return Schema{} }
func (d *dummyNode) OutputSchema() Schema           { return Schema{} }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&dummyNode{id: "n1", name: "classify"}))

	got, ok := r.GetByID("n1")
	require.True(t, ok)
	assert.Equal(t, "n1", got.ID())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&dummyNode{id: "n1", name: "classify"}))
	assert.Error(t, r.Register(&dummyNode{id: "n1", name: "other"}))
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&dummyNode{id: "", name: "anon"}))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&dummyNode{id: "n1", name: "classify"}))
	require.NoError(t, r.Register(&dummyNode{id: "n2", name: "classify"}))

	removed, ok := r.Remove("n1")
	require.True(t, ok)
	assert.Equal(t, "n1", removed.ID())
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.ListByName("classify"), 1)

	_, ok = r.Remove("n1")
	assert.False(t, ok)

	// Freed id can be reused
	assert.NoError(t, r.Register(&dummyNode{id: "n1", name: "classify"}))
}
