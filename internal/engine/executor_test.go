package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e "github.com/ridgeline-labs/termflow/internal/edge"
	n "github.com/ridgeline-labs/termflow/internal/node"
)

type echoNode struct{ id string }

func (eN *echoNode) ID() string                    { return eN.id }
func (eN *echoNode) Name() string                  { return "echo" }
func (eN *echoNode) Version() string               { return "1.0" }
func (eN *echoNode) Validate(in n.NodeInput) error { return nil }
func (eN *echoNode) InputSchema() n.Schema         { return n.Schema{} }
func (eN *echoNode) OutputSchema() n.Schema        { return n.Schema{} }
func (eN *echoNode) Execute(ctx context.Context, in n.NodeInput) (n.NodeOutput, error) {
	return n.NodeOutput{Data: in.Data}, nil
}

func TestExecutor_SequentialPropagation(t *testing.T) {
	ex, err := NewExecutorBuilder().
		WithNode(&echoNode{id: "A"}).
		WithNode(&echoNode{id: "B"}).
		WithEdge(e.NewDirect("A", "B")).
		Build()
	require.NoError(t, err)

	res, err := ex.Execute(context.Background(), map[string]n.NodeInput{
		"A": {Data: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Outputs["B"].Data.(int))
}

func TestExecutorBuilder_DuplicateNode(t *testing.T) {
	_, err := NewExecutorBuilder().
		WithNode(&echoNode{id: "A"}).
		WithNode(&echoNode{id: "A"}).
		Build()
	assert.Error(t, err)
}
