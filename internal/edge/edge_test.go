package edge

import (
	"context"
	n "github.com/ridgeline-labs/termflow/internal/node"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestDirect_Traverse(t *testing.T) {
	d := NewDirect("A", "B")
	ok, in, err := d.Traverse(context.Background(), n.NodeOutput{Data: 42})
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, in.Data.(int))
}

func TestConditional_Traverse(t *testing.T) {
	c := NewConditional("A", "B", func(out n.NodeOutput) (bool, error) { return out.Data.(int) > 10, nil })
	ok, _, _ := c.Traverse(context.Background(), n.NodeOutput{Data: 5})
	assert.False(t, ok)
	ok, _, _ = c.Traverse(context.Background(), n.NodeOutput{Data: 15})
	assert.True(t, ok)
}

func TestConditionExpr(t *testing.T) {
	cond, err := ConditionExpr("score > 0.5")
	assert.NoError(t, err)

	ok, err := cond(n.NodeOutput{Data: map[string]any{"score": 0.9}})
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = cond(n.NodeOutput{Data: map[string]any{"score": 0.1}})
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = ConditionExpr("not a valid ===")
	assert.Error(t, err)
}
