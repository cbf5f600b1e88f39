package llmnode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/llmnode"
	"github.com/ridgeline-labs/termflow/internal/node"
	"github.com/ridgeline-labs/termflow/internal/promptx"
)

type fakeModel struct {
	lastPrompt string
	response   string
}

func (f *fakeModel) Generate(_ context.Context, messages []llmnode.Message) (string, error) {
	f.lastPrompt = messages[0].Content
	return f.response, nil
}

func testSignature() promptx.Signature {
	return promptx.Signature{
		Name:         "qa",
		Instructions: "Answer the question.",
		InputFields:  []promptx.Field{{Name: "question"}},
		OutputFields: []promptx.Field{{Name: "answer"}},
	}
}

func TestLLMNodeExecuteParsesFirstOutputField(t *testing.T) {
	model := &fakeModel{response: "Answer: 4"}
	n := llmnode.New("n1", "qa-node", "v1", testSignature(), model, nil)

	out, err := n.Execute(context.Background(), node.NodeInput{Data: map[string]any{"question": "2+2"}})
	require.NoError(t, err)

	data := out.Data.(map[string]any)
	assert.Equal(t, "4", data["answer"])
	assert.Contains(t, model.lastPrompt, "Answer the question.")
	assert.Contains(t, model.lastPrompt, "Question:")
}

func TestLLMNodeIncludesDemosInPrompt(t *testing.T) {
	model := &fakeModel{response: "Answer: 6"}
	n := llmnode.New("n1", "qa-node", "v1", testSignature(), model, nil)
	n.SetDemos([]promptx.Example{
		*promptx.NewExample().WithField("question", "1+1").WithField("answer", "2").WithInputs("question"),
	})

	_, err := n.Execute(context.Background(), node.NodeInput{Data: map[string]any{"question": "3+3"}})
	require.NoError(t, err)
	assert.Contains(t, model.lastPrompt, "1+1")
	assert.Contains(t, model.lastPrompt, "2")
}

func TestLLMNodeValidateRejectsMissingInput(t *testing.T) {
	model := &fakeModel{}
	n := llmnode.New("n1", "qa-node", "v1", testSignature(), model, nil)
	err := n.Validate(node.NodeInput{Data: map[string]any{}})
	assert.Error(t, err)
}
