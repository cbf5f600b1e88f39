package promptx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/promptx"
)

func TestExampleRoundTrip(t *testing.T) {
	ex := promptx.NewExample().
		WithField("question", "what is 2+2?").
		WithField("answer", "4").
		WithField("difficulty", int8(1)).
		WithInputs("question")

	data, err := promptx.MarshalExample(ex)
	require.NoError(t, err)

	decoded, err := promptx.UnmarshalExample(data)
	require.NoError(t, err)

	q, ok := decoded.Get("question")
	require.True(t, ok)
	assert.Equal(t, "what is 2+2?", q)
	assert.True(t, decoded.IsInput("question"))
	assert.False(t, decoded.IsInput("answer"))
	assert.Equal(t, map[string]any{"question": "what is 2+2?"}, decoded.Inputs())
}

func TestSignatureRoundTrip(t *testing.T) {
	sig := promptx.Signature{
		Name:         "qa",
		Instructions: "Answer the question.",
		InputFields: []promptx.Field{
			{Name: "question", Description: "the question", Direction: promptx.DirectionInput},
		},
		OutputFields: []promptx.Field{
			{Name: "answer", Prefix: "Answer:", Direction: promptx.DirectionOutput},
		},
	}

	data, err := promptx.MarshalSignature(sig)
	require.NoError(t, err)

	decoded, err := promptx.UnmarshalSignature(data)
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)
}
