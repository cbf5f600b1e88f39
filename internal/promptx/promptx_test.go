package promptx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/promptx"
)

func TestExampleInputsFiltersToMarkedKeys(t *testing.T) {
	ex := promptx.NewExample().
		WithField("question", "what is 2+2?").
		WithField("answer", "4").
		WithInputs("question")

	inputs := ex.Inputs()
	assert.Equal(t, map[string]any{"question": "what is 2+2?"}, inputs)
	assert.True(t, ex.IsInput("question"))
	assert.False(t, ex.IsInput("answer"))
}

func TestSortedValuesOrdersByKey(t *testing.T) {
	m := map[string]any{"b": "second", "a": "first", "c": "third"}
	assert.Equal(t, []any{"first", "second", "third"}, promptx.SortedValues(m))
}

func TestSignatureNames(t *testing.T) {
	sig := promptx.Signature{
		Name: "qa",
		InputFields: []promptx.Field{
			{Name: "question", Direction: promptx.DirectionInput},
		},
		OutputFields: []promptx.Field{
			{Name: "answer", Direction: promptx.DirectionOutput},
			{Name: "confidence", Direction: promptx.DirectionOutput},
		},
	}

	assert.Equal(t, []string{"question"}, sig.InputNames())
	assert.Equal(t, []string{"answer", "confidence"}, sig.OutputNames())

	first, ok := sig.FirstOutputName()
	require.True(t, ok)
	assert.Equal(t, "answer", first)
}

func TestFieldPrefixFallsBackToCapitalizedName(t *testing.T) {
	f := promptx.Field{Name: "answer"}
	assert.Equal(t, "Answer:", f.GetPrefix())

	f.Prefix = "A:"
	assert.Equal(t, "A:", f.GetPrefix())
}

func TestPromptTemplateFormat(t *testing.T) {
	tpl := promptx.NewPromptTemplate("Input: {input}\nOutput: {output}", []string{"input", "output"})
	out, err := tpl.Format(map[string]string{"input": "2+2", "output": "4"})
	require.NoError(t, err)
	assert.Equal(t, "Input: 2+2\nOutput: 4", out)
}

func TestPromptTemplateFormatMissingVariable(t *testing.T) {
	tpl := promptx.NewPromptTemplate("Input: {input}", []string{"input"})
	_, err := tpl.Format(map[string]string{})
	assert.Error(t, err)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 3, promptx.WordCount("one two  three\n"))
	assert.Equal(t, 0, promptx.WordCount("   "))
}
