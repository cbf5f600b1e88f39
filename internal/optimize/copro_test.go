package optimize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/promptx"
)

// scriptedModel answers instruction-generation prompts with a fixed
// INSTRUCTION/PREFIX block and everything else with a confident
// answer.
type scriptedModel struct {
	mu           sync.Mutex
	taskResponse string
	calls        int
}

func (m *scriptedModel) Generate(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	prompt := messages[0].Content
	if strings.Contains(prompt, "instruction optimizer") {
		return "INSTRUCTION 1: Compute the arithmetic result.\nPREFIX 1: Result:\n\nINSTRUCTION 2: Work step by step.\nPREFIX 2: Answer:", nil
	}
	return m.taskResponse, nil
}

func qaSignature() promptx.Signature {
	return promptx.Signature{
		Name:         "qa",
		Instructions: "Answer the question.",
		InputFields:  []promptx.Field{{Name: "question"}},
		OutputFields: []promptx.Field{{Name: "answer"}},
	}
}

func exactAnswerMetric(expected, predicted map[string]any) float64 {
	if fmt.Sprint(expected["answer"]) == fmt.Sprint(predicted["answer"]) {
		return 1.0
	}
	return 0.0
}

func TestCOPROv2_CompileImprovesSignature(t *testing.T) {
	model := &scriptedModel{taskResponse: "Answer: 4\nConfidence: 90%"}
	copro, err := NewCOPROv2Builder().
		Breadth(3).
		Depth(1).
		Metric(exactAnswerMetric).
		Build()
	require.NoError(t, err)

	trainset := []map[string]any{{"question": "What is 2+2?", "answer": "4"}}
	optimized, err := copro.Compile(context.Background(), qaSignature(), trainset, model)
	require.NoError(t, err)

	assert.NotEmpty(t, optimized.Instructions)
	require.Len(t, optimized.OutputFields, 1)
	assert.NotEmpty(t, optimized.OutputFields[0].GetPrefix())
	assert.Greater(t, model.calls, 1)
}

func TestCOPROv2_EmptyTrainset(t *testing.T) {
	model := &scriptedModel{taskResponse: "Answer: 4\nConfidence: 90%"}
	copro, err := NewCOPROv2Builder().
		Breadth(2).
		Depth(1).
		Metric(exactAnswerMetric).
		Build()
	require.NoError(t, err)

	optimized, err := copro.Compile(context.Background(), qaSignature(), nil, model)
	require.NoError(t, err)
	assert.NotEmpty(t, optimized.Instructions)
}

func TestCOPROv2_BuilderValidation(t *testing.T) {
	_, err := NewCOPROv2Builder().Breadth(1).Metric(exactAnswerMetric).Build()
	assert.Error(t, err)

	_, err = NewCOPROv2Builder().Breadth(3).Build()
	assert.Error(t, err)
}

func TestCOPROv2_FailingModelAborts(t *testing.T) {
	copro, err := NewCOPROv2Builder().
		Breadth(2).
		Depth(1).
		Metric(exactAnswerMetric).
		Build()
	require.NoError(t, err)

	_, err = copro.Compile(context.Background(), qaSignature(),
		[]map[string]any{{"question": "q", "answer": "a"}}, failingModel{})
	assert.Error(t, err)
}

type failingModel struct{}

func (failingModel) Generate(context.Context, []Message) (string, error) {
	return "", fmt.Errorf("transport down")
}

// tempRecordingModel records the temperature of every generation call.
type tempRecordingModel struct {
	scriptedModel
	mu    sync.Mutex
	temps []float64
}

func (m *tempRecordingModel) GenerateWithTemperature(ctx context.Context, messages []Message, temperature float64) (string, error) {
	m.mu.Lock()
	m.temps = append(m.temps, temperature)
	m.mu.Unlock()
	return m.Generate(ctx, messages)
}

func TestCOPROv2_AdaptiveTemperatureClamps(t *testing.T) {
	model := &tempRecordingModel{scriptedModel: scriptedModel{taskResponse: "Answer: 4\nConfidence: 10%"}}
	copro, err := NewCOPROv2Builder().
		Breadth(2).
		Depth(1).
		Temperature(1.9).
		AdaptiveTemperature(true).
		Metric(exactAnswerMetric).
		Build()
	require.NoError(t, err)

	trainset := []map[string]any{{"question": "What is 2+2?", "answer": "4"}}
	_, err = copro.Compile(context.Background(), qaSignature(), trainset, model)
	require.NoError(t, err)

	// First generation uses the base temperature; the low-confidence
	// round pushes it up to the 2.0 ceiling.
	require.GreaterOrEqual(t, len(model.temps), 2)
	assert.Equal(t, 1.9, model.temps[0])
	assert.Equal(t, 2.0, model.temps[len(model.temps)-1])
}

func TestParseConfidentResponse(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantAnswer     string
		wantConfidence float64
	}{
		{"answer with confidence", "Answer: 4\nConfidence: 90%", "4", 0.9},
		{"no confidence defaults", "Answer: 4", "4", 0.5},
		{"bare answer", "4", "4", 0.5},
		{"confidence over 100 clamps", "Answer: 4\nConfidence: 250%", "4", 1.0},
		{"blank lines skipped", "\n\nAnswer: 4\nConfidence: 55%", "4", 0.55},
		{"whole response fallback", "Confidence: 80%", "Confidence: 80%", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, confidence := parseConfidentResponse(tt.response)
			assert.Equal(t, tt.wantAnswer, answer)
			assert.InDelta(t, tt.wantConfidence, confidence, 1e-9)
		})
	}
}

func TestEvaluateCandidate_ConfidencePenalties(t *testing.T) {
	copro, err := NewCOPROv2Builder().
		Breadth(2).
		Depth(0).
		Metric(exactAnswerMetric).
		Build()
	require.NoError(t, err)

	trainset := []map[string]any{{"question": "q", "answer": "4"}}

	// All predictions below the confidence threshold: raw score is
	// halved and the low-ratio penalty applies on top.
	low := &scriptedModel{taskResponse: "Answer: 4\nConfidence: 20%"}
	cnd, err := copro.evaluateCandidate(context.Background(), qaSignature(), "inst", "Answer:", trainset, low, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cnd.highConfidenceRatio)
	assert.InDelta(t, 0.5, cnd.score, 1e-9) // 1.0 * 0.5 penalty
	weighted := 0.8*0.5 + 0.2*0.2
	assert.InDelta(t, weighted*0.5, cnd.confidenceWeightedScore, 1e-9)

	// Confident predictions score cleanly.
	high := &scriptedModel{taskResponse: "Answer: 4\nConfidence: 90%"}
	cnd, err = copro.evaluateCandidate(context.Background(), qaSignature(), "inst", "Answer:", trainset, high, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cnd.highConfidenceRatio)
	assert.InDelta(t, 1.0, cnd.score, 1e-9)
	assert.InDelta(t, 0.8*1.0+0.2*0.9, cnd.confidenceWeightedScore, 1e-9)
}
