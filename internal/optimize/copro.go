package optimize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/monitoring"
	"github.com/ridgeline-labs/termflow/internal/promptx"
)

// confidentPrediction pairs a node's predicted fields with the
// confidence COPROv2 asked the model to self-report alongside them.
type confidentPrediction struct {
	prediction map[string]any
	confidence float64
}

// candidate is one (instruction, prefix) pair COPROv2 has evaluated,
// keyed by that pair for deduplication across breadth/depth rounds.
type candidate struct {
	instruction             string
	prefix                  string
	score                   float64
	confidenceWeightedScore float64
	avgConfidence           float64
	highConfidenceRatio     float64
	depth                   int
	numEvaluated            int
}

type candidateKey struct{ instruction, prefix string }

// COPROv2Builder configures a COPROv2 optimizer.
type COPROv2Builder struct {
	breadth                int
	depth                  int
	temperature            float64
	metric                 NodeMetric
	promptModel            ChatModel
	confidenceThreshold    float64
	confidenceWeight       float64
	adaptiveTemperature    bool
	minHighConfidenceRatio float64
	metrics                *monitoring.RuntimeMetrics

	breadthSet, depthSet, temperatureSet                                   bool
	confidenceThresholdSet, confidenceWeightSet, minHighConfidenceRatioSet bool
}

// NewCOPROv2Builder returns a builder with no options set; Build
// applies the documented defaults for anything left unset.
func NewCOPROv2Builder() *COPROv2Builder {
	return &COPROv2Builder{}
}

func (b *COPROv2Builder) Breadth(breadth int) *COPROv2Builder {
	b.breadth = breadth
	b.breadthSet = true
	return b
}

func (b *COPROv2Builder) Depth(depth int) *COPROv2Builder {
	b.depth = depth
	b.depthSet = true
	return b
}

func (b *COPROv2Builder) Temperature(temperature float64) *COPROv2Builder {
	b.temperature = temperature
	b.temperatureSet = true
	return b
}

func (b *COPROv2Builder) Metric(metric NodeMetric) *COPROv2Builder {
	b.metric = metric
	return b
}

// PromptModel sets a separate model for instruction generation; when
// unset, Compile's task_model argument serves both roles.
func (b *COPROv2Builder) PromptModel(model ChatModel) *COPROv2Builder {
	b.promptModel = model
	return b
}

// Metrics attaches a RuntimeMetrics collector; every evaluated
// candidate's confidence-weighted score is recorded on it.
func (b *COPROv2Builder) Metrics(metrics *monitoring.RuntimeMetrics) *COPROv2Builder {
	b.metrics = metrics
	return b
}

// ConfidenceThreshold sets the minimum self-reported confidence (0-1)
// a prediction needs to count toward a candidate's score, clamped to
// [0,1].
func (b *COPROv2Builder) ConfidenceThreshold(threshold float64) *COPROv2Builder {
	b.confidenceThreshold = clamp01(threshold)
	b.confidenceThresholdSet = true
	return b
}

// ConfidenceWeight sets how much average confidence contributes to
// the final score: final = (1-weight)*score + weight*confidence.
func (b *COPROv2Builder) ConfidenceWeight(weight float64) *COPROv2Builder {
	b.confidenceWeight = clamp01(weight)
	b.confidenceWeightSet = true
	return b
}

// AdaptiveTemperature enables adjusting generation temperature between
// depth rounds based on the mean average confidence of the current
// top-breadth candidates.
func (b *COPROv2Builder) AdaptiveTemperature(enabled bool) *COPROv2Builder {
	b.adaptiveTemperature = enabled
	return b
}

// MinHighConfidenceRatio sets the minimum fraction of predictions that
// must clear the confidence threshold before a candidate's score is
// trusted without penalty.
func (b *COPROv2Builder) MinHighConfidenceRatio(ratio float64) *COPROv2Builder {
	b.minHighConfidenceRatio = clamp01(ratio)
	b.minHighConfidenceRatioSet = true
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Build validates and returns a COPROv2 optimizer.
func (b *COPROv2Builder) Build() (*COPROv2, error) {
	breadth := 10
	if b.breadthSet {
		breadth = b.breadth
	}
	if breadth <= 1 {
		return nil, errors.NewValidationError("breadth", "breadth must be greater than 1")
	}
	if b.metric == nil {
		return nil, errors.NewValidationError("metric", "metric is required")
	}

	depth := 3
	if b.depthSet {
		depth = b.depth
	}
	temperature := 1.4
	if b.temperatureSet {
		temperature = b.temperature
	}
	confidenceThreshold := 0.5
	if b.confidenceThresholdSet {
		confidenceThreshold = b.confidenceThreshold
	}
	confidenceWeight := 0.2
	if b.confidenceWeightSet {
		confidenceWeight = b.confidenceWeight
	}
	minHighConfidenceRatio := 0.3
	if b.minHighConfidenceRatioSet {
		minHighConfidenceRatio = b.minHighConfidenceRatio
	}

	return &COPROv2{
		breadth:                breadth,
		depth:                  depth,
		temperature:            temperature,
		metric:                 b.metric,
		promptModel:            b.promptModel,
		confidenceThreshold:    confidenceThreshold,
		confidenceWeight:       confidenceWeight,
		adaptiveTemperature:    b.adaptiveTemperature,
		minHighConfidenceRatio: minHighConfidenceRatio,
		metrics:                b.metrics,
	}, nil
}

// COPROv2 is the confidence-based collaborative prompt optimizer: it
// searches over (instruction, prefix) candidates, asking the model to
// self-report a confidence alongside every prediction so that
// candidate scores can be weighted by how sure the model was.
type COPROv2 struct {
	breadth                int
	depth                  int
	temperature            float64
	metric                 NodeMetric
	promptModel            ChatModel
	confidenceThreshold    float64
	confidenceWeight       float64
	adaptiveTemperature    bool
	minHighConfidenceRatio float64
	metrics                *monitoring.RuntimeMetrics
}

// Compile searches for an improved instruction/prefix pair for
// signature and returns a new Signature with them applied. Candidate
// evaluation within a round runs concurrently; the first evaluation
// error aborts the whole round rather than returning a partial result
// set, so a flaky model call never silently narrows the search.
func (c *COPROv2) Compile(ctx context.Context, signature promptx.Signature, trainset []map[string]any, taskModel ChatModel) (promptx.Signature, error) {
	promptModel := c.promptModel
	if promptModel == nil {
		promptModel = taskModel
	}

	basicInstruction := signature.Instructions
	if basicInstruction == "" {
		basicInstruction = "Solve the task"
	}
	basicPrefix := "Output"
	if len(signature.OutputFields) > 0 {
		basicPrefix = signature.OutputFields[len(signature.OutputFields)-1].GetPrefix()
	}

	evaluated := make(map[candidateKey]candidate)

	instructions := []string{}
	prefixes := []string{}
	if c.breadth > 1 {
		var err error
		instructions, prefixes, err = c.generateBasicInstructions(ctx, promptModel, basicInstruction, c.breadth-1)
		if err != nil {
			return promptx.Signature{}, err
		}
	}
	instructions = append(instructions, basicInstruction)
	prefixes = append(prefixes, basicPrefix)

	results, err := c.evaluateBatch(ctx, signature, instructions, prefixes, trainset, taskModel, 0)
	if err != nil {
		return promptx.Signature{}, err
	}
	for _, r := range results {
		if r.instruction == basicInstruction {
			log.Info().
				Str("signature", signature.Name).
				Float64("initial_score", r.score).
				Float64("initial_weighted_score", r.confidenceWeightedScore).
				Msg("copro baseline evaluated")
		}
		evaluated[candidateKey{r.instruction, r.prefix}] = r
	}

	currentTemperature := c.temperature
	for d := 0; d < c.depth; d++ {
		best := sortedCandidates(evaluated)

		if c.adaptiveTemperature {
			top := best
			if len(top) > c.breadth {
				top = top[:c.breadth]
			}
			currentTemperature = c.adjustTemperature(top)
		}

		attempts := c.formatAttemptsWithConfidence(best)

		newInstructions, newPrefixes, err := c.generateInstructionsFromAttempts(ctx, promptModel, attempts, c.breadth, currentTemperature)
		if err != nil {
			return promptx.Signature{}, err
		}

		var freshInstructions, freshPrefixes []string
		for i, instr := range newInstructions {
			key := candidateKey{instr, newPrefixes[i]}
			if _, exists := evaluated[key]; exists {
				continue
			}
			freshInstructions = append(freshInstructions, instr)
			freshPrefixes = append(freshPrefixes, newPrefixes[i])
		}

		if len(freshInstructions) > 0 {
			results, err := c.evaluateBatch(ctx, signature, freshInstructions, freshPrefixes, trainset, taskModel, d+1)
			if err != nil {
				return promptx.Signature{}, err
			}
			for _, r := range results {
				evaluated[candidateKey{r.instruction, r.prefix}] = r
			}
		}
	}

	if len(evaluated) == 0 {
		return promptx.Signature{}, errors.NewValidationError("trainset", "no candidates evaluated")
	}

	best := bestCandidate(evaluated)
	optimized := signature
	optimized.Instructions = best.instruction
	if len(optimized.OutputFields) > 0 {
		fields := make([]promptx.Field, len(optimized.OutputFields))
		copy(fields, optimized.OutputFields)
		last := fields[len(fields)-1]
		last.Prefix = best.prefix
		fields[len(fields)-1] = last
		optimized.OutputFields = fields
	}

	return optimized, nil
}

func bestCandidate(evaluated map[candidateKey]candidate) candidate {
	var best candidate
	first := true
	for _, c := range evaluated {
		if first || c.confidenceWeightedScore > best.confidenceWeightedScore {
			best = c
			first = false
		}
	}
	return best
}

func sortedCandidates(evaluated map[candidateKey]candidate) []candidate {
	out := make([]candidate, 0, len(evaluated))
	for _, c := range evaluated {
		out = append(out, c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].confidenceWeightedScore > out[j-1].confidenceWeightedScore; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// evaluateBatch scores every (instruction, prefix) pair concurrently,
// aborting the whole batch on the first error.
func (c *COPROv2) evaluateBatch(ctx context.Context, signature promptx.Signature, instructions, prefixes []string, trainset []map[string]any, model ChatModel, depth int) ([]candidate, error) {
	type indexedResult struct {
		idx int
		cnd candidate
		err error
	}
	results := make(chan indexedResult, len(instructions))
	var wg sync.WaitGroup
	for i := range instructions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cnd, err := c.evaluateCandidate(ctx, signature, instructions[i], prefixes[i], trainset, model, depth)
			results <- indexedResult{idx: i, cnd: cnd, err: err}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]candidate, len(instructions))
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[r.idx] = r.cnd
	}
	return out, nil
}

func (c *COPROv2) evaluateCandidate(ctx context.Context, signature promptx.Signature, instruction, prefix string, trainset []map[string]any, model ChatModel, depth int) (candidate, error) {
	ctx, span := monitoring.StartCandidateEvaluationSpan(ctx, depth, instruction)
	defer span.End()

	tempSig := signature
	tempSig.Instructions = instruction
	if len(tempSig.OutputFields) > 0 {
		fields := make([]promptx.Field, len(tempSig.OutputFields))
		copy(fields, tempSig.OutputFields)
		last := fields[len(fields)-1]
		last.Prefix = prefix
		fields[len(fields)-1] = last
		tempSig.OutputFields = fields
	}

	if len(trainset) == 0 {
		return candidate{instruction: instruction, prefix: prefix, depth: depth}, nil
	}

	type indexedPrediction struct {
		idx  int
		pred confidentPrediction
		err  error
	}
	results := make(chan indexedPrediction, len(trainset))
	var wg sync.WaitGroup
	for i, example := range trainset {
		wg.Add(1)
		go func(i int, example map[string]any) {
			defer wg.Done()
			pred, err := c.predictWithConfidence(ctx, tempSig, example, model)
			results <- indexedPrediction{idx: i, pred: pred, err: err}
		}(i, example)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	predictions := make([]confidentPrediction, len(trainset))
	for r := range results {
		if r.err != nil {
			return candidate{}, r.err
		}
		predictions[r.idx] = r.pred
	}

	var totalScore, totalConfidence float64
	var highConfidenceCount int
	count := len(predictions)

	for i, pred := range predictions {
		if pred.confidence >= c.confidenceThreshold {
			score := c.metric(trainset[i], pred.prediction)
			totalScore += score
			totalConfidence += pred.confidence
			highConfidenceCount++
		}
	}

	var avgScore, avgConfidence, highConfidenceRatio float64
	if highConfidenceCount > 0 {
		avgScore = totalScore / float64(highConfidenceCount)
		avgConfidence = totalConfidence / float64(highConfidenceCount)
		highConfidenceRatio = float64(highConfidenceCount) / float64(count)
	} else {
		var rawScore, rawConfidence float64
		for i, pred := range predictions {
			rawScore += c.metric(trainset[i], pred.prediction)
			rawConfidence += pred.confidence
		}
		avgScore = rawScore / float64(count) * 0.5
		avgConfidence = rawConfidence / float64(count)
		highConfidenceRatio = 0
	}

	confidenceWeightedScore := (1-c.confidenceWeight)*avgScore + c.confidenceWeight*avgConfidence

	finalScore := confidenceWeightedScore
	if highConfidenceRatio < c.minHighConfidenceRatio {
		finalScore = confidenceWeightedScore * (0.5 + 0.5*highConfidenceRatio)
	}

	if c.metrics != nil {
		c.metrics.ObserveCandidateScore(finalScore)
	}

	return candidate{
		instruction:             instruction,
		prefix:                  prefix,
		score:                   avgScore,
		confidenceWeightedScore: finalScore,
		avgConfidence:           avgConfidence,
		highConfidenceRatio:     highConfidenceRatio,
		depth:                   depth,
		numEvaluated:            count,
	}, nil
}

func (c *COPROv2) predictWithConfidence(ctx context.Context, signature promptx.Signature, example map[string]any, model ChatModel) (confidentPrediction, error) {
	prompt := buildConfidencePrompt(signature, example)
	response, err := model.Generate(ctx, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		return confidentPrediction{}, errors.NewNodeExecutionError("", "", "COPROv2", "copro_v2", 1, "chat model generate failed", err, false)
	}

	answer, confidence := parseConfidentResponse(response)

	prediction := make(map[string]any, len(signature.InputFields)+1)
	for _, f := range signature.InputFields {
		if v, ok := example[f.Name]; ok {
			prediction[f.Name] = v
		}
	}
	if first, ok := signature.FirstOutputName(); ok {
		prediction[first] = strings.TrimSpace(answer)
	}

	return confidentPrediction{prediction: prediction, confidence: confidence}, nil
}

func buildConfidencePrompt(signature promptx.Signature, example map[string]any) string {
	var b strings.Builder
	if signature.Instructions != "" {
		b.WriteString(signature.Instructions)
		b.WriteString("\n\n")
	}
	for _, f := range signature.InputFields {
		if v, ok := example[f.Name]; ok {
			fmt.Fprintf(&b, "%s %v\n", f.GetPrefix(), v)
		}
	}
	b.WriteString("\nProvide your answer and rate your confidence (0-100%).\n")
	b.WriteString("Format:\n")
	if len(signature.OutputFields) > 0 {
		fmt.Fprintf(&b, "%s <your answer>\n", signature.OutputFields[0].GetPrefix())
	}
	b.WriteString("Confidence: <0-100>%\n")
	return b.String()
}

// parseConfidentResponse extracts the answer and self-reported
// confidence from a model response, defaulting confidence to 0.5 when
// none is present.
func parseConfidentResponse(response string) (string, float64) {
	lines := strings.Split(response, "\n")
	answer := ""
	confidence := 0.5

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "confidence") {
			if idx := strings.Index(line, ":"); idx >= 0 {
				confStr := strings.TrimSpace(line[idx+1:])
				var digits strings.Builder
				for _, r := range confStr {
					if r >= '0' && r <= '9' {
						digits.WriteRune(r)
					}
				}
				if digits.Len() > 0 {
					if num, err := strconv.ParseFloat(digits.String(), 64); err == nil {
						confidence = clamp01(num / 100.0)
					}
				}
			}
			continue
		}
		if line != "" && answer == "" {
			if idx := strings.Index(line, ":"); idx >= 0 {
				answer = strings.TrimSpace(line[idx+1:])
			} else {
				answer = line
			}
		}
	}

	if answer == "" {
		answer = strings.TrimSpace(response)
	}
	return answer, confidence
}

func (c *COPROv2) adjustTemperature(candidates []candidate) float64 {
	if len(candidates) == 0 {
		return c.temperature
	}
	var total float64
	for _, cnd := range candidates {
		total += cnd.avgConfidence
	}
	avgConfidence := total / float64(len(candidates))
	adjustment := (0.5 - avgConfidence) * 0.5
	temp := c.temperature + adjustment
	if temp < 0.5 {
		return 0.5
	}
	if temp > 2.0 {
		return 2.0
	}
	return temp
}

func (c *COPROv2) formatAttemptsWithConfidence(candidates []candidate) string {
	var b strings.Builder
	numToShow := len(candidates)
	if numToShow > c.breadth {
		numToShow = c.breadth
	}
	for i := 0; i < numToShow; i++ {
		cnd := candidates[i]
		fmt.Fprintf(&b, "Instruction #%d: %s\n", i+1, cnd.instruction)
		fmt.Fprintf(&b, "Prefix #%d: %s\n", i+1, cnd.prefix)
		fmt.Fprintf(&b, "Score #%d: %.4f (confidence-weighted: %.4f)\n", i+1, cnd.score, cnd.confidenceWeightedScore)
		fmt.Fprintf(&b, "Average Confidence #%d: %.2f%%\n", i+1, cnd.avgConfidence*100)
		fmt.Fprintf(&b, "High Confidence Ratio #%d: %.2f%%\n\n", i+1, cnd.highConfidenceRatio*100)
	}
	return b.String()
}

func (c *COPROv2) generateBasicInstructions(ctx context.Context, model ChatModel, basicInstruction string, n int) ([]string, []string, error) {
	prompt := fmt.Sprintf(`You are an instruction optimizer for large language models. I will give you a signature of fields (inputs and outputs) in English. Your task is to propose an instruction that will lead a good language model to perform the task well AND produce confident, reliable outputs.

Basic Instruction: %s

Generate %d alternative instructions that might work better. Focus on clarity and specificity to encourage confident predictions.

For each instruction, also provide a short prefix that will help the model start solving the task.

Format your response as:
INSTRUCTION 1: <instruction>
PREFIX 1: <prefix>

INSTRUCTION 2: <instruction>
PREFIX 2: <prefix>

...and so on.`, basicInstruction, n)

	response, err := generate(ctx, model, []Message{{Role: RoleUser, Content: prompt}}, c.temperature)
	if err != nil {
		return nil, nil, errors.NewNodeExecutionError("", "", "COPROv2", "copro_v2", 1, "chat model generate failed", err, false)
	}
	return parseInstructionPrefixPairs(response, n)
}

func (c *COPROv2) generateInstructionsFromAttempts(ctx context.Context, model ChatModel, attempts string, n int, temperature float64) ([]string, []string, error) {
	prompt := fmt.Sprintf(`You are an instruction optimizer for large language models. I will give you some task instructions I've tried, along with their corresponding validation scores and confidence metrics.

Instructions with higher confidence scores produce more reliable predictions. The goal is to find instructions that are both accurate AND produce confident outputs.

Previous Attempts:
%s

Generate %d new instructions that:
1. Improve upon the scores of previous attempts
2. Encourage higher model confidence
3. Are clear and unambiguous to reduce uncertainty

For each, also provide a short prefix that will help the model start solving the task confidently.

Format your response as:
INSTRUCTION 1: <instruction>
PREFIX 1: <prefix>

INSTRUCTION 2: <instruction>
PREFIX 2: <prefix>

...and so on.`, attempts, n)

	response, err := generate(ctx, model, []Message{{Role: RoleUser, Content: prompt}}, temperature)
	if err != nil {
		return nil, nil, errors.NewNodeExecutionError("", "", "COPROv2", "copro_v2", 1, "chat model generate failed", err, false)
	}
	return parseInstructionPrefixPairs(response, n)
}

// parseInstructionPrefixPairs parses "INSTRUCTION N: ...\nPREFIX N: ..."
// pairs from a model response, padding with a generic fallback
// instruction/prefix if the model returned fewer than expected.
func parseInstructionPrefixPairs(response string, expected int) ([]string, []string, error) {
	var instructions, prefixes []string
	lines := strings.Split(response, "\n")

	i := 0
	for i < len(lines) && len(instructions) < expected {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(strings.ToUpper(line), "INSTRUCTION") {
			if idx := strings.Index(line, ":"); idx >= 0 {
				instruction := strings.TrimSpace(line[idx+1:])
				if instruction != "" {
					if i+1 < len(lines) {
						nextLine := strings.TrimSpace(lines[i+1])
						if strings.HasPrefix(strings.ToUpper(nextLine), "PREFIX") {
							if prefixColon := strings.Index(nextLine, ":"); prefixColon >= 0 {
								prefix := strings.TrimSpace(nextLine[prefixColon+1:])
								if prefix != "" {
									instructions = append(instructions, instruction)
									prefixes = append(prefixes, prefix)
									i += 2
									continue
								}
							}
						}
					}
					instructions = append(instructions, instruction)
					prefixes = append(prefixes, "Answer")
				}
			}
		}
		i++
	}

	for len(instructions) < expected {
		instructions = append(instructions, "Solve the task carefully and accurately.")
		prefixes = append(prefixes, "Answer")
	}

	return instructions, prefixes, nil
}
