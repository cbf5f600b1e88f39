package selector

import (
	"context"
	"strings"

	"github.com/ridgeline-labs/termflow/internal/promptx"
)

// LengthFunc measures the "length" of formatted text in whatever units
// MaxLength is budgeted in. The zero value is promptx.WordCount.
type LengthFunc func(text string) int

// LengthBasedExampleSelector adds examples, in order, until the next
// one would push the cumulative formatted length past MaxLength.
type LengthBasedExampleSelector struct {
	examples        []ExampleMap
	exampleTemplate promptx.PromptTemplate
	getTextLength   LengthFunc
	maxLength       int
	exampleLengths  []int
}

// NewLengthBasedExampleSelector precomputes the formatted length of
// every example so SelectExamples doesn't re-render the template on
// every call.
func NewLengthBasedExampleSelector(examples []ExampleMap, exampleTemplate promptx.PromptTemplate, maxLength int, getTextLength LengthFunc) (*LengthBasedExampleSelector, error) {
	if getTextLength == nil {
		getTextLength = promptx.WordCount
	}
	lengths := make([]int, len(examples))
	for i, ex := range examples {
		formatted, err := exampleTemplate.Format(ex)
		if err != nil {
			return nil, err
		}
		lengths[i] = getTextLength(formatted)
	}
	return &LengthBasedExampleSelector{
		examples:        append([]ExampleMap(nil), examples...),
		exampleTemplate: exampleTemplate,
		getTextLength:   getTextLength,
		maxLength:       maxLength,
		exampleLengths:  lengths,
	}, nil
}

// AddExample appends example, recomputing its formatted length. It
// always returns an empty ID: length-based selection has no identity
// to assign.
func (s *LengthBasedExampleSelector) AddExample(_ context.Context, example ExampleMap) (string, error) {
	formatted, err := s.exampleTemplate.Format(example)
	if err != nil {
		return "", err
	}
	s.examples = append(s.examples, example)
	s.exampleLengths = append(s.exampleLengths, s.getTextLength(formatted))
	return "", nil
}

// SelectExamples returns the prefix of examples (in insertion order)
// that fits within MaxLength once the formatted input is accounted
// for.
func (s *LengthBasedExampleSelector) SelectExamples(_ context.Context, input ExampleMap) ([]ExampleMap, error) {
	inputsText := strings.Join(sortedValues(input), " ")
	remaining := s.maxLength - s.getTextLength(inputsText)
	if remaining < 0 {
		remaining = 0
	}

	var selected []ExampleMap
	for i, length := range s.exampleLengths {
		if length > remaining {
			break
		}
		selected = append(selected, s.examples[i])
		remaining -= length
	}
	return selected, nil
}
