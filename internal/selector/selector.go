// Package selector implements dynamic few-shot example selection:
// choosing which training examples to embed in a prompt for a given
// input, by length budget or by semantic similarity/diversity.
package selector

import (
	"context"
	"sort"
	"strings"
)

// ExampleMap is the plain string-keyed representation an example
// selector operates on, matching the shape stored examples and inputs
// take once flattened for embedding or length estimation.
type ExampleMap map[string]string

// ExampleSelector chooses which examples to present for a given input.
type ExampleSelector interface {
	AddExample(ctx context.Context, example ExampleMap) (string, error)
	SelectExamples(ctx context.Context, input ExampleMap) ([]ExampleMap, error)
}

func sortedValues(m ExampleMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func filterKeys(m ExampleMap, keys []string) ExampleMap {
	if keys == nil {
		return m
	}
	out := make(ExampleMap, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

func exampleToText(example ExampleMap, inputKeys []string) string {
	filtered := filterKeys(example, inputKeys)
	return strings.Join(sortedValues(filtered), " ")
}
