// Package promptx implements the typed unit of training data (Example)
// and the declarative I/O contract of an LLM node (Signature/Field),
// plus prompt templating.
package promptx

import "sort"

// Example is a typed map from field name to value, with a marker set
// of which keys are inputs (the rest are treated as outputs/labels).
type Example struct {
	fields map[string]any
	inputs map[string]struct{}
}

// NewExample returns an empty Example.
func NewExample() *Example {
	return &Example{fields: make(map[string]any), inputs: make(map[string]struct{})}
}

// WithField sets field k to value v and returns the receiver for
// chaining.
func (e *Example) WithField(k string, v any) *Example {
	e.fields[k] = v
	return e
}

// WithInputs marks keys as inputs.
func (e *Example) WithInputs(keys ...string) *Example {
	for _, k := range keys {
		e.inputs[k] = struct{}{}
	}
	return e
}

// Get returns the value for k and whether it was present.
func (e *Example) Get(k string) (any, bool) {
	v, ok := e.fields[k]
	return v, ok
}

// Inputs returns the subset of fields marked as inputs.
func (e *Example) Inputs() map[string]any {
	out := make(map[string]any, len(e.inputs))
	for k := range e.inputs {
		if v, ok := e.fields[k]; ok {
			out[k] = v
		}
	}
	return out
}

// IsInput reports whether k is marked as an input.
func (e *Example) IsInput(k string) bool {
	_, ok := e.inputs[k]
	return ok
}

// Fields returns every field name/value pair.
func (e *Example) Fields() map[string]any {
	out := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// SortedValues returns the values of m in ascending key order, the
// canonical way an Example is flattened to text for embedding or
// length estimation.
func SortedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
