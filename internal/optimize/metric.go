package optimize

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// equalityProgram is the compiled "a == b" expression every
// canonical-equality metric call reuses; compiling per call would
// dominate the cost of an otherwise trivial comparison.
var (
	equalityOnce    sync.Once
	equalityProgram *vm.Program
	equalityErr     error
)

func compiledEquality() (*vm.Program, error) {
	equalityOnce.Do(func() {
		equalityProgram, equalityErr = expr.Compile("a == b", expr.Env(map[string]any{"a": "", "b": ""}), expr.AsBool())
	})
	return equalityProgram, equalityErr
}

// CanonicalEqualityMetric returns the default NodeMetric: it restricts
// comparison to the fields named, canonicalizes both sides to a
// deterministic JSON string (map keys sorted), and runs that
// comparison through a compiled expr program rather than a bare Go
// ==, so a metric defined entirely in terms of expr expressions can
// compose with it. Score is 1.0 on an exact match, 0.0 otherwise. A
// nil fields slice compares every key present in expected.
func CanonicalEqualityMetric(fields []string) NodeMetric {
	return func(expected, predicted map[string]any) float64 {
		keys := fields
		if keys == nil {
			keys = make([]string, 0, len(expected))
			for k := range expected {
				keys = append(keys, k)
			}
			sort.Strings(keys)
		}

		a, errA := canonicalJSON(expected, keys)
		b, errB := canonicalJSON(predicted, keys)
		if errA != nil || errB != nil {
			return 0
		}

		program, err := compiledEquality()
		if err != nil {
			if a == b {
				return 1
			}
			return 0
		}

		result, err := expr.Run(program, map[string]any{"a": a, "b": b})
		if err != nil {
			return 0
		}
		if equal, ok := result.(bool); ok && equal {
			return 1
		}
		return 0
	}
}

// canonicalJSON marshals the named keys of m into a JSON object with
// keys in sorted order, giving two maps built in different iteration
// orders an identical string form.
func canonicalJSON(m map[string]any, keys []string) (string, error) {
	ordered := make([]string, len(keys))
	copy(ordered, keys)
	sort.Strings(ordered)

	subset := make(map[string]any, len(ordered))
	for _, k := range ordered {
		if v, ok := m[k]; ok {
			subset[k] = v
		}
	}

	buf := make(map[string]any, 1)
	buf["fields"] = subset
	out, err := json.Marshal(buf)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
