package promptx

import "strings"

// WordCount splits on whitespace and counts non-empty tokens, the
// default length metric length-based example selection budgets against.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
