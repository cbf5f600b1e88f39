package promptx

import (
	"fmt"
	"strings"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
)

// PromptTemplate renders a fixed text template against a set of named
// input variables using f-string-style "{name}" substitution.
type PromptTemplate struct {
	Template       string
	InputVariables []string
}

// NewPromptTemplate returns a PromptTemplate over template with the
// given InputVariables; the placeholders in template are not parsed.
func NewPromptTemplate(template string, inputVariables []string) PromptTemplate {
	return PromptTemplate{Template: template, InputVariables: inputVariables}
}

// Format substitutes every {name} placeholder in the template with the
// corresponding string value, in the order the variables occur. It
// errors if a required input variable is missing from values.
func (p PromptTemplate) Format(values map[string]string) (string, error) {
	out := p.Template
	for _, name := range p.InputVariables {
		v, ok := values[name]
		if !ok {
			return "", errors.NewValidationError(name, "missing required prompt template variable")
		}
		out = strings.ReplaceAll(out, "{"+name+"}", v)
	}
	return out, nil
}

// FormatExample is a convenience wrapper used by example selectors,
// which carry examples as map[string]any rather than map[string]string.
func (p PromptTemplate) FormatExample(ex map[string]any) (string, error) {
	values := make(map[string]string, len(ex))
	for k, v := range ex {
		values[k] = toText(v)
	}
	return p.Format(values)
}

func toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
