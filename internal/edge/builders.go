package edge

import (
	"github.com/expr-lang/expr"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	n "github.com/ridgeline-labs/termflow/internal/node"
)

type DirectBuilder struct {
	from string
	to   string
}

func NewDirectBuilder() *DirectBuilder                 { return &DirectBuilder{} }
func (b *DirectBuilder) From(id string) *DirectBuilder { b.from = id; return b }
func (b *DirectBuilder) To(id string) *DirectBuilder   { b.to = id; return b }
func (b *DirectBuilder) Build() *Direct                { return NewDirect(b.from, b.to) }

type ConditionalBuilder struct {
	from string
	to   string
	cond ConditionFunc
}

func NewConditionalBuilder() *ConditionalBuilder                          { return &ConditionalBuilder{} }
func (b *ConditionalBuilder) From(id string) *ConditionalBuilder          { b.from = id; return b }
func (b *ConditionalBuilder) To(id string) *ConditionalBuilder            { b.to = id; return b }
func (b *ConditionalBuilder) When(cond ConditionFunc) *ConditionalBuilder { b.cond = cond; return b }
func (b *ConditionalBuilder) Build() *Conditional                         { return NewConditional(b.from, b.to, b.cond) }

// Helpers for simple conditions
func ConditionTrue() ConditionFunc { return func(_ n.NodeOutput) (bool, error) { return true, nil } }

// ConditionExpr compiles an expr-lang boolean expression once and
// evaluates it against the source node's output data map, so routing
// rules can be declared as strings ("score > 0.5") rather than code.
func ConditionExpr(expression string) (ConditionFunc, error) {
	program, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, errors.NewValidationError("condition", "invalid condition expression: "+err.Error())
	}
	return func(out n.NodeOutput) (bool, error) {
		env, _ := out.Data.(map[string]any)
		if env == nil {
			env = map[string]any{}
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return false, err
		}
		ok, _ := result.(bool)
		return ok, nil
	}, nil
}
