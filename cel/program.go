package cel

import (
	"fmt"

	"github.com/exprcore/celcore/common"
	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/interpreter"
)

// Program is an evaluable expression. A Program is immutable after
// planning and may be shared across goroutines; each Eval call builds its
// own activation, so concurrent evaluations never share mutable state.
type Program interface {
	// Eval runs the program against the given input: nil, a map of
	// variable bindings, or an interpreter.Activation. A runtime error
	// value is surfaced as a Go error carrying the offending node's
	// source location; an Unknown result is returned as the value.
	Eval(input interface{}) (ref.Val, error)
}

type prog struct {
	plan    interpreter.Interpretable
	ast     *ast.AST
	source  common.Source
	adapter ref.TypeAdapter
}

func (p *prog) Eval(input interface{}) (ref.Val, error) {
	vars, err := p.vars(input)
	if err != nil {
		return nil, err
	}
	val := p.plan.Eval(vars)
	if errVal, ok := val.(*types.Err); ok {
		return val, p.locatedError(errVal)
	}
	return val, nil
}

func (p *prog) vars(input interface{}) (interpreter.Activation, error) {
	switch v := input.(type) {
	case nil:
		return interpreter.EmptyActivation(), nil
	case interpreter.Activation:
		return v, nil
	case map[string]interface{}:
		return interpreter.NewLazyActivation(p.adapter, v), nil
	}
	return nil, fmt.Errorf("invalid input type to eval: %T", input)
}

// locatedError renders a runtime error as "line:column: message" when the
// offending node has a recorded source offset.
func (p *prog) locatedError(errVal *types.Err) error {
	if p.source == nil || errVal.ExprID == 0 {
		return errVal
	}
	offset, found := p.ast.SourceInfo().GetOffset(errVal.ExprID)
	if !found {
		return errVal
	}
	loc := p.source.OffsetLocation(offset)
	return fmt.Errorf("%d:%d: %s", loc.Line(), loc.Column()+1, errVal)
}
