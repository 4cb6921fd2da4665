package interpreter

import (
	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/types/ref"
)

// Interpreter lowers checked ASTs into evaluable trees. An Interpreter is
// immutable once constructed; its dispatcher and provider are shared by
// reference with every Interpretable it produces.
type Interpreter interface {
	// NewInterpretable plans an evaluable tree for the given AST. The AST
	// may be unchecked, in which case identifier and overload resolution
	// fall back to runtime dispatch.
	NewInterpretable(checked *ast.AST) (Interpretable, error)
}

// InterpreterOption configures an Interpreter at construction time.
type InterpreterOption func(*exprInterpreter) *exprInterpreter

// PureFunctions names the functions whose bindings are side-effect free,
// making calls over literal operands eligible for plan-time folding.
func PureFunctions(names ...string) InterpreterOption {
	return func(i *exprInterpreter) *exprInterpreter {
		for _, name := range names {
			i.pure[name] = true
		}
		return i
	}
}

// NewInterpreter builds an Interpreter from a dispatcher, a container for
// unchecked name resolution, and the runtime type provider/adapter pair.
func NewInterpreter(disp Dispatcher,
	container *containers.Container,
	provider ref.TypeProvider,
	adapter ref.TypeAdapter,
	opts ...InterpreterOption) Interpreter {
	i := &exprInterpreter{
		dispatcher: disp,
		container:  container,
		provider:   provider,
		adapter:    adapter,
		pure:       map[string]bool{},
	}
	for _, opt := range opts {
		i = opt(i)
	}
	return i
}

type exprInterpreter struct {
	dispatcher Dispatcher
	container  *containers.Container
	provider   ref.TypeProvider
	adapter    ref.TypeAdapter
	pure       map[string]bool
}

func (i *exprInterpreter) NewInterpretable(checked *ast.AST) (Interpretable, error) {
	p := &planner{
		disp:      i.dispatcher,
		provider:  i.provider,
		adapter:   i.adapter,
		container: i.container,
		refMap:    checked.ReferenceMap(),
		pure:      i.pure,
	}
	return p.Plan(checked.Expr())
}
