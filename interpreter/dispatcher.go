package interpreter

import (
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/common/types/traits"
)

// Dispatcher maps a call to a runtime implementation: by overload id when
// the checker resolved the call, or by best-effort runtime argument-kind
// matching when checking was disabled. The dispatcher is append-only while
// an environment is being built and read-only once programs evaluate
// against it.
type Dispatcher interface {
	// Add registers function declarations, merging overload sets for
	// functions declared more than once.
	Add(fns ...*decls.FunctionDecl) error

	// FindFunction returns the declaration registered for name.
	FindFunction(name string) (*decls.FunctionDecl, bool)

	// Dispatch invokes the implementation matching the call. overloadIDs
	// carries the checker's candidate set and may be empty for unchecked
	// programs.
	Dispatch(id int64, function string, overloadIDs []string, args []ref.Val) ref.Val
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() Dispatcher {
	return &defaultDispatcher{functions: map[string]*decls.FunctionDecl{}}
}

type defaultDispatcher struct {
	functions map[string]*decls.FunctionDecl
}

func (d *defaultDispatcher) Add(fns ...*decls.FunctionDecl) error {
	for _, fn := range fns {
		if current, found := d.functions[fn.Name]; found {
			merged, err := current.Merge(fn)
			if err != nil {
				return err
			}
			fn = merged
		}
		d.functions[fn.Name] = fn
	}
	return nil
}

func (d *defaultDispatcher) FindFunction(name string) (*decls.FunctionDecl, bool) {
	fn, found := d.functions[name]
	return fn, found
}

func (d *defaultDispatcher) Dispatch(id int64, function string, overloadIDs []string, args []ref.Val) ref.Val {
	// Strict argument handling: the first error wins outright, and unknown
	// arguments merge their attribution sets. Non-strict overloads never
	// reach the dispatcher; the planner lowers them to dedicated nodes.
	var unk *types.Unknown
	for _, arg := range args {
		if types.IsError(arg) {
			return arg
		}
		if u, ok := arg.(*types.Unknown); ok {
			unk = types.MergeUnknowns(unk, u)
		}
	}
	if unk != nil {
		return unk
	}

	fn, found := d.functions[function]
	if !found {
		return types.NewErrWithNodeID(id, "unknown function '%s'", function)
	}
	if fn.Singleton != nil {
		return fn.Singleton.Invoke(function, args)
	}

	candidates := overloadIDs
	if len(candidates) == 0 {
		candidates = fn.OverloadIDs()
	}
	matchedID := ""
	for _, overloadID := range candidates {
		overload, ok := fn.Overloads[overloadID]
		if !ok || len(overload.ArgTypes) != len(args) {
			continue
		}
		if !argumentsMatch(overload, args) {
			continue
		}
		matchedID = overloadID
		if hasBinding(overload) {
			return overload.Invoke(function, args)
		}
	}

	// A matched overload without its own binding falls back to the
	// receiver's dynamic dispatch, which is how timestamp and duration
	// component accessors reach Receive on the value itself.
	if len(args) > 0 && args[0].Type().HasTrait(traits.ReceiverType) {
		return args[0].(traits.Receiver).Receive(function, matchedID, args[1:])
	}
	return decls.MaybeNoSuchOverload(function, args...)
}

func argumentsMatch(overload *decls.OverloadDecl, args []ref.Val) bool {
	if overload.RequiresTrait != 0 && len(args) > 0 && !args[0].Type().HasTrait(overload.RequiresTrait) {
		return false
	}
	for i, t := range overload.ArgTypes {
		if !t.IsAssignableRuntimeType(args[i]) {
			return false
		}
	}
	return true
}

func hasBinding(overload *decls.OverloadDecl) bool {
	return overload.Unary != nil || overload.Binary != nil || overload.Function != nil
}
