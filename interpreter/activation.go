// Package interpreter evaluates planned expression trees against per-call
// variable bindings, producing runtime values with the error/unknown
// propagation semantics of the value lattice.
package interpreter

import (
	"sync"

	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// Activation resolves identifier names to values for one evaluation. An
// Activation is borrowed by the interpreter for the duration of a single
// Eval call; chaining activations lets comprehension scopes shadow caller
// bindings without mutating them.
type Activation interface {
	// ResolveName returns the binding for name. The value may be a ref.Val
	// or a host-native value which the interpreter adapts on use.
	ResolveName(name string) (interface{}, bool)

	// Parent returns the activation searched when a name is not bound
	// here, or nil at the root.
	Parent() Activation
}

// EmptyActivation returns an activation with no bindings.
func EmptyActivation() Activation {
	return emptyActivation{}
}

type emptyActivation struct{}

func (emptyActivation) ResolveName(string) (interface{}, bool) { return nil, false }
func (emptyActivation) Parent() Activation                     { return nil }

// NewActivation binds names directly from the given map. A value may be a
// ref.Val, a host-native value, or a supplier function invoked on each
// lookup.
func NewActivation(bindings map[string]interface{}) Activation {
	return &mapActivation{bindings: bindings}
}

type mapActivation struct {
	bindings map[string]interface{}
}

func (a *mapActivation) Parent() Activation { return nil }

func (a *mapActivation) ResolveName(name string) (interface{}, bool) {
	obj, found := a.bindings[name]
	if !found {
		return nil, false
	}
	switch supplier := obj.(type) {
	case func() ref.Val:
		return supplier(), true
	case func() interface{}:
		return supplier(), true
	}
	return obj, true
}

// NewLazyActivation binds names to host-native values which are converted
// through the adapter on first access and memoized for the remainder of
// the evaluation.
func NewLazyActivation(adapter ref.TypeAdapter, bindings map[string]interface{}) Activation {
	return &lazyActivation{
		adapter:  adapter,
		bindings: bindings,
		memo:     make(map[string]ref.Val, len(bindings)),
	}
}

type lazyActivation struct {
	adapter  ref.TypeAdapter
	bindings map[string]interface{}
	memo     map[string]ref.Val
}

func (a *lazyActivation) Parent() Activation { return nil }

func (a *lazyActivation) ResolveName(name string) (interface{}, bool) {
	if val, found := a.memo[name]; found {
		return val, true
	}
	obj, found := a.bindings[name]
	if !found {
		return nil, false
	}
	val := a.adapter.NativeToValue(obj)
	a.memo[name] = val
	return val, true
}

// NewHierarchicalActivation chains two activations so the child shadows
// the parent.
func NewHierarchicalActivation(parent, child Activation) Activation {
	return &hierarchicalActivation{parent: parent, child: child}
}

type hierarchicalActivation struct {
	parent Activation
	child  Activation
}

func (a *hierarchicalActivation) Parent() Activation { return a.parent }

func (a *hierarchicalActivation) ResolveName(name string) (interface{}, bool) {
	if obj, found := a.child.ResolveName(name); found {
		return obj, true
	}
	return a.parent.ResolveName(name)
}

// unknownBinding marks a name a partial activation has declared absent.
// The interpreter replaces it with an Unknown attributed to the
// referencing expression node.
var unknownBinding = &types.Unknown{}

// PartialActivation marks a set of names as unknown rather than absent,
// enabling partial evaluation: references to those names produce Unknown
// values that propagate instead of missing-attribute errors.
type PartialActivation interface {
	Activation

	// UnknownNames returns the names this activation treats as unknown.
	UnknownNames() []string
}

// NewPartialActivation decorates base so that lookups of the given names
// report unknown.
func NewPartialActivation(base Activation, unknownNames ...string) PartialActivation {
	unknowns := make(map[string]bool, len(unknownNames))
	for _, name := range unknownNames {
		unknowns[name] = true
	}
	return &partialActivation{base: base, names: unknownNames, unknowns: unknowns}
}

type partialActivation struct {
	base     Activation
	names    []string
	unknowns map[string]bool
}

func (a *partialActivation) Parent() Activation { return a.base }

func (a *partialActivation) UnknownNames() []string { return a.names }

func (a *partialActivation) ResolveName(name string) (interface{}, bool) {
	if a.unknowns[name] {
		return unknownBinding, true
	}
	return a.base.ResolveName(name)
}

// varActivation binds exactly one name over a parent, used for the
// accumulator and iteration variables of a comprehension. Instances are
// pooled since a fold allocates two per evaluation.
type varActivation struct {
	parent Activation
	name   string
	val    ref.Val
}

func (a *varActivation) Parent() Activation { return a.parent }

func (a *varActivation) ResolveName(name string) (interface{}, bool) {
	if name == a.name {
		return a.val, true
	}
	return a.parent.ResolveName(name)
}

var varActivationPool = &sync.Pool{
	New: func() interface{} { return &varActivation{} },
}
