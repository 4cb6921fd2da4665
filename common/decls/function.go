package decls

import (
	"fmt"

	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// UnaryOp is a runtime binding for a single-argument overload.
type UnaryOp func(val ref.Val) ref.Val

// BinaryOp is a runtime binding for a two-argument overload.
type BinaryOp func(lhs, rhs ref.Val) ref.Val

// FunctionOp is a runtime binding for an overload of any arity, including
// zero.
type FunctionOp func(args ...ref.Val) ref.Val

// FunctionDecl collects every overload declared for a given function name,
// the unit the checker resolves a call against and the dispatcher binds at
// evaluation time.
type FunctionDecl struct {
	Name      string
	Overloads map[string]*OverloadDecl
	// overloadOrder preserves declaration order for deterministic dispatch
	// and error messages.
	overloadOrder []string

	// Singleton, when set, is invoked for every call to this function
	// regardless of which declared overload the checker matched: the
	// overloads still carry the per-signature argument/result types for
	// type checking, but dispatch at runtime goes through this one
	// trait-guarded implementation instead of a per-overload binding. This
	// is how a single operator like `+` binds once via traits.Adder
	// instead of once per numeric/string/list overload.
	Singleton *OverloadDecl

	declarationDisabled bool
}

// IsDeclarationDisabled reports whether fn should be hidden from new
// programs during checking while remaining dispatchable, for a deprecated
// alias kept only for already-checked expressions.
func (fn *FunctionDecl) IsDeclarationDisabled() bool {
	return fn.declarationDisabled
}

// Binding returns fn's runtime binding: the Singleton if set, or else the
// first overload that carries its own binding.
func (fn *FunctionDecl) Binding() (*OverloadDecl, bool) {
	if fn.Singleton != nil {
		return fn.Singleton, true
	}
	for _, id := range fn.overloadOrder {
		if fn.Overloads[id].hasBinding() {
			return fn.Overloads[id], true
		}
	}
	return nil, false
}

// NewFunction declares a function with the given overloads.
func NewFunction(name string, opts ...FunctionOpt) (*FunctionDecl, error) {
	fn := &FunctionDecl{Name: name, Overloads: map[string]*OverloadDecl{}}
	for _, opt := range opts {
		var err error
		fn, err = opt(fn)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", name, err)
		}
	}
	return fn, nil
}

// FunctionOpt configures a FunctionDecl when building it with NewFunction,
// or merges additional overloads into one when composing declarations from
// multiple sources (the standard library plus application-declared
// extensions).
type FunctionOpt func(*FunctionDecl) (*FunctionDecl, error)

// Overload declares a global (non-member) overload.
func Overload(overloadID string, argTypes []*Type, resultType *Type, opts ...OverloadOpt) FunctionOpt {
	return newOverload(overloadID, false, argTypes, resultType, opts...)
}

// MemberOverload declares a receiver-style overload, where the first
// argument type is the receiver.
func MemberOverload(overloadID string, argTypes []*Type, resultType *Type, opts ...OverloadOpt) FunctionOpt {
	return newOverload(overloadID, true, argTypes, resultType, opts...)
}

func newOverload(overloadID string, memberFunction bool, argTypes []*Type, resultType *Type, opts ...OverloadOpt) FunctionOpt {
	return func(fn *FunctionDecl) (*FunctionDecl, error) {
		overload := &OverloadDecl{
			ID:               overloadID,
			ArgTypes:         argTypes,
			ResultType:       resultType,
			IsMemberFunction: memberFunction,
		}
		for _, opt := range opts {
			overload = opt(overload)
		}
		if err := fn.AddOverload(overload); err != nil {
			return nil, err
		}
		return fn, nil
	}
}

// SingletonUnaryBinding installs a single-argument implementation used for
// every overload of fn, gated on the runtime argument implementing trait
// (an OR of traits.* constants, or 0 for no trait requirement).
func SingletonUnaryBinding(binding UnaryOp, trait ...int) FunctionOpt {
	return func(fn *FunctionDecl) (*FunctionDecl, error) {
		fn.Singleton = &OverloadDecl{Unary: binding, RequiresTrait: orTraits(trait)}
		return fn, nil
	}
}

// SingletonBinaryBinding installs a two-argument implementation used for
// every overload of fn.
func SingletonBinaryBinding(binding BinaryOp, trait ...int) FunctionOpt {
	return func(fn *FunctionDecl) (*FunctionDecl, error) {
		fn.Singleton = &OverloadDecl{Binary: binding, RequiresTrait: orTraits(trait)}
		return fn, nil
	}
}

// SingletonFunctionBinding installs a variadic implementation used for
// every overload of fn.
func SingletonFunctionBinding(binding FunctionOp, trait ...int) FunctionOpt {
	return func(fn *FunctionDecl) (*FunctionDecl, error) {
		fn.Singleton = &OverloadDecl{Function: binding, RequiresTrait: orTraits(trait)}
		return fn, nil
	}
}

// DisableDeclaration marks fn as present only for backward-compatible
// dispatch of an already-checked expression, never offered to new programs
// during checking.
func DisableDeclaration(disabled bool) FunctionOpt {
	return func(fn *FunctionDecl) (*FunctionDecl, error) {
		fn.declarationDisabled = disabled
		return fn, nil
	}
}

func orTraits(ts []int) int {
	all := 0
	for _, t := range ts {
		all |= t
	}
	return all
}

// AddOverload registers overload with fn, rejecting a signature collision
// with an already-registered overload of a different shape.
func (fn *FunctionDecl) AddOverload(overload *OverloadDecl) error {
	existing, found := fn.Overloads[overload.ID]
	if found {
		if !existing.SignatureEquals(overload) {
			return fmt.Errorf("overload %s collides with an existing overload of a different signature", overload.ID)
		}
		fn.Overloads[overload.ID] = overload
		return nil
	}
	fn.Overloads[overload.ID] = overload
	fn.overloadOrder = append(fn.overloadOrder, overload.ID)
	return nil
}

// OverloadIDs returns the overload IDs in declaration order.
func (fn *FunctionDecl) OverloadIDs() []string {
	return fn.overloadOrder
}

// Merge combines fn with other, which must declare the same function name,
// returning a new FunctionDecl whose overload set is the union of both.
func (fn *FunctionDecl) Merge(other *FunctionDecl) (*FunctionDecl, error) {
	if fn.Name != other.Name {
		return nil, fmt.Errorf("cannot merge function %s with %s", fn.Name, other.Name)
	}
	merged := &FunctionDecl{Name: fn.Name, Overloads: map[string]*OverloadDecl{}}
	for _, id := range fn.overloadOrder {
		if err := merged.AddOverload(fn.Overloads[id]); err != nil {
			return nil, err
		}
	}
	for _, id := range other.overloadOrder {
		if err := merged.AddOverload(other.Overloads[id]); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// OverloadDecl is one signature of a FunctionDecl: its argument/result
// types for the checker, and its runtime binding for the interpreter.
type OverloadDecl struct {
	ID               string
	ArgTypes         []*Type
	ResultType       *Type
	IsMemberFunction bool

	Unary    UnaryOp
	Binary   BinaryOp
	Function FunctionOp

	// NonStrict permits the overload to run even when an argument is an
	// Err or Unknown, for short-circuiting overloads like logical_or.
	NonStrict bool

	// RequiresTrait, if non-zero, is additionally consulted before
	// dispatching: the runtime argument must implement this trait.
	RequiresTrait int
}

// SignatureEquals reports whether od and other declare the same arity,
// argument types, result type, and member-ness.
func (od *OverloadDecl) SignatureEquals(other *OverloadDecl) bool {
	if od.IsMemberFunction != other.IsMemberFunction || len(od.ArgTypes) != len(other.ArgTypes) {
		return false
	}
	for i, t := range od.ArgTypes {
		if !t.IsType(other.ArgTypes[i]) {
			return false
		}
	}
	return od.ResultType.IsType(other.ResultType)
}

// SignatureOverlaps reports whether od and other could both match the same
// call shape: same arity/member-ness and mutually assignable argument types
// at every position.
func (od *OverloadDecl) SignatureOverlaps(other *OverloadDecl) bool {
	if od.IsMemberFunction != other.IsMemberFunction || len(od.ArgTypes) != len(other.ArgTypes) {
		return false
	}
	for i, t := range od.ArgTypes {
		o := other.ArgTypes[i]
		if IsAssignable(NewMapping(), t, o) == nil && IsAssignable(NewMapping(), o, t) == nil {
			return false
		}
	}
	return true
}

// OverloadOpt configures an OverloadDecl at construction time.
type OverloadOpt func(*OverloadDecl) *OverloadDecl

// UnaryBinding attaches a single-argument runtime implementation.
func UnaryBinding(binding UnaryOp) OverloadOpt {
	return func(o *OverloadDecl) *OverloadDecl {
		o.Unary = binding
		return o
	}
}

// BinaryBinding attaches a two-argument runtime implementation.
func BinaryBinding(binding BinaryOp) OverloadOpt {
	return func(o *OverloadDecl) *OverloadDecl {
		o.Binary = binding
		return o
	}
}

// FunctionBinding attaches a variadic runtime implementation.
func FunctionBinding(binding FunctionOp) OverloadOpt {
	return func(o *OverloadDecl) *OverloadDecl {
		o.Function = binding
		return o
	}
}

// OverloadIsNonStrict marks the overload as tolerant of Err/Unknown
// arguments, for short-circuiting logical operators.
func OverloadIsNonStrict() OverloadOpt {
	return func(o *OverloadDecl) *OverloadDecl {
		o.NonStrict = true
		return o
	}
}

// OverloadOperandTrait requires the runtime receiver to implement trait
// (an OR of traits.* constants) before the overload is considered a match.
func OverloadOperandTrait(trait int) OverloadOpt {
	return func(o *OverloadDecl) *OverloadDecl {
		o.RequiresTrait = trait
		return o
	}
}

// hasBinding reports whether the overload carries any runtime
// implementation at all.
func (od *OverloadDecl) hasBinding() bool {
	return od.Unary != nil || od.Binary != nil || od.Function != nil
}

// Invoke applies the overload's runtime binding to args, after checking
// trait and (unless NonStrict) Err/Unknown propagation. It is the guarded
// entry point the dispatcher calls once it has selected od as the match
// for a call named funcName (used only to format a no-such-overload Err).
func (od *OverloadDecl) Invoke(funcName string, args []ref.Val) ref.Val {
	if !od.NonStrict {
		for _, arg := range args {
			if types.IsUnknownOrError(arg) {
				return arg
			}
		}
	}
	if od.RequiresTrait != 0 && len(args) > 0 {
		if !traitsMatch(od.RequiresTrait, args[0]) {
			return MaybeNoSuchOverload(funcName, args...)
		}
	}
	switch {
	case od.Unary != nil && len(args) == 1:
		return od.Unary(args[0])
	case od.Binary != nil && len(args) == 2:
		return od.Binary(args[0], args[1])
	case od.Function != nil:
		return od.Function(args...)
	default:
		return MaybeNoSuchOverload(funcName, args...)
	}
}

func traitsMatch(trait int, val ref.Val) bool {
	return val.Type().HasTrait(trait)
}

// MaybeNoSuchOverload propagates an Err/Unknown argument as-is, merges
// multiple Unknown arguments, or else builds a "no such overload" Err
// describing the call that failed to dispatch.
func MaybeNoSuchOverload(funcName string, args ...ref.Val) ref.Val {
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
	argTypes := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			argTypes[i] = "null"
			continue
		}
		argTypes[i] = a.Type().TypeName()
	}
	return types.NewErr("no such overload: %s(%s)", funcName, joinTypeNames(argTypes))
}

func joinTypeNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
