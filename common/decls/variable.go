package decls

import "github.com/exprcore/celcore/common/types/ref"

// VariableDecl declares an identifier visible to the checker and, through
// an Activation, resolvable at evaluation time.
type VariableDecl struct {
	Name string
	Type *Type

	// Value, if non-nil, is a constant binding (an enum member, for
	// example): the checker still types it by Type, and its value is
	// substituted at plan time rather than looked up in the Activation.
	Value ref.Val
}

// NewVariable declares name with the given static type.
func NewVariable(name string, t *Type) *VariableDecl {
	return &VariableDecl{Name: name, Type: t}
}

// NewConstant declares name as a compile-time constant.
func NewConstant(name string, t *Type, value ref.Val) *VariableDecl {
	return &VariableDecl{Name: name, Type: t, Value: value}
}
