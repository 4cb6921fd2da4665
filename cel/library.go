package cel

import (
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// OptionalTypes installs the optional-value library: optional.of,
// optional.ofNonZeroValue, optional.none, and the hasValue/value receiver
// methods on optional values.
func OptionalTypes() EnvOption {
	return Lib(optionalLib{})
}

type optionalLib struct{}

func (optionalLib) CompileOptions() []EnvOption {
	paramA := decls.TypeParamType("A")
	optionalOfA := decls.OptionalType(paramA)
	return []EnvOption{
		Function("optional.of",
			decls.Overload("optional_of", []*decls.Type{paramA}, optionalOfA,
				decls.UnaryBinding(func(value ref.Val) ref.Val {
					return types.OptionalOf(value)
				}))),
		Function("optional.ofNonZeroValue",
			decls.Overload("optional_ofNonZeroValue", []*decls.Type{paramA}, optionalOfA,
				decls.UnaryBinding(func(value ref.Val) ref.Val {
					if types.IsZeroValue(value) {
						return types.OptionalNone
					}
					return types.OptionalOf(value)
				}))),
		Function("optional.none",
			decls.Overload("optional_none", []*decls.Type{}, optionalOfA,
				decls.FunctionBinding(func(args ...ref.Val) ref.Val {
					return types.OptionalNone
				}))),
		Function("hasValue",
			decls.MemberOverload("optional_hasValue", []*decls.Type{optionalOfA}, decls.BoolType,
				decls.UnaryBinding(func(value ref.Val) ref.Val {
					opt, ok := value.(*types.Optional)
					if !ok {
						return types.MaybeNoSuchOverloadErr(value)
					}
					return types.Bool(opt.HasValue())
				}))),
		Function("value",
			decls.MemberOverload("optional_value", []*decls.Type{optionalOfA}, paramA,
				decls.UnaryBinding(func(value ref.Val) ref.Val {
					opt, ok := value.(*types.Optional)
					if !ok {
						return types.MaybeNoSuchOverloadErr(value)
					}
					return opt.GetValue()
				}))),
	}
}
