package cel

import (
	"fmt"

	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// EnvOption configures an Env during construction.
type EnvOption func(*Env) (*Env, error)

// Container sets the namespace expressions resolve names relative to.
func Container(name string) EnvOption {
	return func(e *Env) (*Env, error) {
		container, err := e.container.Extend(containers.Name(name))
		if err != nil {
			return nil, err
		}
		e.container = container
		return e, nil
	}
}

// Abbrevs registers simple-name aliases for the given qualified names.
func Abbrevs(qualifiedNames ...string) EnvOption {
	return func(e *Env) (*Env, error) {
		container, err := e.container.Extend(containers.Aliases(qualifiedNames...))
		if err != nil {
			return nil, err
		}
		e.container = container
		return e, nil
	}
}

// Variable declares a checker-visible identifier resolvable from the
// activation at evaluation time.
func Variable(name string, t *decls.Type) EnvOption {
	return Declarations(decls.NewVariable(name, t))
}

// Constant declares an identifier pre-bound to a value, folded into the
// plan rather than resolved from the activation.
func Constant(name string, t *decls.Type, value ref.Val) EnvOption {
	return Declarations(decls.NewConstant(name, t, value))
}

// Declarations adds variable declarations in bulk.
func Declarations(vars ...*decls.VariableDecl) EnvOption {
	return func(e *Env) (*Env, error) {
		e.variables = append(e.variables, vars...)
		return e, nil
	}
}

// Function declares a function with the given overloads and bindings.
func Function(name string, opts ...decls.FunctionOpt) EnvOption {
	return func(e *Env) (*Env, error) {
		fn, err := decls.NewFunction(name, opts...)
		if err != nil {
			return nil, err
		}
		e.functions = append(e.functions, fn)
		return e, nil
	}
}

// Functions adds pre-built function declarations in bulk.
func Functions(fns ...*decls.FunctionDecl) EnvOption {
	return func(e *Env) (*Env, error) {
		e.functions = append(e.functions, fns...)
		return e, nil
	}
}

// StructType declares a struct type and its fields to both the checker and
// the runtime registry. Fields declared with a wrapper type (for example
// decls.NullableType or decls.ObjectType("google.protobuf.Int64Value"))
// read back as null when unset.
func StructType(typeName string, fields map[string]*decls.Type) EnvOption {
	return func(e *Env) (*Env, error) {
		e.chkProvider.AddStructType(typeName, fields)
		runtimeFields := make(map[string]ref.Type, len(fields))
		for name, t := range fields {
			runtimeFields[name] = runtimeFieldType(e.registry, t)
		}
		if err := e.registry.RegisterStructType(typeName, runtimeFields); err != nil {
			return nil, err
		}
		for name, t := range fields {
			if isWrapperType(t) {
				e.registry.RegisterWrapperField(typeName, name)
			}
		}
		return e, nil
	}
}

// EnumType declares the named constants of an enum, resolvable as int
// identifiers at check time and through the registry at runtime.
func EnumType(enumName string, values map[string]int64) EnvOption {
	return func(e *Env) (*Env, error) {
		for name, value := range values {
			qualified := fmt.Sprintf("%s.%s", enumName, name)
			e.chkProvider.AddEnumValue(qualified, value)
			e.registry.RegisterEnumValue(qualified, value)
		}
		return e, nil
	}
}

// CustomTypeAdapter replaces the native-to-value adapter used for lazy
// activations and value construction.
func CustomTypeAdapter(adapter ref.TypeAdapter) EnvOption {
	return func(e *Env) (*Env, error) {
		e.adapter = adapter
		return e, nil
	}
}

// DisableStandardLibrary removes the built-in operator, conversion, and
// string/time function declarations from the environment.
func DisableStandardLibrary() EnvOption {
	return func(e *Env) (*Env, error) {
		e.stdlibDisabled = true
		return e, nil
	}
}

// DisableTypeChecking makes Compile pass the AST through unchecked;
// references and overloads then resolve dynamically during planning and
// dispatch.
func DisableTypeChecking() EnvOption {
	return func(e *Env) (*Env, error) {
		e.checkingDisabled = true
		return e, nil
	}
}

// Library bundles declarations an extension contributes to an environment.
type Library interface {
	// CompileOptions returns the options to apply when the library is
	// installed.
	CompileOptions() []EnvOption
}

// Lib installs a Library's options.
func Lib(l Library) EnvOption {
	return func(e *Env) (*Env, error) {
		var err error
		for _, opt := range l.CompileOptions() {
			e, err = opt(e)
			if err != nil {
				return nil, err
			}
		}
		return e, nil
	}
}

// runtimeFieldType maps a static field type descriptor onto the runtime
// type the registry records for the field.
func runtimeFieldType(provider ref.TypeProvider, t *decls.Type) ref.Type {
	switch t.Kind {
	case decls.BoolKind:
		return types.BoolType
	case decls.BytesKind:
		return types.BytesType
	case decls.DoubleKind:
		return types.DoubleType
	case decls.DurationKind:
		return types.DurationType
	case decls.IntKind:
		return types.IntType
	case decls.ListKind:
		return types.ListType
	case decls.MapKind:
		return types.MapType
	case decls.NullTypeKind:
		return types.NullType
	case decls.StringKind:
		return types.StringType
	case decls.TimestampKind:
		return types.TimestampType
	case decls.TypeKind:
		return types.TypeType
	case decls.UintKind:
		return types.UintType
	case decls.OpaqueKind:
		if t.RuntimeTypeName() == "optional_type" {
			return types.OptionalType
		}
		return types.NewTypeValue(t.RuntimeTypeName())
	case decls.StructKind:
		if rt, found := provider.FindStructType(t.RuntimeTypeName()); found {
			return rt
		}
		return types.NewObjectTypeValue(t.RuntimeTypeName())
	}
	return types.DynType
}

// isWrapperType reports whether t additionally admits null, the marker of
// a wrapper-typed field.
func isWrapperType(t *decls.Type) bool {
	switch t.Kind {
	case decls.NullTypeKind, decls.DynKind, decls.AnyKind, decls.TypeParamKind:
		return false
	}
	return t.IsAssignableType(decls.NullType)
}
