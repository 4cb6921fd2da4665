// Package decls describes the static type system used by the checker: the
// Type lattice checked expressions are typed against, and the Function/
// Overload declarations the checker resolves calls against and the
// interpreter ultimately binds to runtime implementations.
package decls

import (
	"fmt"
	"strings"

	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// Kind enumerates the shapes a Type can take.
type Kind int

const (
	// DynKind is assignable to and from every other type.
	DynKind Kind = iota + 1
	AnyKind
	BoolKind
	BytesKind
	DoubleKind
	DurationKind
	IntKind
	ListKind
	MapKind
	NullTypeKind
	OpaqueKind
	StringKind
	StructKind
	TimestampKind
	TypeKind
	TypeParamKind
	UintKind
)

// Type is a static type descriptor: the unit the checker assigns to every
// sub-expression and that overload resolution matches against.
type Type struct {
	// Kind indicates the type's shape: a primitive, a parametric container,
	// an opaque type, a struct, or a type parameter awaiting substitution.
	Kind Kind

	// Parameters holds the type arguments of a parametric type, such as the
	// element type of a list or the key/value types of a map.
	Parameters []*Type

	// runtimeTypeName is the name reported by the corresponding runtime
	// ref.Type, used to test assignability between struct/opaque types by
	// name rather than by identity.
	runtimeTypeName string

	// isAssignableType overrides the default assignability check. Used by
	// NullableType to additionally accept NullType.
	isAssignableType func(other *Type) bool
}

// Well-known, non-parametric types.
var (
	AnyType       = &Type{Kind: AnyKind, runtimeTypeName: "google.protobuf.Any"}
	BoolType      = &Type{Kind: BoolKind, runtimeTypeName: "bool"}
	BytesType     = &Type{Kind: BytesKind, runtimeTypeName: "bytes"}
	DoubleType    = &Type{Kind: DoubleKind, runtimeTypeName: "double"}
	DurationType  = &Type{Kind: DurationKind, runtimeTypeName: "google.protobuf.Duration"}
	DynType       = &Type{Kind: DynKind, runtimeTypeName: "dyn"}
	ErrorType     = &Type{Kind: DynKind, runtimeTypeName: "error"}
	IntType       = &Type{Kind: IntKind, runtimeTypeName: "int"}
	NullType      = &Type{Kind: NullTypeKind, runtimeTypeName: "null_type"}
	StringType    = &Type{Kind: StringKind, runtimeTypeName: "string"}
	TimestampType = &Type{Kind: TimestampKind, runtimeTypeName: "google.protobuf.Timestamp"}
	TypeType      = &Type{Kind: TypeKind, runtimeTypeName: "type"}
	UintType      = &Type{Kind: UintKind, runtimeTypeName: "uint"}
)

// ListType returns a parametric list type with the given element type.
func ListType(elem *Type) *Type {
	return &Type{Kind: ListKind, runtimeTypeName: "list", Parameters: []*Type{elem}}
}

// MapType returns a parametric map type with the given key and value types.
func MapType(key, value *Type) *Type {
	return &Type{Kind: MapKind, runtimeTypeName: "map", Parameters: []*Type{key, value}}
}

// OpaqueType returns a named parametric type with no runtime struct field
// layout of its own, such as optional_type.
func OpaqueType(name string, params ...*Type) *Type {
	return &Type{Kind: OpaqueKind, runtimeTypeName: name, Parameters: params}
}

// OptionalType returns the optional_type wrapping param.
func OptionalType(param *Type) *Type {
	return OpaqueType("optional_type", param)
}

// ObjectType returns the struct type named typeName, consulting the table of
// well-known protobuf wrapper/JSON types first.
func ObjectType(typeName string) *Type {
	if wk, found := checkedWellKnowns[typeName]; found {
		return wk
	}
	return &Type{Kind: StructKind, runtimeTypeName: typeName}
}

// NullableType returns a copy of t that also accepts NullType as assignable,
// modeling a protobuf wrapper-message field (google.protobuf.Int64Value and
// similar), which reads back as null when unset.
func NullableType(t *Type) *Type {
	nt := *t
	nt.isAssignableType = func(other *Type) bool {
		if other.Kind == NullTypeKind {
			return true
		}
		return nt.defaultIsAssignableType(other)
	}
	return &nt
}

// TypeParamType returns a type variable named name, bound by the checker's
// substitution map during overload resolution.
func TypeParamType(name string) *Type {
	return &Type{Kind: TypeParamKind, runtimeTypeName: name}
}

// TypeTypeWithParam returns the type-of-type for param, i.e. type(param).
func TypeTypeWithParam(param *Type) *Type {
	return &Type{Kind: TypeKind, runtimeTypeName: "type", Parameters: []*Type{param}}
}

// checkedWellKnowns maps protobuf wrapper and JSON well-known type names to
// their CEL type, mirroring the field-defaulting behavior the runtime object
// model implements for wrapper-typed struct fields.
var checkedWellKnowns = map[string]*Type{
	"google.protobuf.BoolValue":   NullableType(BoolType),
	"google.protobuf.BytesValue":  NullableType(BytesType),
	"google.protobuf.DoubleValue": NullableType(DoubleType),
	"google.protobuf.FloatValue":  NullableType(DoubleType),
	"google.protobuf.Int64Value":  NullableType(IntType),
	"google.protobuf.Int32Value":  NullableType(IntType),
	"google.protobuf.UInt64Value": NullableType(UintType),
	"google.protobuf.UInt32Value": NullableType(UintType),
	"google.protobuf.StringValue": NullableType(StringType),
	"google.protobuf.Any":         AnyType,
	"google.protobuf.Duration":    DurationType,
	"google.protobuf.Timestamp":   TimestampType,
	"google.protobuf.ListValue":   ListType(DynType),
	"google.protobuf.NullValue":   NullType,
	"google.protobuf.Struct":      MapType(StringType, DynType),
	"google.protobuf.Value":       DynType,
}

// isDyn reports whether t unifies with anything.
func (t *Type) isDyn() bool {
	return t.Kind == DynKind || t.Kind == AnyKind || t.Kind == TypeParamKind
}

// IsType reports whether t and other denote the same type, recursively
// comparing parameters. Unlike IsAssignableType, this is not widened by Dyn.
func (t *Type) IsType(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	if len(t.Parameters) != len(other.Parameters) {
		return false
	}
	if t.runtimeTypeName != other.runtimeTypeName {
		return false
	}
	for i, p := range t.Parameters {
		if !p.IsType(other.Parameters[i]) {
			return false
		}
	}
	return true
}

// IsAssignableType reports whether a value statically typed fromType may be
// used where t is expected.
func (t *Type) IsAssignableType(fromType *Type) bool {
	if t.isAssignableType != nil {
		return t.isAssignableType(fromType)
	}
	return t.defaultIsAssignableType(fromType)
}

func (t *Type) defaultIsAssignableType(other *Type) bool {
	if t == other || t.isDyn() || other.isDyn() {
		return true
	}
	if t.Kind != other.Kind || len(t.Parameters) != len(other.Parameters) {
		return false
	}
	if t.Kind != TypeParamKind && t.runtimeTypeName != other.runtimeTypeName {
		return false
	}
	for i, p := range t.Parameters {
		if !p.IsAssignableType(other.Parameters[i]) {
			return false
		}
	}
	return true
}

// IsAssignableRuntimeType reports whether val, a concrete runtime value, may
// be used where a value of static type t is expected. Only the runtime type
// name is compared; the parameter types of a list or map are not inspected.
func (t *Type) IsAssignableRuntimeType(val ref.Val) bool {
	if t.isDyn() {
		return true
	}
	if t.Kind == NullTypeKind {
		return types.IsUnknownOrError(val) || val.Type() == types.NullType
	}
	valType := val.Type()
	if valType.TypeName() != t.RuntimeTypeName() {
		return false
	}
	return true
}

// RuntimeTypeName returns the name the runtime ref.Type reports for this
// static type.
func (t *Type) RuntimeTypeName() string {
	return t.runtimeTypeName
}

// String renders t in the CEL surface-syntax style used in error messages.
func (t *Type) String() string {
	switch t.Kind {
	case ListKind:
		return fmt.Sprintf("list(%s)", t.Parameters[0])
	case MapKind:
		return fmt.Sprintf("map(%s, %s)", t.Parameters[0], t.Parameters[1])
	case TypeKind:
		if len(t.Parameters) == 1 {
			return fmt.Sprintf("type(%s)", t.Parameters[0])
		}
		return "type"
	case OpaqueKind:
		if len(t.Parameters) == 0 {
			return t.runtimeTypeName
		}
		params := make([]string, len(t.Parameters))
		for i, p := range t.Parameters {
			params[i] = p.String()
		}
		return fmt.Sprintf("%s(%s)", t.runtimeTypeName, strings.Join(params, ", "))
	default:
		return t.runtimeTypeName
	}
}
