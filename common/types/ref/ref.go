// Package ref defines the seam between the runtime value lattice and the
// rest of the pipeline: the checker, dispatcher, and interpreter only ever
// see values and types through these interfaces.
package ref

import "reflect"

// Val is a runtime value in the expression language's value lattice.
//
// Every concrete kind (Bool, Int, Uint, Double, String, Bytes, Null, List,
// Map, Struct, Timestamp, Duration, Type, Optional, Err, Unknown) implements
// Val. Trait-specific behavior (arithmetic, comparison, indexing, ...) is
// exposed through the optional interfaces in the traits package; callers
// type-assert a Val to the trait they need.
type Val interface {
	// ConvertToNative projects the value to a host-native representation
	// matching the requested reflect.Type, or returns an error if no such
	// conversion exists.
	ConvertToNative(typeDesc reflect.Type) (interface{}, error)

	// ConvertToType converts the value to another value of the requested
	// Type, or returns an Err value if the conversion is not supported.
	ConvertToType(typeValue Type) Val

	// Equal returns a Bool, or an Err/Unknown if equality cannot be
	// determined for the given operand.
	Equal(other Val) Val

	// Type returns the value's runtime Type.
	Type() Type

	// Value returns the unwrapped Go native value backing this Val.
	Value() interface{}
}

// Type describes the runtime type of a Val.
type Type interface {
	Val

	// HasTrait indicates whether the type implements the given trait
	// bitmask (see the traits package).
	HasTrait(trait int) bool

	// TypeName returns the fully qualified name of the type, e.g. "int",
	// "list", "google.protobuf.Duration", or a struct's message name.
	TypeName() string
}

// TypeProvider resolves struct field types and enum values for the checker
// and interpreter. It is the capability handed to the checker described in
// spec.md §4.1/§9 ("cyclic references between checker and environment").
type TypeProvider interface {
	// EnumValue returns the numeric value of the named enum constant.
	EnumValue(enumName string) Val

	// FindStructType returns the Type registered under the given qualified
	// name, if any.
	FindStructType(typeName string) (Type, bool)

	// FindStructFieldType returns the field's type and whether the field
	// supports presence testing.
	FindStructFieldType(structType, fieldName string) (*FieldType, bool)

	// NewValue constructs a struct value of the named type from a set of
	// field initializers.
	NewValue(structType string, fields map[string]Val) Val
}

// TypeAdapter converts host-native Go values into Val instances, per
// spec.md §4.5's native-to-value adapter.
type TypeAdapter interface {
	NativeToValue(value interface{}) Val
}

// TypeRegistry composes TypeProvider and TypeAdapter so that custom types
// registered with an environment can both be looked up during checking and
// converted to/from native values at runtime.
type TypeRegistry interface {
	TypeAdapter
	TypeProvider

	// RegisterStructType registers a struct type along with its field
	// name -> Type mapping.
	RegisterStructType(typeName string, fields map[string]Type) error

	// RegisterWrapperField marks a struct field as wrapper-typed, making it
	// default to null rather than the wrapped primitive's zero value when
	// read while unset.
	RegisterWrapperField(typeName, fieldName string)

	// RegisterEnumValue makes a named enum constant resolvable through
	// EnumValue.
	RegisterEnumValue(enumName string, value int64)
}

// FieldType describes a single struct field's type and presence semantics.
type FieldType struct {
	Type             Type
	SupportsPresence bool
}
