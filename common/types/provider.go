package types

import (
	"fmt"
	"reflect"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/exprcore/celcore/common/types/ref"
)

// registry is the default ref.TypeRegistry: a plain in-memory map from
// struct type name to its runtime Type and field descriptors, with no
// dependency on a protobuf descriptor database (the teacher's pb.Db is
// out of scope here — this module's struct types are declared directly by
// the embedding application, not discovered from .proto files).
type registry struct {
	structTypes map[string]ref.Type
	fields      map[string]map[string]ref.Type
	wrapperType map[string]map[string]bool
	enums       map[string]int64
}

// NewRegistry builds an empty TypeRegistry: no struct types, wrapper fields
// or enum values are registered.
func NewRegistry() ref.TypeRegistry {
	return &registry{
		structTypes: map[string]ref.Type{},
		fields:      map[string]map[string]ref.Type{},
		wrapperType: map[string]map[string]bool{},
		enums:       map[string]int64{},
	}
}

// RegisterEnumValue makes a named enum constant resolvable both at check
// time (as an Int-typed identifier) and at runtime (EnumValue).
func (r *registry) RegisterEnumValue(name string, value int64) {
	r.enums[name] = value
}

func (r *registry) EnumValue(enumName string) ref.Val {
	v, found := r.enums[enumName]
	if !found {
		return NewErr("unknown enum name '%s'", enumName)
	}
	return Int(v)
}

func (r *registry) FindStructType(typeName string) (ref.Type, bool) {
	t, found := r.structTypes[typeName]
	return t, found
}

func (r *registry) FindStructFieldType(structType, fieldName string) (*ref.FieldType, bool) {
	fields, found := r.fields[structType]
	if !found {
		return nil, false
	}
	fieldType, found := fields[fieldName]
	if !found {
		return nil, false
	}
	_, isWrapper := r.wrapperType[structType][fieldName]
	return &ref.FieldType{Type: fieldType, SupportsPresence: isWrapper || true}, true
}

// RegisterStructType implements ref.TypeRegistry.
func (r *registry) RegisterStructType(typeName string, fields map[string]ref.Type) error {
	if _, exists := r.structTypes[typeName]; exists {
		return fmt.Errorf("struct type %q already registered", typeName)
	}
	r.structTypes[typeName] = NewObjectTypeValue(typeName)
	r.fields[typeName] = fields
	return nil
}

// RegisterWrapperField marks a field as wrapper-typed: absent from a
// constructed Object's field map, it reads back as Null rather than the
// wrapped primitive's zero value, per SPEC_FULL.md's field-defaulting
// supplement for google.protobuf.{Bool,Int32,Int64,UInt32,UInt64,Float,
// Double,String,Bytes}Value-shaped fields.
func (r *registry) RegisterWrapperField(typeName, fieldName string) {
	if r.wrapperType[typeName] == nil {
		r.wrapperType[typeName] = map[string]bool{}
	}
	r.wrapperType[typeName][fieldName] = true
}

func (r *registry) NewValue(structType string, fields map[string]ref.Val) ref.Val {
	objType, found := r.structTypes[structType]
	if !found {
		return NewErr("unknown type '%s'", structType)
	}
	declared, found := r.fields[structType]
	if !found {
		return NewErr("unknown type '%s'", structType)
	}
	for name := range fields {
		if _, ok := declared[name]; !ok {
			return NewErr("no such field: %s", name)
		}
	}
	return NewObject(structType, objType, r.wrapperType[structType], fields)
}

// NativeToValue implements ref.TypeAdapter for the built-in Go kinds the
// interpreter and any embedding application will hand it: scalars,
// []byte, time.Time, time.Duration, slices, and maps. Application-defined
// struct types should be constructed through NewValue instead, since a
// bare Go struct carries no declared CEL type name.
func (r *registry) NativeToValue(value interface{}) ref.Val {
	return NativeToValue(r, value)
}

// NativeToValue is the free-function form of the default adapter, usable
// without a registry for the built-in kinds.
func NativeToValue(adapter ref.TypeAdapter, value interface{}) ref.Val {
	switch v := value.(type) {
	case nil:
		return NullValue
	case ref.Val:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(v)
	case int32:
		return Int(v)
	case int64:
		return Int(v)
	case uint:
		return Uint(v)
	case uint32:
		return Uint(v)
	case uint64:
		return Uint(v)
	case float32:
		return Double(v)
	case float64:
		return Double(v)
	case string:
		return String(v)
	case []byte:
		return Bytes(v)
	case time.Time:
		return timestampOf(v)
	case time.Duration:
		return durationOf(v)
	case *timestamppb.Timestamp:
		return timestampFromProto(v)
	case *durationpb.Duration:
		return durationFromProto(v)
	case error:
		return NewErrFromError(v)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return NewDynamicList(adapter, value)
	case reflect.Map:
		return NewDynamicMap(adapter, value)
	case reflect.Ptr:
		if rv.IsNil() {
			return NullValue
		}
		return NativeToValue(adapter, rv.Elem().Interface())
	}
	return NewErr("unsupported native conversion from %T to ref.Val", value)
}
