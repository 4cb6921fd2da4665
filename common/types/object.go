package types

import (
	"fmt"
	"reflect"

	"google.golang.org/grpc/codes"

	"github.com/exprcore/celcore/common/types/ref"
)

// Object is the runtime representation of a struct/message value: a named
// bundle of fields. Field access goes through Get (by String field name)
// and IsSet (for `has(msg.field)` presence testing).
//
// A field whose declared type is one of the well-known wrapper types
// (google.protobuf.BoolValue, Int32Value, ...) defaults to Null rather than
// the wrapped primitive's zero value when absent, per SPEC_FULL.md's
// struct-field-defaulting supplement; wrapperFields records which fields
// get that treatment.
type Object struct {
	typeName      string
	objType       ref.Type
	fields        map[string]ref.Val
	wrapperFields map[string]bool
}

// NewObject builds a struct value of the named type from a field map. Any
// field the type declares but that is absent from fields defaults to Null
// if it is a wrapper field, or is simply omitted from presence testing
// otherwise (interpreter-level field type lookups fill the true default).
func NewObject(typeName string, objType ref.Type, wrapperFields map[string]bool, fields map[string]ref.Val) *Object {
	return &Object{typeName: typeName, objType: objType, fields: fields, wrapperFields: wrapperFields}
}

// Get implements traits.Indexer, looking up a field by String name.
func (o *Object) Get(index ref.Val) ref.Val {
	fieldName, ok := index.(String)
	if !ok {
		return ValOrErr(index, "unsupported index type for struct field access")
	}
	v, found := o.fields[string(fieldName)]
	if !found {
		if o.wrapperFields[string(fieldName)] {
			return NullValue
		}
		return NewErrWithCode(codes.NotFound, "no such field: %s", fieldName)
	}
	return v
}

// IsSet implements traits.FieldTester.
func (o *Object) IsSet(field string) ref.Val {
	v, found := o.fields[field]
	if !found {
		return False
	}
	if o.wrapperFields[field] {
		return Bool(!IsNull(v))
	}
	return True
}

func (o *Object) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	if typeDesc.Kind() == reflect.Map {
		native := make(map[string]interface{}, len(o.fields))
		for k, v := range o.fields {
			native[k] = v.Value()
		}
		return native, nil
	}
	return nil, fmt.Errorf("unsupported native conversion from struct '%s' to '%v'", o.typeName, typeDesc)
}

func (o *Object) ConvertToType(typeVal ref.Type) ref.Val {
	switch {
	case typeVal == TypeType:
		return o.objType
	case typeVal.TypeName() == o.typeName:
		return o
	}
	return NewErr("type conversion error from '%s' to '%s'", o.typeName, typeVal.TypeName())
}

func (o *Object) Equal(other ref.Val) ref.Val {
	otherObj, ok := other.(*Object)
	if !ok || otherObj.typeName != o.typeName {
		return False
	}
	if len(o.fields) != len(otherObj.fields) {
		return False
	}
	for k, v := range o.fields {
		ov, found := otherObj.fields[k]
		if !found || v.Equal(ov) != True {
			return False
		}
	}
	return True
}

func (o *Object) Type() ref.Type {
	return o.objType
}

func (o *Object) Value() interface{} {
	native := make(map[string]interface{}, len(o.fields))
	for k, v := range o.fields {
		native[k] = v.Value()
	}
	return native
}

// IsObject reports whether elem (a ref.Val or ref.Type) denotes a struct
// value of the given type name.
func IsObject(elem ref.Val, typeName string) bool {
	return elem.Type().TypeName() == typeName
}
