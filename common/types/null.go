package types

import (
	"fmt"
	"reflect"

	"github.com/exprcore/celcore/common/types/ref"
)

// Null is the runtime representation of the CEL null_type value. There is
// exactly one instance, NullValue.
type Null struct{}

// NullValue is the singleton null value.
var NullValue = Null{}

func (n Null) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch typeDesc.Kind() {
	case reflect.Ptr, reflect.Interface:
		return nil, nil
	}
	if typeDesc == jsonValueType {
		return nullJSON(), nil
	}
	return nil, fmt.Errorf("type conversion error from 'null_type' to '%v'", typeDesc)
}

func (n Null) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case StringType:
		return String("null")
	case NullType:
		return n
	case TypeType:
		return NullType
	}
	return NewErr("type conversion error from 'null_type' to '%s'", typeVal.TypeName())
}

func (n Null) Equal(other ref.Val) ref.Val {
	_, ok := other.(Null)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return True
}

func (n Null) Type() ref.Type {
	return NullType
}

func (n Null) Value() interface{} {
	return nil
}

// IsNull reports whether elem (a ref.Val or ref.Type) denotes NullType.
func IsNull(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == NullType
	case ref.Val:
		return IsNull(v.Type())
	}
	return false
}
