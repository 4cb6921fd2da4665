package types

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/exprcore/celcore/common/types/ref"
)

// Bool is the runtime representation of the CEL bool type.
type Bool bool

// Boolean constants.
const (
	False = Bool(false)
	True  = Bool(true)
)

// Compare implements traits.Comparer.
func (b Bool) Compare(other ref.Val) ref.Val {
	otherBool, ok := other.(Bool)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	if b == otherBool {
		return IntZero
	}
	if !b && otherBool {
		return IntNegOne
	}
	return IntOne
}

func (b Bool) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch typeDesc.Kind() {
	case reflect.Bool:
		return bool(b), nil
	case reflect.Ptr:
		if typeDesc.Elem().Kind() == reflect.Bool {
			p := bool(b)
			return &p, nil
		}
	case reflect.Interface:
		if reflect.TypeOf(b).Implements(typeDesc) {
			return b, nil
		}
	}
	if typeDesc == jsonValueType {
		return boolJSON(bool(b)), nil
	}
	return nil, fmt.Errorf("type conversion error from bool to '%v'", typeDesc)
}

func (b Bool) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case StringType:
		return String(strconv.FormatBool(bool(b)))
	case BoolType:
		return b
	case TypeType:
		return BoolType
	}
	return NewErr("type conversion error from 'bool' to '%s'", typeVal.TypeName())
}

func (b Bool) Equal(other ref.Val) ref.Val {
	otherBool, ok := other.(Bool)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Bool(b == otherBool)
}

// Negate implements traits.Negater.
func (b Bool) Negate() ref.Val {
	return !b
}

func (b Bool) Type() ref.Type {
	return BoolType
}

func (b Bool) Value() interface{} {
	return bool(b)
}

// IsBool reports whether elem (a ref.Val or ref.Type) denotes BoolType.
func IsBool(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == BoolType
	case ref.Val:
		return IsBool(v.Type())
	}
	return false
}
