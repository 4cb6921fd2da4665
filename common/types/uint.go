package types

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/exprcore/celcore/common/types/ref"
)

// Uint is the runtime representation of the CEL uint type.
type Uint uint64

// Add implements traits.Adder.
func (u Uint) Add(other ref.Val) ref.Val {
	otherUint, ok := other.(Uint)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	val, ok := addUint64Checked(uint64(u), uint64(otherUint))
	if !ok {
		return NewErr("unsigned integer overflow")
	}
	return Uint(val)
}

// Compare implements traits.Comparer, ordering a Uint against any numeric
// kind by mathematical value.
func (u Uint) Compare(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Uint:
		return compareUints(uint64(u), uint64(o))
	case Int:
		return reverseOrder(compareIntUint(int64(o), uint64(u)))
	case Double:
		return reverseOrder(compareDoubleUint(float64(o), uint64(u)))
	}
	return ValOrErr(other, "no such overload")
}

func (u Uint) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch typeDesc.Kind() {
	case reflect.Uint32:
		return uint32(u), nil
	case reflect.Uint64:
		return uint64(u), nil
	case reflect.Interface:
		if reflect.TypeOf(u).Implements(typeDesc) {
			return u, nil
		}
	}
	if typeDesc == jsonValueType {
		return numberJSON(float64(u)), nil
	}
	return nil, fmt.Errorf("unsupported type conversion from 'uint' to %v", typeDesc)
}

func (u Uint) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case IntType:
		if u > Uint(maxInt64) {
			return NewErr("range error converting %d to int", uint64(u))
		}
		return Int(u)
	case UintType:
		return u
	case DoubleType:
		return Double(u)
	case StringType:
		return String(strconv.FormatUint(uint64(u), 10))
	case TypeType:
		return UintType
	}
	return NewErr("type conversion error from 'uint' to '%s'", typeVal.TypeName())
}

// Divide implements traits.Divider.
func (u Uint) Divide(other ref.Val) ref.Val {
	otherUint, ok := other.(Uint)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	if otherUint == 0 {
		return NewErr("division by zero")
	}
	return u / otherUint
}

// Equal implements cross-numeric equality: a Uint compares equal to an Int
// or Double when they denote the same mathematical value.
func (u Uint) Equal(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Uint:
		return Bool(u == o)
	case Int:
		return Bool(o >= 0 && uint64(o) == uint64(u))
	case Double:
		n, ok := uintFromDouble(float64(o))
		return Bool(ok && uint64(u) == n)
	}
	return ValOrErr(other, "no such overload")
}

// Modulo implements traits.Modder.
func (u Uint) Modulo(other ref.Val) ref.Val {
	otherUint, ok := other.(Uint)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	if otherUint == 0 {
		return NewErr("modulus by zero")
	}
	return u % otherUint
}

// Multiply implements traits.Multiplier.
func (u Uint) Multiply(other ref.Val) ref.Val {
	otherUint, ok := other.(Uint)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	val, ok := multiplyUint64Checked(uint64(u), uint64(otherUint))
	if !ok {
		return NewErr("unsigned integer overflow")
	}
	return Uint(val)
}

// Subtract implements traits.Subtractor.
func (u Uint) Subtract(subtrahend ref.Val) ref.Val {
	otherUint, ok := subtrahend.(Uint)
	if !ok {
		return ValOrErr(subtrahend, "no such overload")
	}
	val, ok := subtractUint64Checked(uint64(u), uint64(otherUint))
	if !ok {
		return NewErr("unsigned integer overflow")
	}
	return Uint(val)
}

func (u Uint) Type() ref.Type {
	return UintType
}

func (u Uint) Value() interface{} {
	return uint64(u)
}

const maxInt64 = 1<<63 - 1

// IsUint reports whether elem (a ref.Val or ref.Type) denotes UintType.
func IsUint(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == UintType
	case ref.Val:
		return IsUint(v.Type())
	}
	return false
}
