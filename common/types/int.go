package types

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/exprcore/celcore/common/types/ref"
)

// Int is the runtime representation of the CEL int type (a signed 64-bit
// integer with checked arithmetic: overflow is a runtime Err, not wraparound).
type Int int64

// Int constants used pervasively as comparison results.
const (
	IntZero   = Int(0)
	IntOne    = Int(1)
	IntNegOne = Int(-1)
)

// Add implements traits.Adder.
func (i Int) Add(other ref.Val) ref.Val {
	otherInt, ok := other.(Int)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	val, ok := addInt64Checked(int64(i), int64(otherInt))
	if !ok {
		return NewErr("integer overflow")
	}
	return Int(val)
}

// Compare implements traits.Comparer, ordering an Int against any numeric
// kind by mathematical value.
func (i Int) Compare(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Int:
		return compareInts(int64(i), int64(o))
	case Uint:
		return compareIntUint(int64(i), uint64(o))
	case Double:
		return reverseOrder(compareDoubleInt(float64(o), int64(i)))
	}
	return ValOrErr(other, "no such overload")
}

func (i Int) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch typeDesc.Kind() {
	case reflect.Int32:
		return int32(i), nil
	case reflect.Int64:
		return int64(i), nil
	case reflect.Interface:
		if reflect.TypeOf(i).Implements(typeDesc) {
			return i, nil
		}
	}
	if typeDesc == jsonValueType {
		return numberJSON(float64(i)), nil
	}
	return nil, fmt.Errorf("unsupported type conversion from 'int' to %v", typeDesc)
}

func (i Int) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case IntType:
		return i
	case UintType:
		if i < 0 {
			return NewErr("range error converting %d to uint", int64(i))
		}
		return Uint(i)
	case DoubleType:
		return Double(i)
	case StringType:
		return String(strconv.FormatInt(int64(i), 10))
	case TimestampType:
		return timestampOf(unixSeconds(int64(i)))
	case TypeType:
		return IntType
	}
	return NewErr("type conversion error from 'int' to '%s'", typeVal.TypeName())
}

// Divide implements traits.Divider.
func (i Int) Divide(other ref.Val) ref.Val {
	otherInt, ok := other.(Int)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	if otherInt == IntZero {
		return NewErr("division by zero")
	}
	val, ok := divideInt64Checked(int64(i), int64(otherInt))
	if !ok {
		return NewErr("integer overflow")
	}
	return Int(val)
}

// Equal implements cross-numeric equality: an Int compares equal to a Uint
// or Double when they denote the same mathematical value.
func (i Int) Equal(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Int:
		return Bool(i == o)
	case Uint:
		return Bool(i >= 0 && uint64(i) == uint64(o))
	case Double:
		n, ok := intFromDouble(float64(o))
		return Bool(ok && int64(i) == n)
	}
	return ValOrErr(other, "no such overload")
}

// Modulo implements traits.Modder.
func (i Int) Modulo(other ref.Val) ref.Val {
	otherInt, ok := other.(Int)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	if otherInt == IntZero {
		return NewErr("modulus by zero")
	}
	val, ok := moduloInt64Checked(int64(i), int64(otherInt))
	if !ok {
		return NewErr("integer overflow")
	}
	return Int(val)
}

// Multiply implements traits.Multiplier.
func (i Int) Multiply(other ref.Val) ref.Val {
	otherInt, ok := other.(Int)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	val, ok := multiplyInt64Checked(int64(i), int64(otherInt))
	if !ok {
		return NewErr("integer overflow")
	}
	return Int(val)
}

// Negate implements traits.Negater.
func (i Int) Negate() ref.Val {
	val, ok := negateInt64Checked(int64(i))
	if !ok {
		return NewErr("integer overflow")
	}
	return Int(val)
}

// Subtract implements traits.Subtractor.
func (i Int) Subtract(subtrahend ref.Val) ref.Val {
	otherInt, ok := subtrahend.(Int)
	if !ok {
		return ValOrErr(subtrahend, "no such overload")
	}
	val, ok := subtractInt64Checked(int64(i), int64(otherInt))
	if !ok {
		return NewErr("integer overflow")
	}
	return Int(val)
}

func (i Int) Type() ref.Type {
	return IntType
}

func (i Int) Value() interface{} {
	return int64(i)
}

// IsInt reports whether elem (a ref.Val or ref.Type) denotes IntType.
func IsInt(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == IntType
	case ref.Val:
		return IsInt(v.Type())
	}
	return false
}
