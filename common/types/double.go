package types

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/exprcore/celcore/common/types/ref"
)

// Double is the runtime representation of the CEL double type (IEEE 754
// double precision). Double arithmetic is not checked for overflow: it
// follows normal floating point semantics (infinities, NaN).
type Double float64

// Add implements traits.Adder.
func (d Double) Add(other ref.Val) ref.Val {
	otherDouble, ok := other.(Double)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return d + otherDouble
}

// Compare implements traits.Comparer, ordering a Double against any numeric
// kind by mathematical value. NaN operands cannot be ordered and compare as
// an Err.
func (d Double) Compare(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Double:
		return compareDoubles(float64(d), float64(o))
	case Int:
		return compareDoubleInt(float64(d), int64(o))
	case Uint:
		return compareDoubleUint(float64(d), uint64(o))
	}
	return ValOrErr(other, "no such overload")
}

func (d Double) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch typeDesc.Kind() {
	case reflect.Float32:
		return float32(d), nil
	case reflect.Float64:
		return float64(d), nil
	case reflect.Interface:
		if reflect.TypeOf(d).Implements(typeDesc) {
			return d, nil
		}
	}
	if typeDesc == jsonValueType {
		return numberJSON(float64(d)), nil
	}
	return nil, fmt.Errorf("unsupported type conversion from 'double' to %v", typeDesc)
}

func (d Double) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case IntType:
		return Int(d)
	case UintType:
		if d < 0 {
			return NewErr("range error converting %f to uint", float64(d))
		}
		return Uint(d)
	case DoubleType:
		return d
	case StringType:
		return String(strconv.FormatFloat(float64(d), 'f', -1, 64))
	case TypeType:
		return DoubleType
	}
	return NewErr("type conversion error from 'double' to '%s'", typeVal.TypeName())
}

// Divide implements traits.Divider. Division by zero follows IEEE 754
// (producing +/-Inf or NaN) rather than raising an Err.
func (d Double) Divide(other ref.Val) ref.Val {
	otherDouble, ok := other.(Double)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return d / otherDouble
}

// Equal implements cross-numeric equality: a Double compares equal to an Int
// or Uint when they denote the same mathematical value. NaN is never equal
// to anything, including itself.
func (d Double) Equal(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Double:
		return Bool(d == o)
	case Int:
		n, ok := intFromDouble(float64(d))
		return Bool(ok && n == int64(o))
	case Uint:
		n, ok := uintFromDouble(float64(d))
		return Bool(ok && n == uint64(o))
	}
	return ValOrErr(other, "no such overload")
}

// Multiply implements traits.Multiplier.
func (d Double) Multiply(other ref.Val) ref.Val {
	otherDouble, ok := other.(Double)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return d * otherDouble
}

// Negate implements traits.Negater.
func (d Double) Negate() ref.Val {
	return -d
}

// Subtract implements traits.Subtractor.
func (d Double) Subtract(subtrahend ref.Val) ref.Val {
	otherDouble, ok := subtrahend.(Double)
	if !ok {
		return ValOrErr(subtrahend, "no such overload")
	}
	return d - otherDouble
}

func (d Double) Type() ref.Type {
	return DoubleType
}

func (d Double) Value() interface{} {
	return float64(d)
}

// IsDouble reports whether elem (a ref.Val or ref.Type) denotes DoubleType.
func IsDouble(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == DoubleType
	case ref.Val:
		return IsDouble(v.Type())
	}
	return false
}
