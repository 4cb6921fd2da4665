package types

import (
	"fmt"
	"reflect"

	"github.com/exprcore/celcore/common/types/ref"
)

// Optional wraps a value that may or may not be present, backing the
// optional_type supplement to the core language (optional.of,
// optional.ofNonZeroValue, optional.none, and the `.hasValue()`/`.value()`
// receiver methods).
type Optional struct {
	hasValue bool
	value    ref.Val
}

// OptionalNone is the singleton absent optional.
var OptionalNone = &Optional{hasValue: false}

// OptionalOf wraps value as a present optional.
func OptionalOf(value ref.Val) *Optional {
	return &Optional{hasValue: true, value: value}
}

// HasValue reports whether the optional holds a value.
func (o *Optional) HasValue() bool {
	return o.hasValue
}

// GetValue returns the wrapped value, or an Err if the optional is absent.
func (o *Optional) GetValue() ref.Val {
	if !o.hasValue {
		return NewErr("optional.none() dereference")
	}
	return o.value
}

func (o *Optional) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	if !o.hasValue {
		return nil, fmt.Errorf("optional.none() cannot be converted to native type %v", typeDesc)
	}
	return o.value.ConvertToNative(typeDesc)
}

func (o *Optional) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case OptionalType:
		return o
	case TypeType:
		return OptionalType
	}
	return NewErr("type conversion error from 'optional_type' to '%s'", typeVal.TypeName())
}

func (o *Optional) Equal(other ref.Val) ref.Val {
	otherOpt, ok := other.(*Optional)
	if !ok {
		return False
	}
	if o.hasValue != otherOpt.hasValue {
		return False
	}
	if !o.hasValue {
		return True
	}
	return o.value.Equal(otherOpt.value)
}

func (o *Optional) String() string {
	if !o.hasValue {
		return "optional.none()"
	}
	return fmt.Sprintf("optional.of(%v)", o.value)
}

func (o *Optional) Type() ref.Type {
	return OptionalType
}

func (o *Optional) Value() interface{} {
	if !o.hasValue {
		return nil
	}
	return o.value.Value()
}

// IsOptional reports whether elem (a ref.Val or ref.Type) denotes OptionalType.
func IsOptional(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == OptionalType
	case ref.Val:
		return IsOptional(v.Type())
	}
	return false
}

// IsZeroValue reports whether a runtime value is the zero value for its
// type, used by optional.ofNonZeroValue.
func IsZeroValue(value ref.Val) bool {
	switch v := value.(type) {
	case Bool:
		return v == False
	case Int:
		return v == IntZero
	case Uint:
		return v == 0
	case Double:
		return v == 0
	case String:
		return v == ""
	case Bytes:
		return len(v) == 0
	case Null:
		return true
	default:
		if sizer, ok := value.(interface{ Size() ref.Val }); ok {
			if sz, ok := sizer.Size().(Int); ok {
				return sz == 0
			}
		}
	}
	return false
}
