package types

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/exprcore/celcore/common/types/ref"
)

// Bytes is the runtime representation of the CEL bytes type.
type Bytes []byte

// Add implements traits.Adder.
func (b Bytes) Add(other ref.Val) ref.Val {
	otherBytes, ok := other.(Bytes)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return append(append(Bytes{}, b...), otherBytes...)
}

// Compare implements traits.Comparer.
func (b Bytes) Compare(other ref.Val) ref.Val {
	otherBytes, ok := other.(Bytes)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Int(bytes.Compare(b, otherBytes))
}

func (b Bytes) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	if typeDesc.Kind() != reflect.Slice || typeDesc.Elem().Kind() != reflect.Uint8 {
		return nil, fmt.Errorf("unsupported native conversion from bytes to '%v'", typeDesc)
	}
	return []byte(b), nil
}

func (b Bytes) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case StringType:
		if !utf8.Valid(b) {
			return String(base64.StdEncoding.EncodeToString(b))
		}
		return String(b)
	case BytesType:
		return b
	case TypeType:
		return BytesType
	}
	return NewErr("type conversion error from 'bytes' to '%s'", typeVal.TypeName())
}

func (b Bytes) Equal(other ref.Val) ref.Val {
	otherBytes, ok := other.(Bytes)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Bool(bytes.Equal(b, otherBytes))
}

// Size implements traits.Sizer.
func (b Bytes) Size() ref.Val {
	return Int(len(b))
}

func (b Bytes) Type() ref.Type {
	return BytesType
}

func (b Bytes) Value() interface{} {
	return []byte(b)
}

// IsBytes reports whether elem (a ref.Val or ref.Type) denotes BytesType.
func IsBytes(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == BytesType
	case ref.Val:
		return IsBytes(v.Type())
	}
	return false
}
