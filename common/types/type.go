package types

import (
	"fmt"
	"reflect"

	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/common/types/traits"
)

// typeValue is the runtime representation of a type: it is itself a Val
// (CEL's `type` kind is a first-class value), and also implements
// ref.Type so that other values can report it from Type().
type typeValue struct {
	name   string
	traits int
}

var _ ref.Type = &typeValue{}

// NewTypeValue creates a named runtime type advertising the given traits.
func NewTypeValue(name string, traitMask ...int) ref.Type {
	trait := 0
	for _, t := range traitMask {
		trait |= t
	}
	return &typeValue{name: name, traits: trait}
}

// NewObjectTypeValue creates a runtime type for a struct/message kind.
func NewObjectTypeValue(name string) ref.Type {
	return &typeValue{name: name, traits: traits.FieldTesterType}
}

func (t *typeValue) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	return nil, fmt.Errorf("type conversion not supported for 'type'")
}

func (t *typeValue) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case TypeType:
		return TypeType
	case StringType:
		return String(t.TypeName())
	}
	return NewErr("type conversion error from 'type' to '%s'", typeVal.TypeName())
}

func (t *typeValue) Equal(other ref.Val) ref.Val {
	otherType, ok := other.(ref.Type)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Bool(t.TypeName() == otherType.TypeName())
}

func (t *typeValue) HasTrait(trait int) bool {
	return t.traits&trait == trait
}

func (t *typeValue) String() string {
	return t.name
}

func (t *typeValue) Type() ref.Type {
	return TypeType
}

func (t *typeValue) TypeName() string {
	return t.name
}

func (t *typeValue) Value() interface{} {
	return t.name
}

// Well-known runtime type singletons.
var (
	intUintTraits = traits.AdderType | traits.ComparerType | traits.DividerType |
		traits.ModderType | traits.MultiplierType | traits.NegatorType | traits.SubtractorType
	doubleTraits = traits.AdderType | traits.ComparerType | traits.DividerType |
		traits.MultiplierType | traits.NegatorType | traits.SubtractorType

	BoolType      = NewTypeValue("bool", traits.ComparerType, traits.NegatorType)
	BytesType     = NewTypeValue("bytes", traits.AdderType, traits.ComparerType, traits.SizerType)
	DoubleType    = NewTypeValue("double", doubleTraits)
	DurationType  = NewTypeValue("google.protobuf.Duration", traits.AdderType, traits.ComparerType, traits.NegatorType, traits.ReceiverType, traits.SubtractorType)
	DynType       = NewTypeValue("dyn")
	ErrType       = NewTypeValue("error")
	IntType       = NewTypeValue("int", intUintTraits)
	ListType      = NewTypeValue("list", traits.AdderType, traits.ContainerType, traits.IndexerType, traits.IterableType, traits.SizerType)
	MapType       = NewTypeValue("map", traits.ContainerType, traits.IndexerType, traits.IterableType, traits.SizerType)
	NullType      = NewTypeValue("null_type")
	OptionalType  = NewTypeValue("optional_type")
	StringType    = NewTypeValue("string", traits.AdderType, traits.ComparerType, traits.MatcherType, traits.SizerType)
	TimestampType = NewTypeValue("google.protobuf.Timestamp", traits.AdderType, traits.ComparerType, traits.ReceiverType, traits.SubtractorType)
	TypeType      = NewTypeValue("type")
	UintType      = NewTypeValue("uint", intUintTraits&^traits.NegatorType)
	UnknownType   = NewTypeValue("unknown")
)
