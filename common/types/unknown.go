package types

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/exprcore/celcore/common/types/ref"
)

// Unknown is a data-gap marker: it represents an expression that could not
// be evaluated because a referenced attribute was absent from the
// activation, per the partial-evaluation support described by spec.md §4.5.
// It propagates through arithmetic and field access the same way an Err
// does, except that it commutes with short-circuit logical operators the
// same way Err does (the neutral side of `&&`/`||` wins) and yields to an
// Err when both appear in the same expression.
type Unknown struct {
	IDs AttributeIDs
}

// AttributeIDs is the set of expression IDs responsible for an Unknown.
type AttributeIDs []int64

// NewUnknown builds an Unknown value attributed to the given expression ID.
func NewUnknown(id int64) *Unknown {
	return &Unknown{IDs: AttributeIDs{id}}
}

// MergeUnknowns combines the attribution sets of two Unknown values, used
// when a binary operation has unknown operands on both sides.
func MergeUnknowns(u1, u2 *Unknown) *Unknown {
	if u1 == nil {
		return u2
	}
	if u2 == nil {
		return u1
	}
	merged := append(append(AttributeIDs{}, u1.IDs...), u2.IDs...)
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	return &Unknown{IDs: merged}
}

func (u *Unknown) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	return nil, fmt.Errorf("unknown value cannot be converted to native type %v", typeDesc)
}

func (u *Unknown) ConvertToType(typeVal ref.Type) ref.Val {
	return u
}

func (u *Unknown) Equal(other ref.Val) ref.Val {
	return u
}

func (u *Unknown) String() string {
	return fmt.Sprintf("unknown attribute(s): %v", []int64(u.IDs))
}

func (u *Unknown) Type() ref.Type {
	return UnknownType
}

func (u *Unknown) Value() interface{} {
	return u.IDs
}

// IsUnknown reports whether elem (a ref.Val or ref.Type) denotes UnknownType.
func IsUnknown(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == UnknownType
	case ref.Val:
		return IsUnknown(v.Type())
	}
	return false
}
