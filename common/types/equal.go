package types

import "github.com/exprcore/celcore/common/types/ref"

// Equal computes equality between any two runtime values, per the
// heterogeneous equality contract: cross-numeric comparisons succeed by
// mathematical value, mismatched kinds compare false rather than erroring,
// and Err/Unknown operands propagate themselves.
func Equal(lhs, rhs ref.Val) ref.Val {
	if IsUnknownOrError(lhs) {
		return lhs
	}
	if IsUnknownOrError(rhs) {
		return rhs
	}
	if isNumericValue(lhs) && isNumericValue(rhs) {
		return lhs.Equal(rhs)
	}
	if lhs.Type().TypeName() != rhs.Type().TypeName() {
		return False
	}
	out := lhs.Equal(rhs)
	if IsError(out) {
		return False
	}
	return out
}

func isNumericValue(val ref.Val) bool {
	switch val.Type() {
	case IntType, UintType, DoubleType:
		return true
	}
	return false
}
