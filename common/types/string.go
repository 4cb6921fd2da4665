package types

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/exprcore/celcore/common/types/ref"
)

// String is the runtime representation of the CEL string type: a sequence
// of Unicode code points. Size() counts runes, not bytes.
type String string

// Add implements traits.Adder.
func (s String) Add(other ref.Val) ref.Val {
	otherString, ok := other.(String)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return s + otherString
}

// Compare implements traits.Comparer.
func (s String) Compare(other ref.Val) ref.Val {
	otherString, ok := other.(String)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Int(strings.Compare(string(s), string(otherString)))
}

func (s String) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	if typeDesc.Kind() == reflect.String {
		return string(s), nil
	}
	if typeDesc == jsonValueType {
		return stringJSON(string(s)), nil
	}
	return nil, fmt.Errorf("unsupported native conversion from string to '%v'", typeDesc)
}

func (s String) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case IntType:
		if n, err := strconv.ParseInt(string(s), 10, 64); err == nil {
			return Int(n)
		}
		return NewErr("invalid string for conversion to int: %q", string(s))
	case UintType:
		if n, err := strconv.ParseUint(string(s), 10, 64); err == nil {
			return Uint(n)
		}
		return NewErr("invalid string for conversion to uint: %q", string(s))
	case DoubleType:
		if n, err := strconv.ParseFloat(string(s), 64); err == nil {
			return Double(n)
		}
		return NewErr("invalid string for conversion to double: %q", string(s))
	case BoolType:
		if b, err := strconv.ParseBool(string(s)); err == nil {
			return Bool(b)
		}
		return NewErr("invalid string for conversion to bool: %q", string(s))
	case BytesType:
		return Bytes(s)
	case DurationType:
		if d, err := time.ParseDuration(string(s)); err == nil {
			return durationOf(d)
		}
		return NewErr("invalid string for conversion to duration: %q", string(s))
	case TimestampType:
		if t, err := time.Parse(time.RFC3339, string(s)); err == nil {
			return timestampOf(t)
		}
		return NewErr("invalid string for conversion to timestamp: %q", string(s))
	case StringType:
		return s
	case TypeType:
		return StringType
	}
	return NewErr("type conversion error from 'string' to '%s'", typeVal.TypeName())
}

func (s String) Equal(other ref.Val) ref.Val {
	otherString, ok := other.(String)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Bool(s == otherString)
}

// Match implements traits.Matcher.
func (s String) Match(pattern ref.Val) ref.Val {
	patternStr, ok := pattern.(String)
	if !ok {
		return ValOrErr(pattern, "no such overload")
	}
	matched, err := regexp.MatchString(string(patternStr), string(s))
	if err != nil {
		return NewErrFromError(err)
	}
	return Bool(matched)
}

// Size implements traits.Sizer, counting Unicode code points.
func (s String) Size() ref.Val {
	return Int(utf8.RuneCountInString(string(s)))
}

func (s String) Type() ref.Type {
	return StringType
}

func (s String) Value() interface{} {
	return string(s)
}

// StringContains implements the `contains` member function.
func StringContains(str, substr ref.Val) ref.Val {
	s, ok := str.(String)
	if !ok {
		return MaybeNoSuchOverloadErr(str)
	}
	sub, ok := substr.(String)
	if !ok {
		return MaybeNoSuchOverloadErr(substr)
	}
	return Bool(strings.Contains(string(s), string(sub)))
}

// StringEndsWith implements the `endsWith` member function.
func StringEndsWith(str, suffix ref.Val) ref.Val {
	s, ok := str.(String)
	if !ok {
		return MaybeNoSuchOverloadErr(str)
	}
	suf, ok := suffix.(String)
	if !ok {
		return MaybeNoSuchOverloadErr(suffix)
	}
	return Bool(strings.HasSuffix(string(s), string(suf)))
}

// StringStartsWith implements the `startsWith` member function.
func StringStartsWith(str, prefix ref.Val) ref.Val {
	s, ok := str.(String)
	if !ok {
		return MaybeNoSuchOverloadErr(str)
	}
	pre, ok := prefix.(String)
	if !ok {
		return MaybeNoSuchOverloadErr(prefix)
	}
	return Bool(strings.HasPrefix(string(s), string(pre)))
}

// IsString reports whether elem (a ref.Val or ref.Type) denotes StringType.
func IsString(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == StringType
	case ref.Val:
		return IsString(v.Type())
	}
	return false
}
