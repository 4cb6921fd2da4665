// Package traits defines the optional runtime behaviors a ref.Type may
// support, following the bitmask-trait pattern used throughout the CEL
// value lattice: a Type advertises the traits it implements, and the
// standard library's overloads are guarded by an OperandTrait check
// (see common/decls.OverloadOperandTrait) rather than by a concrete Go
// type switch.
package traits

import "github.com/exprcore/celcore/common/types/ref"

// Trait bitmask constants. A ref.Type ORs together the traits its values
// support.
const (
	AdderType int = 1 << iota
	ComparerType
	DividerType
	ModderType
	MultiplierType
	NegatorType
	SubtractorType
	ContainerType
	IndexerType
	IterableType
	IteratorType
	SizerType
	MatcherType
	ReceiverType
	FieldTesterType
)

// Adder supports the `+` operator.
type Adder interface {
	Add(other ref.Val) ref.Val
}

// Subtractor supports the `-` binary operator.
type Subtractor interface {
	Subtract(subtrahend ref.Val) ref.Val
}

// Multiplier supports the `*` operator.
type Multiplier interface {
	Multiply(other ref.Val) ref.Val
}

// Divider supports the `/` operator.
type Divider interface {
	Divide(other ref.Val) ref.Val
}

// Modder supports the `%` operator.
type Modder interface {
	Modulo(other ref.Val) ref.Val
}

// Negater supports unary `-`.
type Negater interface {
	Negate() ref.Val
}

// Comparer supports relative ordering, returning a negative/zero/positive
// Int (or an Err/Unknown) the way common/types/bool.go's Compare does.
type Comparer interface {
	Compare(other ref.Val) ref.Val
}

// Sizer supports `size()`.
type Sizer interface {
	Size() ref.Val
}

// Indexer supports `_[_]`.
type Indexer interface {
	Get(index ref.Val) ref.Val
}

// Container supports the `in` operator.
type Container interface {
	Contains(value ref.Val) ref.Val
}

// Iterator supports comprehension iteration.
type Iterator interface {
	HasNext() ref.Val
	Next() ref.Val
}

// Iterable produces an Iterator, e.g. for list/map comprehension ranges.
type Iterable interface {
	Iterator() Iterator
}

// Lister is the full trait set for list values.
type Lister interface {
	ref.Val
	Adder
	Container
	Indexer
	Iterable
	Sizer
}

// Mapper is the full trait set for map values.
type Mapper interface {
	ref.Val
	Container
	Indexer
	Iterable
	Sizer

	// Find looks up a key, returning the value and whether it was present,
	// without producing a no-such-key Err the way Get does.
	Find(key ref.Val) (ref.Val, bool)
}

// FieldTester supports the test-only presence select ("has(...)").
type FieldTester interface {
	IsSet(field string) ref.Val
}

// Matcher supports regular-expression matching.
type Matcher interface {
	Match(pattern ref.Val) ref.Val
}

// Receiver supports dynamic dispatch of a member call by name, used by
// opaque/extension types that do not fit the other traits.
type Receiver interface {
	Receive(function string, overload string, args []ref.Val) ref.Val
}
