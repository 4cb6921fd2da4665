// Package stdlib declares the CEL standard library: every built-in
// operator, conversion, and string/time function, with its checker-facing
// signature and its runtime binding in one place.
package stdlib

import (
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/operators"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/common/types/traits"
)

var (
	stdFunctions []*decls.FunctionDecl
	stdTypes     []*decls.VariableDecl
)

func init() {
	paramA := decls.TypeParamType("A")
	paramB := decls.TypeParamType("B")
	listOfA := decls.ListType(paramA)
	mapOfAB := decls.MapType(paramA, paramB)

	stdTypes = []*decls.VariableDecl{
		decls.NewVariable("bool", decls.TypeTypeWithParam(decls.BoolType)),
		decls.NewVariable("bytes", decls.TypeTypeWithParam(decls.BytesType)),
		decls.NewVariable("double", decls.TypeTypeWithParam(decls.DoubleType)),
		decls.NewVariable("google.protobuf.Duration", decls.TypeTypeWithParam(decls.DurationType)),
		decls.NewVariable("int", decls.TypeTypeWithParam(decls.IntType)),
		decls.NewVariable("list", decls.TypeTypeWithParam(listOfA)),
		decls.NewVariable("map", decls.TypeTypeWithParam(mapOfAB)),
		decls.NewVariable("null_type", decls.TypeTypeWithParam(decls.NullType)),
		decls.NewVariable("string", decls.TypeTypeWithParam(decls.StringType)),
		decls.NewVariable("google.protobuf.Timestamp", decls.TypeTypeWithParam(decls.TimestampType)),
		decls.NewVariable("type", decls.TypeTypeWithParam(decls.TypeType)),
		decls.NewVariable("uint", decls.TypeTypeWithParam(decls.UintType)),
	}

	stdFunctions = []*decls.FunctionDecl{
		// Logical and/or, the conditional operator, and equality are all
		// special-cased by the planner/interpreter for short-circuiting and
		// structural comparison; their declarations exist only so the
		// checker can type them, and carry no runtime binding. Logical not
		// is dispatched like any other function.
		function(operators.Conditional,
			decls.Overload("conditional", argTypes(decls.BoolType, paramA, paramA), paramA,
				decls.OverloadIsNonStrict())),
		function(operators.LogicalAnd,
			decls.Overload("logical_and", argTypes(decls.BoolType, decls.BoolType), decls.BoolType,
				decls.OverloadIsNonStrict())),
		function(operators.LogicalOr,
			decls.Overload("logical_or", argTypes(decls.BoolType, decls.BoolType), decls.BoolType,
				decls.OverloadIsNonStrict())),
		function(operators.LogicalNot,
			decls.Overload("logical_not", argTypes(decls.BoolType), decls.BoolType),
			decls.SingletonUnaryBinding(func(val ref.Val) ref.Val {
				b, ok := val.(types.Bool)
				if !ok {
					return types.MaybeNoSuchOverloadErr(val)
				}
				return b.Negate()
			})),
		function(operators.Equals,
			decls.Overload("equals", argTypes(paramA, paramA), decls.BoolType)),
		function(operators.NotEquals,
			decls.Overload("not_equals", argTypes(paramA, paramA), decls.BoolType)),

		// Arithmetic.
		function(operators.Add,
			decls.Overload("add_bytes", argTypes(decls.BytesType, decls.BytesType), decls.BytesType),
			decls.Overload("add_double", argTypes(decls.DoubleType, decls.DoubleType), decls.DoubleType),
			decls.Overload("add_duration_duration", argTypes(decls.DurationType, decls.DurationType), decls.DurationType),
			decls.Overload("add_duration_timestamp", argTypes(decls.DurationType, decls.TimestampType), decls.TimestampType),
			decls.Overload("add_timestamp_duration", argTypes(decls.TimestampType, decls.DurationType), decls.TimestampType),
			decls.Overload("add_int64", argTypes(decls.IntType, decls.IntType), decls.IntType),
			decls.Overload("add_list", argTypes(listOfA, listOfA), listOfA),
			decls.Overload("add_string", argTypes(decls.StringType, decls.StringType), decls.StringType),
			decls.Overload("add_uint64", argTypes(decls.UintType, decls.UintType), decls.UintType),
			decls.SingletonBinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return lhs.(traits.Adder).Add(rhs)
			}, traits.AdderType)),
		function(operators.Divide,
			decls.Overload("divide_double", argTypes(decls.DoubleType, decls.DoubleType), decls.DoubleType),
			decls.Overload("divide_int64", argTypes(decls.IntType, decls.IntType), decls.IntType),
			decls.Overload("divide_uint64", argTypes(decls.UintType, decls.UintType), decls.UintType),
			decls.SingletonBinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return lhs.(traits.Divider).Divide(rhs)
			}, traits.DividerType)),
		function(operators.Modulo,
			decls.Overload("modulo_int64", argTypes(decls.IntType, decls.IntType), decls.IntType),
			decls.Overload("modulo_uint64", argTypes(decls.UintType, decls.UintType), decls.UintType),
			decls.SingletonBinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return lhs.(traits.Modder).Modulo(rhs)
			}, traits.ModderType)),
		function(operators.Multiply,
			decls.Overload("multiply_double", argTypes(decls.DoubleType, decls.DoubleType), decls.DoubleType),
			decls.Overload("multiply_int64", argTypes(decls.IntType, decls.IntType), decls.IntType),
			decls.Overload("multiply_uint64", argTypes(decls.UintType, decls.UintType), decls.UintType),
			decls.SingletonBinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return lhs.(traits.Multiplier).Multiply(rhs)
			}, traits.MultiplierType)),
		function(operators.Negate,
			decls.Overload("negate_double", argTypes(decls.DoubleType), decls.DoubleType),
			decls.Overload("negate_int64", argTypes(decls.IntType), decls.IntType),
			decls.SingletonUnaryBinding(func(val ref.Val) ref.Val {
				return val.(traits.Negater).Negate()
			}, traits.NegatorType)),
		function(operators.Subtract,
			decls.Overload("subtract_double", argTypes(decls.DoubleType, decls.DoubleType), decls.DoubleType),
			decls.Overload("subtract_duration_duration", argTypes(decls.DurationType, decls.DurationType), decls.DurationType),
			decls.Overload("subtract_int64", argTypes(decls.IntType, decls.IntType), decls.IntType),
			decls.Overload("subtract_timestamp_duration", argTypes(decls.TimestampType, decls.DurationType), decls.TimestampType),
			decls.Overload("subtract_timestamp_timestamp", argTypes(decls.TimestampType, decls.TimestampType), decls.DurationType),
			decls.Overload("subtract_uint64", argTypes(decls.UintType, decls.UintType), decls.UintType),
			decls.SingletonBinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return lhs.(traits.Subtractor).Subtract(rhs)
			}, traits.SubtractorType)),

		// Relations. Each widens its argument types across the numeric
		// kinds so `1 < 2.0` and `2u <= 3` check without an explicit cast.
		relation(operators.Less, comparisonResult(-1)),
		relation(operators.LessEquals, comparisonResult(-1, 0)),
		relation(operators.Greater, comparisonResult(1)),
		relation(operators.GreaterEquals, comparisonResult(1, 0)),

		// Indexing.
		function(operators.Index,
			decls.Overload("index_list", argTypes(listOfA, decls.IntType), paramA),
			decls.Overload("index_map", argTypes(mapOfAB, paramA), paramB),
			decls.SingletonBinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				return lhs.(traits.Indexer).Get(rhs)
			}, traits.IndexerType)),

		// Collections.
		function(operators.In,
			decls.Overload("in_list", argTypes(paramA, listOfA), decls.BoolType),
			decls.Overload("in_map", argTypes(paramA, mapOfAB), decls.BoolType),
			decls.SingletonBinaryBinding(inAggregate)),
		function("size",
			decls.Overload("size_bytes", argTypes(decls.BytesType), decls.IntType),
			decls.MemberOverload("bytes_size", argTypes(decls.BytesType), decls.IntType),
			decls.Overload("size_list", argTypes(listOfA), decls.IntType),
			decls.MemberOverload("list_size", argTypes(listOfA), decls.IntType),
			decls.Overload("size_map", argTypes(mapOfAB), decls.IntType),
			decls.MemberOverload("map_size", argTypes(mapOfAB), decls.IntType),
			decls.Overload("size_string", argTypes(decls.StringType), decls.IntType),
			decls.MemberOverload("string_size", argTypes(decls.StringType), decls.IntType),
			decls.SingletonUnaryBinding(func(val ref.Val) ref.Val {
				return val.(traits.Sizer).Size()
			}, traits.SizerType)),

		// Type conversions.
		function("type",
			decls.Overload("to_type", argTypes(paramA), decls.TypeTypeWithParam(paramA)),
			decls.SingletonUnaryBinding(convertToType(types.TypeType))),
		function("bool",
			decls.Overload("bool_to_bool", argTypes(decls.BoolType), decls.BoolType, decls.UnaryBinding(identity)),
			decls.Overload("string_to_bool", argTypes(decls.StringType), decls.BoolType, decls.UnaryBinding(convertToType(types.BoolType)))),
		function("bytes",
			decls.Overload("bytes_to_bytes", argTypes(decls.BytesType), decls.BytesType, decls.UnaryBinding(identity)),
			decls.Overload("string_to_bytes", argTypes(decls.StringType), decls.BytesType, decls.UnaryBinding(convertToType(types.BytesType)))),
		function("double",
			decls.Overload("double_to_double", argTypes(decls.DoubleType), decls.DoubleType, decls.UnaryBinding(identity)),
			decls.Overload("int64_to_double", argTypes(decls.IntType), decls.DoubleType, decls.UnaryBinding(convertToType(types.DoubleType))),
			decls.Overload("string_to_double", argTypes(decls.StringType), decls.DoubleType, decls.UnaryBinding(convertToType(types.DoubleType))),
			decls.Overload("uint64_to_double", argTypes(decls.UintType), decls.DoubleType, decls.UnaryBinding(convertToType(types.DoubleType)))),
		function("google.protobuf.Duration",
			decls.Overload("duration_to_duration", argTypes(decls.DurationType), decls.DurationType, decls.UnaryBinding(identity)),
			decls.Overload("int64_to_duration", argTypes(decls.IntType), decls.DurationType, decls.UnaryBinding(convertToType(types.DurationType))),
			decls.Overload("string_to_duration", argTypes(decls.StringType), decls.DurationType, decls.UnaryBinding(convertToType(types.DurationType)))),
		function("dyn",
			decls.Overload("to_dyn", argTypes(paramA), decls.DynType),
			decls.SingletonUnaryBinding(identity)),
		function("int",
			decls.Overload("int64_to_int64", argTypes(decls.IntType), decls.IntType, decls.UnaryBinding(identity)),
			decls.Overload("double_to_int64", argTypes(decls.DoubleType), decls.IntType, decls.UnaryBinding(convertToType(types.IntType))),
			decls.Overload("duration_to_int64", argTypes(decls.DurationType), decls.IntType, decls.UnaryBinding(convertToType(types.IntType))),
			decls.Overload("string_to_int64", argTypes(decls.StringType), decls.IntType, decls.UnaryBinding(convertToType(types.IntType))),
			decls.Overload("timestamp_to_int64", argTypes(decls.TimestampType), decls.IntType, decls.UnaryBinding(convertToType(types.IntType))),
			decls.Overload("uint64_to_int64", argTypes(decls.UintType), decls.IntType, decls.UnaryBinding(convertToType(types.IntType)))),
		function("string",
			decls.Overload("string_to_string", argTypes(decls.StringType), decls.StringType, decls.UnaryBinding(identity)),
			decls.Overload("bool_to_string", argTypes(decls.BoolType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType))),
			decls.Overload("bytes_to_string", argTypes(decls.BytesType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType))),
			decls.Overload("double_to_string", argTypes(decls.DoubleType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType))),
			decls.Overload("duration_to_string", argTypes(decls.DurationType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType))),
			decls.Overload("int64_to_string", argTypes(decls.IntType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType))),
			decls.Overload("timestamp_to_string", argTypes(decls.TimestampType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType))),
			decls.Overload("uint64_to_string", argTypes(decls.UintType), decls.StringType, decls.UnaryBinding(convertToType(types.StringType)))),
		function("google.protobuf.Timestamp",
			decls.Overload("timestamp_to_timestamp", argTypes(decls.TimestampType), decls.TimestampType, decls.UnaryBinding(identity)),
			decls.Overload("int64_to_timestamp", argTypes(decls.IntType), decls.TimestampType, decls.UnaryBinding(convertToType(types.TimestampType))),
			decls.Overload("string_to_timestamp", argTypes(decls.StringType), decls.TimestampType, decls.UnaryBinding(convertToType(types.TimestampType)))),
		function("uint",
			decls.Overload("uint64_to_uint64", argTypes(decls.UintType), decls.UintType, decls.UnaryBinding(identity)),
			decls.Overload("double_to_uint64", argTypes(decls.DoubleType), decls.UintType, decls.UnaryBinding(convertToType(types.UintType))),
			decls.Overload("int64_to_uint64", argTypes(decls.IntType), decls.UintType, decls.UnaryBinding(convertToType(types.UintType))),
			decls.Overload("string_to_uint64", argTypes(decls.StringType), decls.UintType, decls.UnaryBinding(convertToType(types.UintType)))),

		// String functions.
		function("contains",
			decls.MemberOverload("contains_string", argTypes(decls.StringType, decls.StringType), decls.BoolType,
				decls.BinaryBinding(types.StringContains))),
		function("endsWith",
			decls.MemberOverload("ends_with_string", argTypes(decls.StringType, decls.StringType), decls.BoolType,
				decls.BinaryBinding(types.StringEndsWith))),
		function("startsWith",
			decls.MemberOverload("starts_with_string", argTypes(decls.StringType, decls.StringType), decls.BoolType,
				decls.BinaryBinding(types.StringStartsWith))),
		function("matches",
			decls.Overload("matches", argTypes(decls.StringType, decls.StringType), decls.BoolType),
			decls.MemberOverload("matches_string", argTypes(decls.StringType, decls.StringType), decls.BoolType),
			decls.SingletonBinaryBinding(func(str, pat ref.Val) ref.Val {
				return str.(traits.Matcher).Match(pat)
			}, traits.MatcherType)),

		// Timestamp / duration component accessors. These carry no binding
		// of their own: the interpreter falls back to the receiver's
		// Receive method (traits.ReceiverType) when a call has no Unary/
		// Binary/Function/Singleton binding, which is how
		// Timestamp.Receive/Duration.Receive in common/types are reached.
		timeGetter(types.TimeGetFullYear, true),
		timeGetter(types.TimeGetMonth, true),
		timeGetter(types.TimeGetDayOfYear, true),
		timeGetter(types.TimeGetDate, true),
		timeGetter(types.TimeGetDayOfMonth, true),
		timeGetter(types.TimeGetDayOfWeek, true),
		durationGetter(types.TimeGetHours),
		durationGetter(types.TimeGetMinutes),
		durationGetter(types.TimeGetSeconds),
		durationGetter(types.TimeGetMilliseconds),
	}
}

// Functions returns the standard library's function declarations.
func Functions() []*decls.FunctionDecl {
	return stdFunctions
}

// Types returns the standard library's well-known type identifiers
// (`int`, `string`, `list`, ...), resolvable as values of kind `type`.
func Types() []*decls.VariableDecl {
	return stdTypes
}

func function(name string, opts ...decls.FunctionOpt) *decls.FunctionDecl {
	fn, err := decls.NewFunction(name, opts...)
	if err != nil {
		panic(err)
	}
	return fn
}

func argTypes(args ...*decls.Type) []*decls.Type {
	return args
}

func identity(val ref.Val) ref.Val {
	return val
}

func convertToType(t ref.Type) decls.UnaryOp {
	return func(val ref.Val) ref.Val {
		return val.ConvertToType(t)
	}
}

func inAggregate(lhs, rhs ref.Val) ref.Val {
	if rhs.Type().HasTrait(traits.ContainerType) {
		return rhs.(traits.Container).Contains(lhs)
	}
	return types.ValOrErr(rhs, "no such overload")
}

// comparisonResult builds a Singleton binding that maps a traits.Comparer's
// -1/0/1 result onto Bool, accepting whichever of wanted the comparison
// produced.
func comparisonResult(wanted ...int) decls.BinaryOp {
	match := map[int]bool{}
	for _, w := range wanted {
		match[w] = true
	}
	return func(lhs, rhs ref.Val) ref.Val {
		cmp := lhs.(traits.Comparer).Compare(rhs)
		i, ok := cmp.(types.Int)
		if !ok {
			return cmp
		}
		return types.Bool(match[int(i)])
	}
}

// relation declares the bool, string, bytes, timestamp and duration
// signatures a comparison operator accepts, plus all nine int/uint/double
// pairings, and binds them through the Comparer trait.
func relation(op string, binding decls.BinaryOp) *decls.FunctionDecl {
	num := []*decls.Type{decls.IntType, decls.UintType, decls.DoubleType}
	opts := []decls.FunctionOpt{
		decls.Overload(op+"_bool", argTypes(decls.BoolType, decls.BoolType), decls.BoolType),
		decls.Overload(op+"_string", argTypes(decls.StringType, decls.StringType), decls.BoolType),
		decls.Overload(op+"_bytes", argTypes(decls.BytesType, decls.BytesType), decls.BoolType),
		decls.Overload(op+"_timestamp", argTypes(decls.TimestampType, decls.TimestampType), decls.BoolType),
		decls.Overload(op+"_duration", argTypes(decls.DurationType, decls.DurationType), decls.BoolType),
	}
	for _, a := range num {
		for _, b := range num {
			opts = append(opts, decls.Overload(op+"_"+a.RuntimeTypeName()+"_"+b.RuntimeTypeName(),
				argTypes(a, b), decls.BoolType))
		}
	}
	opts = append(opts, decls.SingletonBinaryBinding(binding, traits.ComparerType))
	return function(op, opts...)
}

func timeGetter(name string, withTz bool) *decls.FunctionDecl {
	opts := []decls.FunctionOpt{
		decls.MemberOverload(name+"_timestamp", argTypes(decls.TimestampType), decls.IntType),
	}
	if withTz {
		opts = append(opts, decls.MemberOverload(name+"_timestamp_tz",
			argTypes(decls.TimestampType, decls.StringType), decls.IntType))
	}
	return function(name, opts...)
}

func durationGetter(name string) *decls.FunctionDecl {
	return function(name,
		decls.MemberOverload(name+"_timestamp", argTypes(decls.TimestampType), decls.IntType),
		decls.MemberOverload(name+"_timestamp_tz", argTypes(decls.TimestampType, decls.StringType), decls.IntType),
		decls.MemberOverload(name+"_duration", argTypes(decls.DurationType), decls.IntType))
}
