package interpreter

import (
	"strings"
	"testing"

	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/operators"
	"github.com/exprcore/celcore/common/stdlib"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// testInterpreter wires a dispatcher loaded with the standard library to a
// fresh registry, evaluating hand-built ASTs in unchecked mode the way a
// host with checking disabled would.
func testInterpreter(t *testing.T) (Interpreter, ref.TypeRegistry) {
	t.Helper()
	disp := NewDispatcher()
	if err := disp.Add(stdlib.Functions()...); err != nil {
		t.Fatalf("dispatcher.Add() failed: %v", err)
	}
	container, err := containers.NewContainer()
	if err != nil {
		t.Fatalf("containers.NewContainer() failed: %v", err)
	}
	registry := types.NewRegistry()
	return NewInterpreter(disp, container, registry, registry), registry
}

func plan(t *testing.T, interp Interpreter, e ast.Expr) Interpretable {
	t.Helper()
	i, err := interp.NewInterpretable(ast.NewAST(e, nil))
	if err != nil {
		t.Fatalf("NewInterpretable() failed: %v", err)
	}
	return i
}

type testBuilder struct {
	fac    ast.ExprFactory
	nextID int64
}

func newTestBuilder() *testBuilder {
	return &testBuilder{fac: ast.NewExprFactory()}
}

func (b *testBuilder) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *testBuilder) lit(val interface{}) ast.Expr {
	return b.fac.NewLiteral(b.id(), types.NativeToValue(nil, val))
}

func (b *testBuilder) ident(name string) ast.Expr {
	return b.fac.NewIdent(b.id(), name)
}

func (b *testBuilder) call(fn string, args ...ast.Expr) ast.Expr {
	return b.fac.NewCall(b.id(), fn, args...)
}

func (b *testBuilder) memberCall(fn string, target ast.Expr, args ...ast.Expr) ast.Expr {
	return b.fac.NewMemberCall(b.id(), fn, target, args...)
}

func (b *testBuilder) list(elems ...ast.Expr) ast.Expr {
	return b.fac.NewList(b.id(), elems, nil)
}

func (b *testBuilder) mapLit(entries ...[2]ast.Expr) ast.Expr {
	exprEntries := make([]ast.EntryExpr, len(entries))
	for i, kv := range entries {
		exprEntries[i] = b.fac.NewMapEntry(b.id(), kv[0], kv[1], false)
	}
	return b.fac.NewMap(b.id(), exprEntries)
}

// existsOver builds the comprehension `range.exists(n, n > threshold)` in
// its macro-expanded form.
func (b *testBuilder) existsOver(iterRange ast.Expr, threshold int64) ast.Expr {
	return b.fac.NewComprehension(b.id(),
		iterRange,
		"n",
		"__result__",
		b.lit(false),
		b.lit(true),
		b.call(operators.LogicalOr,
			b.ident("__result__"),
			b.call(operators.Greater, b.ident("n"), b.lit(threshold))),
		b.ident("__result__"))
}

func TestInterpretArithmetic(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.Add, b.ident("x"), b.ident("y"))
	i := plan(t, interp, e)

	out := i.Eval(NewActivation(map[string]interface{}{"x": 10, "y": 20}))
	if out.Equal(types.Int(30)) != types.True {
		t.Errorf("got %v, wanted 30", out)
	}
}

func TestInterpretDeterminism(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.Multiply, b.ident("x"), b.lit(int64(3)))
	i := plan(t, interp, e)
	vars := map[string]interface{}{"x": 7}
	first := i.Eval(NewActivation(vars))
	second := i.Eval(NewActivation(vars))
	if first.Equal(second) != types.True {
		t.Errorf("got %v then %v, wanted equal results", first, second)
	}
}

func TestInterpretExists(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	list := b.list(b.lit(int64(1)), b.lit(int64(2)), b.lit(int64(3)))
	e := b.existsOver(list, 2)
	i := plan(t, interp, e)
	if out := i.Eval(EmptyActivation()); out != ref.Val(types.True) {
		t.Errorf("exists(n, n > 2) got %v, wanted true", out)
	}

	b = newTestBuilder()
	list = b.list(b.lit(int64(1)), b.lit(int64(2)), b.lit(int64(3)))
	e = b.existsOver(list, 10)
	i = plan(t, interp, e)
	if out := i.Eval(EmptyActivation()); out != ref.Val(types.False) {
		t.Errorf("exists(n, n > 10) got %v, wanted false", out)
	}
}

func TestInterpretStringFunctions(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.LogicalAnd,
		b.memberCall("startsWith", b.lit("abc"), b.lit("ab")),
		b.memberCall("endsWith", b.lit("abc"), b.lit("bc")))
	i := plan(t, interp, e)
	if out := i.Eval(EmptyActivation()); out != ref.Val(types.True) {
		t.Errorf("got %v, wanted true", out)
	}
}

func TestInterpretDivisionByZero(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.Divide, b.ident("x"), b.lit(int64(0)))
	i := plan(t, interp, e)
	out := i.Eval(NewActivation(map[string]interface{}{"x": 10}))
	errVal, ok := out.(*types.Err)
	if !ok {
		t.Fatalf("got %v, wanted division error", out)
	}
	if errVal.Error() != "division by zero" {
		t.Errorf("got %q, wanted 'division by zero'", errVal.Error())
	}
	if errVal.ExprID != e.ID() {
		t.Errorf("got node id %d, wanted %d", errVal.ExprID, e.ID())
	}
}

func TestInterpretShortCircuit(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	divByZero := func() ast.Expr {
		return b.call(operators.Equals,
			b.call(operators.Divide, b.lit(int64(1)), b.lit(int64(0))),
			b.lit(int64(1)))
	}

	e := b.call(operators.LogicalOr, b.lit(true), divByZero())
	if out := plan(t, interp, e).Eval(EmptyActivation()); out != ref.Val(types.True) {
		t.Errorf("true || (1/0 == 1) got %v, wanted true", out)
	}

	e = b.call(operators.LogicalAnd, b.lit(false), divByZero())
	if out := plan(t, interp, e).Eval(EmptyActivation()); out != ref.Val(types.False) {
		t.Errorf("false && (1/0 == 1) got %v, wanted false", out)
	}

	// The contract is commutative: the error operand may come first.
	e = b.call(operators.LogicalOr, divByZero(), b.lit(true))
	if out := plan(t, interp, e).Eval(EmptyActivation()); out != ref.Val(types.True) {
		t.Errorf("(1/0 == 1) || true got %v, wanted true", out)
	}

	e = b.call(operators.LogicalAnd, divByZero(), b.lit(false))
	if out := plan(t, interp, e).Eval(EmptyActivation()); out != ref.Val(types.False) {
		t.Errorf("(1/0 == 1) && false got %v, wanted false", out)
	}

	// With no neutral operand the error must surface.
	e = b.call(operators.LogicalAnd, divByZero(), b.lit(true))
	if out := plan(t, interp, e).Eval(EmptyActivation()); !types.IsError(out) {
		t.Errorf("(1/0 == 1) && true got %v, wanted error", out)
	}
}

func TestInterpretConditional(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	// b ? 1 : 1/0 evaluates only the selected branch.
	e := b.call(operators.Conditional,
		b.ident("b"),
		b.lit(int64(1)),
		b.call(operators.Divide, b.lit(int64(1)), b.lit(int64(0))))
	i := plan(t, interp, e)
	out := i.Eval(NewActivation(map[string]interface{}{"b": true}))
	if out.Equal(types.Int(1)) != types.True {
		t.Errorf("got %v, wanted 1", out)
	}
	out = i.Eval(NewActivation(map[string]interface{}{"b": false}))
	if !types.IsError(out) {
		t.Errorf("got %v, wanted division error from false branch", out)
	}
}

func TestInterpretInOperator(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.In, b.lit("k"), b.ident("m"))
	i := plan(t, interp, e)

	out := i.Eval(NewActivation(map[string]interface{}{
		"m": map[string]int{"k": 1, "j": 2},
	}))
	if out != ref.Val(types.True) {
		t.Errorf("'k' in m got %v, wanted true", out)
	}
	out = i.Eval(NewActivation(map[string]interface{}{
		"m": map[string]int{},
	}))
	if out != ref.Val(types.False) {
		t.Errorf("'k' in {} got %v, wanted false", out)
	}
}

func TestInterpretMissingAttribute(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.ident("missing")
	out := plan(t, interp, e).Eval(EmptyActivation())
	errVal, ok := out.(*types.Err)
	if !ok || !strings.Contains(errVal.Error(), "no such attribute: missing") {
		t.Errorf("got %v, wanted no such attribute error", out)
	}
}

func TestInterpretUnknownPropagation(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.Add, b.ident("x"), b.ident("y"))
	i := plan(t, interp, e)

	vars := NewPartialActivation(
		NewActivation(map[string]interface{}{"y": 2}), "x")
	out := i.Eval(vars)
	unk, ok := out.(*types.Unknown)
	if !ok {
		t.Fatalf("got %v, wanted unknown", out)
	}
	// The unknown is attributed to the node that referenced the
	// missing attribute.
	if len(unk.IDs) != 1 {
		t.Errorf("got attribution %v, wanted a single node id", unk.IDs)
	}
}

func TestInterpretUnknownMerging(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	x := b.ident("x")
	y := b.ident("y")
	e := b.call(operators.Add, x, y)
	i := plan(t, interp, e)

	vars := NewPartialActivation(EmptyActivation(), "x", "y")
	out := i.Eval(vars)
	unk, ok := out.(*types.Unknown)
	if !ok {
		t.Fatalf("got %v, wanted unknown", out)
	}
	if len(unk.IDs) != 2 || unk.IDs[0] != x.ID() || unk.IDs[1] != y.ID() {
		t.Errorf("got attribution %v, wanted [%d %d]", unk.IDs, x.ID(), y.ID())
	}
}

func TestInterpretErrorBeatsUnknown(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call(operators.Add,
		b.call(operators.Divide, b.lit(int64(1)), b.lit(int64(0))),
		b.ident("x"))
	i := plan(t, interp, e)
	vars := NewPartialActivation(EmptyActivation(), "x")
	out := i.Eval(vars)
	if !types.IsError(out) {
		t.Errorf("got %v, wanted error to win over unknown", out)
	}
}

func TestInterpretShortCircuitWithUnknown(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	// unknown || true == true; unknown && false == false.
	e := b.call(operators.LogicalOr, b.ident("x"), b.lit(true))
	vars := NewPartialActivation(EmptyActivation(), "x")
	if out := plan(t, interp, e).Eval(vars); out != ref.Val(types.True) {
		t.Errorf("unknown || true got %v, wanted true", out)
	}
	e = b.call(operators.LogicalAnd, b.ident("x"), b.lit(false))
	if out := plan(t, interp, e).Eval(vars); out != ref.Val(types.False) {
		t.Errorf("unknown && false got %v, wanted false", out)
	}
	e = b.call(operators.LogicalAnd, b.ident("x"), b.lit(true))
	if out := plan(t, interp, e).Eval(vars); !types.IsUnknown(out) {
		t.Errorf("unknown && true got %v, wanted unknown", out)
	}
}

func TestInterpretMapLiteralRepeatedKey(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.mapLit(
		[2]ast.Expr{b.lit("k"), b.lit(int64(1))},
		[2]ast.Expr{b.lit("k"), b.lit(int64(2))})
	out := plan(t, interp, e).Eval(EmptyActivation())
	errVal, ok := out.(*types.Err)
	if !ok || !strings.Contains(errVal.Error(), "repeated key") {
		t.Errorf("got %v, wanted repeated key error", out)
	}
}

func TestInterpretMapIterationOrder(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	// {'b': 1, 'a': 2, 'c': 3}.map(k, [k]) in macro-expanded form: collect keys in
	// declared order by concatenating single-element lists.
	mapExpr := b.mapLit(
		[2]ast.Expr{b.lit("b"), b.lit(int64(1))},
		[2]ast.Expr{b.lit("a"), b.lit(int64(2))},
		[2]ast.Expr{b.lit("c"), b.lit(int64(3))})
	e := b.fac.NewComprehension(b.id(),
		mapExpr,
		"k",
		"__result__",
		b.list(),
		b.lit(true),
		b.call(operators.Add, b.ident("__result__"), b.list(b.ident("k"))),
		b.ident("__result__"))
	out := plan(t, interp, e).Eval(EmptyActivation())
	want := types.NewValList([]ref.Val{types.String("b"), types.String("a"), types.String("c")})
	if out.Equal(want) != types.True {
		t.Errorf("got %v, wanted keys in insertion order [b a c]", out)
	}
}

func TestInterpretConstantFolding(t *testing.T) {
	disp := NewDispatcher()
	if err := disp.Add(stdlib.Functions()...); err != nil {
		t.Fatalf("dispatcher.Add() failed: %v", err)
	}
	container, err := containers.NewContainer()
	if err != nil {
		t.Fatalf("containers.NewContainer() failed: %v", err)
	}
	registry := types.NewRegistry()
	interp := NewInterpreter(disp, container, registry, registry,
		PureFunctions("size", operators.Add))

	b := newTestBuilder()
	e := b.call(operators.Add, b.call("size", b.lit("abc")), b.lit(int64(1)))
	i := plan(t, interp, e)
	cons, ok := i.(InterpretableConst)
	if !ok {
		t.Fatalf("got %T, wanted plan-time constant", i)
	}
	if cons.Value().Equal(types.Int(4)) != types.True {
		t.Errorf("got %v, wanted 4", cons.Value())
	}

	// A folding candidate that errors stays a live call so the error keeps
	// its evaluation-time attribution.
	b = newTestBuilder()
	e = b.call(operators.Divide, b.lit(int64(1)), b.lit(int64(0)))
	interp = NewInterpreter(disp, container, registry, registry,
		PureFunctions(operators.Divide))
	i = plan(t, interp, e)
	if _, ok := i.(InterpretableConst); ok {
		t.Error("got constant, wanted erroring call left unfolded")
	}
}

func TestInterpretStructFieldDefaults(t *testing.T) {
	disp := NewDispatcher()
	if err := disp.Add(stdlib.Functions()...); err != nil {
		t.Fatalf("dispatcher.Add() failed: %v", err)
	}
	container, err := containers.NewContainer()
	if err != nil {
		t.Fatalf("containers.NewContainer() failed: %v", err)
	}
	registry := types.NewRegistry()
	if err := registry.RegisterStructType("test.Msg", map[string]ref.Type{
		"name":    types.StringType,
		"count":   types.IntType,
		"wrapped": types.IntType,
		"child":   types.NewObjectTypeValue("test.Msg"),
	}); err != nil {
		t.Fatalf("RegisterStructType() failed: %v", err)
	}
	registry.RegisterWrapperField("test.Msg", "wrapped")
	interp := NewInterpreter(disp, container, registry, registry)

	fac := ast.NewExprFactory()
	structExpr := fac.NewStruct(1, "test.Msg", []ast.EntryExpr{
		fac.NewStructField(2, "name", fac.NewLiteral(3, types.String("a")), false),
	})

	cases := []struct {
		field string
		want  ref.Val
	}{
		{field: "name", want: types.String("a")},
		{field: "count", want: types.IntZero},
		{field: "wrapped", want: types.NullValue},
		{field: "child", want: types.NullValue},
	}
	for _, tc := range cases {
		sel := fac.NewSelect(4, structExpr, tc.field)
		out := plan(t, interp, sel).Eval(EmptyActivation())
		if out.Equal(tc.want) != types.True {
			t.Errorf("field %s got %v, wanted %v", tc.field, out, tc.want)
		}
	}

	// Presence testing: set fields are present, unset and wrapper fields
	// are not.
	hasSet := fac.NewPresenceTest(5, structExpr, "name")
	if out := plan(t, interp, hasSet).Eval(EmptyActivation()); out != ref.Val(types.True) {
		t.Errorf("has(msg.name) got %v, wanted true", out)
	}
	hasUnset := fac.NewPresenceTest(6, structExpr, "count")
	if out := plan(t, interp, hasUnset).Eval(EmptyActivation()); out != ref.Val(types.False) {
		t.Errorf("has(msg.count) got %v, wanted false", out)
	}
}

func TestInterpretTimestampAccessor(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.memberCall("getFullYear",
		b.call("google.protobuf.Timestamp", b.lit("2009-02-13T23:31:30Z")))
	out := plan(t, interp, e).Eval(EmptyActivation())
	if out.Equal(types.Int(2009)) != types.True {
		t.Errorf("got %v, wanted 2009", out)
	}
}

func TestInterpretListBoundaries(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()

	e := b.call("size", b.list())
	if out := plan(t, interp, e).Eval(EmptyActivation()); out.Equal(types.IntZero) != types.True {
		t.Errorf("size([]) got %v, wanted 0", out)
	}

	e = b.call(operators.Index, b.list(b.lit(int64(1))), b.lit(int64(1)))
	if out := plan(t, interp, e).Eval(EmptyActivation()); !types.IsError(out) {
		t.Errorf("[1][1] got %v, wanted index out of range", out)
	}

	e = b.call(operators.Index, b.list(b.lit(int64(1))), b.lit(int64(-1)))
	if out := plan(t, interp, e).Eval(EmptyActivation()); !types.IsError(out) {
		t.Errorf("[1][-1] got %v, wanted index out of range", out)
	}

	e = b.call(operators.In, b.lit(int64(1)), b.list())
	if out := plan(t, interp, e).Eval(EmptyActivation()); out != ref.Val(types.False) {
		t.Errorf("1 in [] got %v, wanted false", out)
	}
}

func TestInterpretSizeByCodePoint(t *testing.T) {
	interp, _ := testInterpreter(t)
	b := newTestBuilder()
	e := b.call("size", b.lit("🙂"))
	out := plan(t, interp, e).Eval(EmptyActivation())
	if out.Equal(types.Int(1)) != types.True {
		t.Errorf(`size("🙂") got %v, wanted 1`, out)
	}
}
