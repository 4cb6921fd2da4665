package checker

import (
	"strings"
	"testing"

	"github.com/exprcore/celcore/common"
	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/operators"
	"github.com/exprcore/celcore/common/stdlib"
	"github.com/exprcore/celcore/common/types"
)

// builder numbers expression nodes the way a parser would, so tests can
// hand-build the trees the out-of-scope grammar front end normally emits.
type builder struct {
	fac    ast.ExprFactory
	nextID int64
}

func newBuilder() *builder {
	return &builder{fac: ast.NewExprFactory()}
}

func (b *builder) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *builder) lit(val interface{}) ast.Expr {
	return b.fac.NewLiteral(b.id(), types.NativeToValue(nil, val))
}

func (b *builder) ident(name string) ast.Expr {
	return b.fac.NewIdent(b.id(), name)
}

func (b *builder) call(fn string, args ...ast.Expr) ast.Expr {
	return b.fac.NewCall(b.id(), fn, args...)
}

func (b *builder) memberCall(fn string, target ast.Expr, args ...ast.Expr) ast.Expr {
	return b.fac.NewMemberCall(b.id(), fn, target, args...)
}

func (b *builder) sel(operand ast.Expr, field string) ast.Expr {
	return b.fac.NewSelect(b.id(), operand, field)
}

func (b *builder) presence(operand ast.Expr, field string) ast.Expr {
	return b.fac.NewPresenceTest(b.id(), operand, field)
}

func (b *builder) list(elems ...ast.Expr) ast.Expr {
	return b.fac.NewList(b.id(), elems, nil)
}

func newTestEnv(t *testing.T, containerName string, provider TypeProvider, vars ...*decls.VariableDecl) *Env {
	t.Helper()
	container, err := containers.NewContainer(containers.Name(containerName))
	if err != nil {
		t.Fatalf("containers.NewContainer(%q) failed: %v", containerName, err)
	}
	if provider == nil {
		provider = NewInMemoryTypeProvider()
	}
	env := NewEnv(container, provider)
	if err := env.AddIdents(stdlib.Types()...); err != nil {
		t.Fatalf("env.AddIdents(stdlib.Types()) failed: %v", err)
	}
	if err := env.AddFunctions(stdlib.Functions()...); err != nil {
		t.Fatalf("env.AddFunctions(stdlib.Functions()) failed: %v", err)
	}
	if err := env.AddIdents(vars...); err != nil {
		t.Fatalf("env.AddIdents(vars) failed: %v", err)
	}
	return env
}

func checkExpr(env *Env, e ast.Expr) (*ast.AST, *common.Errors) {
	return Check(ast.NewAST(e, nil), nil, env)
}

func TestCheckArithmetic(t *testing.T) {
	env := newTestEnv(t, "", nil,
		decls.NewVariable("x", decls.IntType),
		decls.NewVariable("y", decls.IntType))
	b := newBuilder()
	e := b.call(operators.Add, b.ident("x"), b.ident("y"))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.IntType) {
		t.Errorf("got type %v, wanted int", got)
	}
	if got := checked.GetOverloadIDs(e.ID()); len(got) != 1 || got[0] != "add_int64" {
		t.Errorf("got overloads %v, wanted [add_int64]", got)
	}
}

func TestCheckUndeclaredReference(t *testing.T) {
	env := newTestEnv(t, "", nil)
	b := newBuilder()
	e := b.ident("z")
	checked, errs := checkExpr(env, e)
	if errs.Empty() {
		t.Fatal("expected undeclared reference error")
	}
	if !strings.Contains(errs.String(), "undeclared reference to 'z'") {
		t.Errorf("got %q, wanted undeclared reference", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.ErrorType) {
		t.Errorf("got type %v, wanted error", got)
	}
}

func TestCheckNoMatchingOverload(t *testing.T) {
	env := newTestEnv(t, "", nil)
	b := newBuilder()
	e := b.call(operators.Add, b.lit(int64(1)), b.lit("a"))
	_, errs := checkExpr(env, e)
	if !strings.Contains(errs.String(), "found no matching overload for '_+_'") {
		t.Errorf("got %q, wanted no matching overload", errs)
	}
}

func TestCheckOverloadResolutionStable(t *testing.T) {
	// Adding a strictly less-specific overload must not change the
	// resolution of a previously matching call.
	env := newTestEnv(t, "", nil)
	lessSpecific, err := decls.NewFunction(operators.Add,
		decls.Overload("add_dyn", []*decls.Type{decls.DynType, decls.DynType}, decls.DynType))
	if err != nil {
		t.Fatalf("decls.NewFunction() failed: %v", err)
	}
	if err := env.AddFunctions(lessSpecific); err != nil {
		t.Fatalf("env.AddFunctions() failed: %v", err)
	}
	b := newBuilder()
	e := b.call(operators.Add, b.lit(int64(1)), b.lit(int64(2)))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetOverloadIDs(e.ID()); len(got) == 0 || got[0] != "add_int64" {
		t.Errorf("got overloads %v, wanted add_int64 first", got)
	}
}

func TestCheckMemberCall(t *testing.T) {
	env := newTestEnv(t, "", nil)
	b := newBuilder()
	e := b.call(operators.LogicalAnd,
		b.memberCall("startsWith", b.lit("abc"), b.lit("ab")),
		b.memberCall("endsWith", b.lit("abc"), b.lit("bc")))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.BoolType) {
		t.Errorf("got type %v, wanted bool", got)
	}
}

func TestCheckConditional(t *testing.T) {
	env := newTestEnv(t, "", nil,
		decls.NewVariable("b", decls.BoolType),
		decls.NewVariable("d", decls.DynType))
	b := newBuilder()

	sameBranches := b.call(operators.Conditional, b.ident("b"), b.lit(int64(1)), b.lit(int64(2)))
	checked, errs := checkExpr(env, sameBranches)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(sameBranches.ID()); !got.IsType(decls.IntType) {
		t.Errorf("got type %v, wanted int", got)
	}

	b = newBuilder()
	dynBranch := b.call(operators.Conditional, b.ident("b"), b.lit(int64(1)), b.ident("d"))
	checked, errs = checkExpr(env, dynBranch)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(dynBranch.ID()); !got.IsType(decls.DynType) {
		t.Errorf("got type %v, wanted dyn", got)
	}

	b = newBuilder()
	mismatched := b.call(operators.Conditional, b.ident("b"), b.lit(int64(1)), b.lit("a"))
	_, errs = checkExpr(env, mismatched)
	if errs.Empty() {
		t.Error("expected no matching overload for mismatched branches")
	}
}

func TestCheckListLiteral(t *testing.T) {
	env := newTestEnv(t, "", nil)
	b := newBuilder()
	e := b.list(b.lit(int64(1)), b.lit(int64(2)))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.ListType(decls.IntType)) {
		t.Errorf("got type %v, wanted list(int)", got)
	}

	b = newBuilder()
	empty := b.list()
	checked, errs = checkExpr(env, empty)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(empty.ID()); !got.IsType(decls.ListType(decls.DynType)) {
		t.Errorf("got type %v, wanted list(dyn) for empty literal", got)
	}

	b = newBuilder()
	mixed := b.list(b.lit(int64(1)), b.lit("a"))
	_, errs = checkExpr(env, mixed)
	if !strings.Contains(errs.String(), "does not match previous type") {
		t.Errorf("got %q, wanted aggregate mismatch", errs)
	}
}

func TestCheckMapSelect(t *testing.T) {
	env := newTestEnv(t, "", nil,
		decls.NewVariable("m", decls.MapType(decls.StringType, decls.IntType)))
	b := newBuilder()
	e := b.sel(b.ident("m"), "k")
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.IntType) {
		t.Errorf("got type %v, wanted int", got)
	}

	b = newBuilder()
	has := b.presence(b.ident("m"), "k")
	checked, errs = checkExpr(env, has)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(has.ID()); !got.IsType(decls.BoolType) {
		t.Errorf("got type %v, wanted bool for presence test", got)
	}
}

func TestCheckSelectUnsupportedType(t *testing.T) {
	env := newTestEnv(t, "", nil, decls.NewVariable("i", decls.IntType))
	b := newBuilder()
	e := b.sel(b.ident("i"), "field")
	_, errs := checkExpr(env, e)
	if !strings.Contains(errs.String(), "does not support field selection") {
		t.Errorf("got %q, wanted field selection error", errs)
	}
}

func TestCheckStructLiteral(t *testing.T) {
	provider := NewInMemoryTypeProvider()
	provider.AddStructType("pkg.Msg", map[string]*decls.Type{
		"name":  decls.StringType,
		"count": decls.IntType,
	})
	env := newTestEnv(t, "pkg", provider)
	fac := ast.NewExprFactory()

	e := fac.NewStruct(1, "Msg", []ast.EntryExpr{
		fac.NewStructField(2, "name", fac.NewLiteral(3, types.String("a")), false),
	})
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.ObjectType("pkg.Msg")) {
		t.Errorf("got type %v, wanted pkg.Msg", got)
	}

	bad := fac.NewStruct(4, "Msg", []ast.EntryExpr{
		fac.NewStructField(5, "count", fac.NewLiteral(6, types.String("a")), false),
	})
	_, errs = checkExpr(env, bad)
	if !strings.Contains(errs.String(), "expected type of field 'count'") {
		t.Errorf("got %q, wanted field type mismatch", errs)
	}

	undefined := fac.NewStruct(7, "Msg", []ast.EntryExpr{
		fac.NewStructField(8, "missing", fac.NewLiteral(9, types.String("a")), false),
	})
	_, errs = checkExpr(env, undefined)
	if !strings.Contains(errs.String(), "undefined field 'missing'") {
		t.Errorf("got %q, wanted undefined field", errs)
	}
}

func TestCheckStructFieldSelect(t *testing.T) {
	provider := NewInMemoryTypeProvider()
	provider.AddStructType("pkg.Msg", map[string]*decls.Type{"name": decls.StringType})
	env := newTestEnv(t, "", provider,
		decls.NewVariable("msg", decls.ObjectType("pkg.Msg")))
	b := newBuilder()
	e := b.sel(b.ident("msg"), "name")
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.StringType) {
		t.Errorf("got type %v, wanted string", got)
	}

	b = newBuilder()
	missing := b.sel(b.ident("msg"), "missing")
	checked, errs = checkExpr(env, missing)
	if !strings.Contains(errs.String(), "undefined field 'missing'") {
		t.Errorf("got %q, wanted undefined field", errs)
	}
	if got := checked.GetType(missing.ID()); !got.IsType(decls.DynType) {
		t.Errorf("got type %v, wanted dyn for undefined field", got)
	}
}

func TestCheckContainerResolution(t *testing.T) {
	env := newTestEnv(t, "a.b", nil,
		decls.NewVariable("a.b.x", decls.IntType))
	b := newBuilder()
	e := b.ident("x")
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	refInfo, found := checked.GetReference(e.ID())
	if !found || refInfo.Name != "a.b.x" {
		t.Errorf("got reference %+v, wanted canonical name a.b.x", refInfo)
	}
}

func TestCheckQualifiedEnumSelect(t *testing.T) {
	provider := NewInMemoryTypeProvider()
	provider.AddEnumValue("pkg.Color.RED", 2)
	env := newTestEnv(t, "", provider)
	b := newBuilder()
	e := b.sel(b.sel(b.ident("pkg"), "Color"), "RED")
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.IntType) {
		t.Errorf("got type %v, wanted int", got)
	}
	refInfo, found := checked.GetReference(e.ID())
	if !found || refInfo.Name != "pkg.Color.RED" {
		t.Fatalf("got reference %+v, wanted pkg.Color.RED", refInfo)
	}
	if refInfo.Value == nil || refInfo.Value.Equal(types.Int(2)) != types.True {
		t.Errorf("got constant %v, wanted 2", refInfo.Value)
	}
}

func TestCheckQualifiedFunctionCall(t *testing.T) {
	env := newTestEnv(t, "", nil)
	fn, err := decls.NewFunction("math.max",
		decls.Overload("math_max_int", []*decls.Type{decls.IntType, decls.IntType}, decls.IntType))
	if err != nil {
		t.Fatalf("decls.NewFunction() failed: %v", err)
	}
	if err := env.AddFunctions(fn); err != nil {
		t.Fatalf("env.AddFunctions() failed: %v", err)
	}
	b := newBuilder()
	e := b.memberCall("max", b.ident("math"), b.lit(int64(1)), b.lit(int64(2)))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	refInfo, found := checked.GetReference(e.ID())
	if !found || refInfo.Name != "math.max" {
		t.Errorf("got reference %+v, wanted math.max", refInfo)
	}
}

func TestCheckComprehension(t *testing.T) {
	env := newTestEnv(t, "", nil)
	fac := ast.NewExprFactory()
	// [1, 2, 3].exists(n, n > 2) in its macro-expanded form.
	e := fac.NewComprehension(13,
		fac.NewList(1, []ast.Expr{
			fac.NewLiteral(2, types.Int(1)),
			fac.NewLiteral(3, types.Int(2)),
			fac.NewLiteral(4, types.Int(3)),
		}, nil),
		"n",
		"__result__",
		fac.NewLiteral(5, types.False),
		fac.NewLiteral(6, types.True),
		fac.NewCall(7, operators.LogicalOr,
			fac.NewIdent(8, "__result__"),
			fac.NewCall(9, operators.Greater,
				fac.NewIdent(10, "n"),
				fac.NewLiteral(11, types.Int(2)))),
		fac.NewIdent(12, "__result__"))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.BoolType) {
		t.Errorf("got type %v, wanted bool", got)
	}
	// The iteration variable's type is inferred from the range element.
	if got := checked.GetType(10); !got.IsType(decls.IntType) {
		t.Errorf("got iter var type %v, wanted int", got)
	}
}

func TestCheckComprehensionBadRange(t *testing.T) {
	env := newTestEnv(t, "", nil)
	fac := ast.NewExprFactory()
	e := fac.NewComprehension(7,
		fac.NewLiteral(1, types.Int(42)),
		"n",
		"__result__",
		fac.NewLiteral(2, types.False),
		fac.NewLiteral(3, types.True),
		fac.NewIdent(4, "__result__"),
		fac.NewIdent(5, "__result__"))
	_, errs := checkExpr(env, e)
	if !strings.Contains(errs.String(), "cannot be range of a comprehension") {
		t.Errorf("got %q, wanted comprehension range error", errs)
	}
}

func TestCheckComprehensionScoping(t *testing.T) {
	// The result expression must not see the iteration variable.
	env := newTestEnv(t, "", nil)
	fac := ast.NewExprFactory()
	e := fac.NewComprehension(8,
		fac.NewList(1, []ast.Expr{fac.NewLiteral(2, types.Int(1))}, nil),
		"n",
		"__result__",
		fac.NewLiteral(3, types.False),
		fac.NewLiteral(4, types.True),
		fac.NewIdent(5, "__result__"),
		fac.NewIdent(6, "n"))
	_, errs := checkExpr(env, e)
	if !strings.Contains(errs.String(), "undeclared reference to 'n'") {
		t.Errorf("got %q, wanted undeclared reference to iter var in result", errs)
	}
}

func TestCheckParametricSize(t *testing.T) {
	env := newTestEnv(t, "", nil,
		decls.NewVariable("xs", decls.ListType(decls.StringType)))
	b := newBuilder()
	e := b.call("size", b.ident("xs"))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.IntType) {
		t.Errorf("got type %v, wanted int", got)
	}
}

func TestCheckIndexResultType(t *testing.T) {
	env := newTestEnv(t, "", nil,
		decls.NewVariable("m", decls.MapType(decls.StringType, decls.DoubleType)))
	b := newBuilder()
	e := b.call(operators.Index, b.ident("m"), b.lit("k"))
	checked, errs := checkExpr(env, e)
	if !errs.Empty() {
		t.Fatalf("check failed: %s", errs)
	}
	if got := checked.GetType(e.ID()); !got.IsType(decls.DoubleType) {
		t.Errorf("got type %v, wanted double", got)
	}
}

func TestCheckLocations(t *testing.T) {
	source := common.NewTextSource("<test>", "x + z")
	env := newTestEnv(t, "", nil, decls.NewVariable("x", decls.IntType))
	fac := ast.NewExprFactory()
	e := fac.NewCall(3, operators.Add, fac.NewIdent(1, "x"), fac.NewIdent(2, "z"))
	info := ast.NewSourceInfo("<test>")
	info.SetOffset(1, 0)
	info.SetOffset(2, 4)
	info.SetOffset(3, 2)
	_, errs := Check(ast.NewAST(e, info), source, env)
	found := false
	for _, err := range errs.GetErrors() {
		if strings.Contains(err.Message, "undeclared reference to 'z'") &&
			err.Location.Line() == 1 && err.Location.Column() == 4 {
			found = true
		}
	}
	if !found {
		t.Errorf("got %q, wanted undeclared reference at 1:4", errs)
	}
}
