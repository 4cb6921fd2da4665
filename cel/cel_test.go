package cel

import (
	"strings"
	"sync"
	"testing"

	"github.com/exprcore/celcore/common"
	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/operators"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

type exprBuilder struct {
	fac    ast.ExprFactory
	nextID int64
}

func newExprBuilder() *exprBuilder {
	return &exprBuilder{fac: ast.NewExprFactory()}
}

func (b *exprBuilder) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *exprBuilder) lit(val interface{}) ast.Expr {
	return b.fac.NewLiteral(b.id(), types.NativeToValue(nil, val))
}

func (b *exprBuilder) ident(name string) ast.Expr {
	return b.fac.NewIdent(b.id(), name)
}

func (b *exprBuilder) call(fn string, args ...ast.Expr) ast.Expr {
	return b.fac.NewCall(b.id(), fn, args...)
}

func (b *exprBuilder) memberCall(fn string, target ast.Expr, args ...ast.Expr) ast.Expr {
	return b.fac.NewMemberCall(b.id(), fn, target, args...)
}

func mustNewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()
	env, err := NewEnv(opts...)
	if err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}
	return env
}

func compile(t *testing.T, env *Env, e ast.Expr, source common.Source) *Ast {
	t.Helper()
	compiled, issues := env.Compile(ast.NewAST(e, nil), source)
	if err := issues.Err(); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return compiled
}

func mustProgram(t *testing.T, env *Env, a *Ast) Program {
	t.Helper()
	prg, err := env.Program(a)
	if err != nil {
		t.Fatalf("Program() failed: %v", err)
	}
	return prg
}

func TestEvalArithmetic(t *testing.T) {
	env := mustNewEnv(t,
		Variable("x", decls.IntType),
		Variable("y", decls.IntType))
	b := newExprBuilder()
	e := b.call(operators.Add, b.ident("x"), b.ident("y"))
	prg := mustProgram(t, env, compile(t, env, e, nil))

	out, err := prg.Eval(map[string]interface{}{"x": 10, "y": 20})
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out.Equal(types.Int(30)) != types.True {
		t.Errorf("got %v, wanted 30", out)
	}
}

func TestEvalCompileIssues(t *testing.T) {
	env := mustNewEnv(t)
	b := newExprBuilder()
	e := b.call(operators.Add, b.ident("x"), b.lit(int64(1)))
	_, issues := env.Compile(ast.NewAST(e, nil), nil)
	if issues.Err() == nil {
		t.Fatal("expected undeclared reference issue")
	}
	if !strings.Contains(issues.String(), "undeclared reference to 'x'") {
		t.Errorf("got %q, wanted undeclared reference", issues)
	}
}

func TestEvalRuntimeErrorLocation(t *testing.T) {
	source := common.NewTextSource("<input>", "x / 0")
	env := mustNewEnv(t, Variable("x", decls.IntType))

	fac := ast.NewExprFactory()
	div := fac.NewCall(3, operators.Divide,
		fac.NewIdent(1, "x"),
		fac.NewLiteral(2, types.Int(0)))
	info := ast.NewSourceInfo("<input>")
	info.SetOffset(1, 0)
	info.SetOffset(2, 4)
	info.SetOffset(3, 2)

	compiled, issues := env.Compile(ast.NewAST(div, info), source)
	if err := issues.Err(); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	prg := mustProgram(t, env, compiled)
	_, err := prg.Eval(map[string]interface{}{"x": 10})
	if err == nil {
		t.Fatal("expected division by zero error")
	}
	if err.Error() != "1:3: division by zero" {
		t.Errorf("got %q, wanted '1:3: division by zero'", err.Error())
	}
}

func TestEvalShortCircuit(t *testing.T) {
	env := mustNewEnv(t)
	b := newExprBuilder()
	e := b.call(operators.LogicalOr,
		b.lit(true),
		b.call(operators.Equals,
			b.call(operators.Divide, b.lit(int64(1)), b.lit(int64(0))),
			b.lit(int64(1))))
	prg := mustProgram(t, env, compile(t, env, e, nil))
	out, err := prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.True) {
		t.Errorf("got %v, wanted true (no division error)", out)
	}
}

func TestEvalMapMembership(t *testing.T) {
	env := mustNewEnv(t,
		Variable("m", decls.MapType(decls.StringType, decls.IntType)))
	b := newExprBuilder()
	e := b.call(operators.In, b.lit("k"), b.ident("m"))
	prg := mustProgram(t, env, compile(t, env, e, nil))

	out, err := prg.Eval(map[string]interface{}{"m": map[string]int{"k": 1, "j": 2}})
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.True) {
		t.Errorf("'k' in m got %v, wanted true", out)
	}
	out, err = prg.Eval(map[string]interface{}{"m": map[string]int{}})
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.False) {
		t.Errorf("'k' in {} got %v, wanted false", out)
	}
}

func TestEvalConcurrentSharing(t *testing.T) {
	// A program is immutable after planning and may be shared across
	// goroutines so long as each evaluation gets its own activation.
	env := mustNewEnv(t, Variable("x", decls.IntType))
	b := newExprBuilder()
	e := b.call(operators.Multiply, b.ident("x"), b.lit(int64(2)))
	prg := mustProgram(t, env, compile(t, env, e, nil))

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			out, err := prg.Eval(map[string]interface{}{"x": n})
			if err != nil {
				t.Errorf("Eval(%d) failed: %v", n, err)
				return
			}
			if out.Equal(types.Int(2*n)) != types.True {
				t.Errorf("Eval(%d) got %v, wanted %d", n, out, 2*n)
			}
		}(int64(i))
	}
	wg.Wait()
}

func TestEvalConstantDeclaration(t *testing.T) {
	env := mustNewEnv(t,
		Constant("answer", decls.IntType, types.Int(42)))
	b := newExprBuilder()
	e := b.call(operators.Add, b.ident("answer"), b.lit(int64(1)))
	prg := mustProgram(t, env, compile(t, env, e, nil))
	// Constants fold at plan time; no activation binding is needed.
	out, err := prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out.Equal(types.Int(43)) != types.True {
		t.Errorf("got %v, wanted 43", out)
	}
}

func TestEvalCustomFunction(t *testing.T) {
	env := mustNewEnv(t,
		Function("shake",
			decls.MemberOverload("string_shake", []*decls.Type{decls.StringType}, decls.StringType,
				decls.UnaryBinding(func(val ref.Val) ref.Val {
					s, ok := val.(types.String)
					if !ok {
						return types.MaybeNoSuchOverloadErr(val)
					}
					return s + s
				}))))
	b := newExprBuilder()
	e := b.memberCall("shake", b.lit("ab"))
	prg := mustProgram(t, env, compile(t, env, e, nil))
	out, err := prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out.Equal(types.String("abab")) != types.True {
		t.Errorf("got %v, wanted abab", out)
	}
}

func TestEvalContainerNamespace(t *testing.T) {
	env := mustNewEnv(t,
		Container("a.b"),
		Variable("a.b.x", decls.IntType))
	b := newExprBuilder()
	e := b.call(operators.Add, b.ident("x"), b.lit(int64(1)))
	prg := mustProgram(t, env, compile(t, env, e, nil))
	out, err := prg.Eval(map[string]interface{}{"a.b.x": 2})
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out.Equal(types.Int(3)) != types.True {
		t.Errorf("got %v, wanted 3", out)
	}
}

func TestEvalEnumDeclaration(t *testing.T) {
	env := mustNewEnv(t, EnumType("pkg.Color", map[string]int64{"RED": 2}))
	fac := ast.NewExprFactory()
	e := fac.NewCall(4, operators.Equals,
		fac.NewSelect(3, fac.NewSelect(2, fac.NewIdent(1, "pkg"), "Color"), "RED"),
		fac.NewLiteral(5, types.Int(2)))
	prg := mustProgram(t, env, compile(t, env, e, nil))
	out, err := prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.True) {
		t.Errorf("got %v, wanted true", out)
	}
}

func TestEvalStructWrapperDefaulting(t *testing.T) {
	env := mustNewEnv(t,
		StructType("test.Msg", map[string]*decls.Type{
			"name":    decls.StringType,
			"wrapped": decls.ObjectType("google.protobuf.Int64Value"),
		}))
	fac := ast.NewExprFactory()
	structExpr := fac.NewStruct(1, "test.Msg", []ast.EntryExpr{
		fac.NewStructField(2, "name", fac.NewLiteral(3, types.String("a")), false),
	})
	sel := fac.NewSelect(4, structExpr, "wrapped")
	prg := mustProgram(t, env, compile(t, env, sel, nil))
	out, err := prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.NullValue) {
		t.Errorf("unset wrapper field got %v, wanted null", out)
	}
}

func TestEvalDisableTypeChecking(t *testing.T) {
	env := mustNewEnv(t, DisableTypeChecking())
	b := newExprBuilder()
	// Unchecked: references resolve dynamically at plan/dispatch time.
	e := b.call(operators.Add, b.ident("x"), b.ident("y"))
	compiled, issues := env.Compile(ast.NewAST(e, nil), nil)
	if err := issues.Err(); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if compiled.IsChecked() {
		t.Error("got checked Ast with checking disabled")
	}
	prg := mustProgram(t, env, compiled)
	out, err := prg.Eval(map[string]interface{}{"x": 1, "y": 2})
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out.Equal(types.Int(3)) != types.True {
		t.Errorf("got %v, wanted 3", out)
	}
}

func TestEvalDisableStandardLibrary(t *testing.T) {
	env := mustNewEnv(t, DisableStandardLibrary())
	b := newExprBuilder()
	e := b.call(operators.Add, b.lit(int64(1)), b.lit(int64(2)))
	_, issues := env.Compile(ast.NewAST(e, nil), nil)
	if issues.Err() == nil {
		t.Error("expected undeclared reference for '_+_' without the standard library")
	}
}

func TestEvalOptionalTypes(t *testing.T) {
	env := mustNewEnv(t, OptionalTypes())
	b := newExprBuilder()

	e := b.memberCall("hasValue", b.memberCall("of", b.ident("optional"), b.lit(int64(1))))
	prg := mustProgram(t, env, compile(t, env, e, nil))
	out, err := prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.True) {
		t.Errorf("optional.of(1).hasValue() got %v, wanted true", out)
	}

	b = newExprBuilder()
	e = b.memberCall("hasValue", b.memberCall("none", b.ident("optional")))
	prg = mustProgram(t, env, compile(t, env, e, nil))
	out, err = prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out != ref.Val(types.False) {
		t.Errorf("optional.none().hasValue() got %v, wanted false", out)
	}

	b = newExprBuilder()
	e = b.memberCall("value", b.memberCall("of", b.ident("optional"), b.lit("v")))
	prg = mustProgram(t, env, compile(t, env, e, nil))
	out, err = prg.Eval(nil)
	if err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if out.Equal(types.String("v")) != types.True {
		t.Errorf("optional.of('v').value() got %v, wanted 'v'", out)
	}
}

func TestEvalResultType(t *testing.T) {
	env := mustNewEnv(t, Variable("x", decls.IntType))
	b := newExprBuilder()
	e := b.call(operators.Greater, b.ident("x"), b.lit(int64(0)))
	compiled := compile(t, env, e, nil)
	if got := compiled.ResultType(); !got.IsType(decls.BoolType) {
		t.Errorf("got result type %v, wanted bool", got)
	}
}

func TestEvalExtendEnv(t *testing.T) {
	base := mustNewEnv(t, Variable("x", decls.IntType))
	ext, err := base.Extend(Variable("y", decls.IntType))
	if err != nil {
		t.Fatalf("Extend() failed: %v", err)
	}
	b := newExprBuilder()
	e := b.call(operators.Add, b.ident("x"), b.ident("y"))
	if _, issues := base.Compile(ast.NewAST(e, nil), nil); issues.Err() == nil {
		t.Error("base env unexpectedly resolved 'y'")
	}
	prg := mustProgram(t, ext, compile(t, ext, e, nil))
	out, evalErr := prg.Eval(map[string]interface{}{"x": 1, "y": 2})
	if evalErr != nil {
		t.Fatalf("Eval() failed: %v", evalErr)
	}
	if out.Equal(types.Int(3)) != types.True {
		t.Errorf("got %v, wanted 3", out)
	}
}
