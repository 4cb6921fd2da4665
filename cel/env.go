// Package cel wires the semantic pipeline together behind a small
// environment/program surface: declare variables, functions, and struct
// types; check an already-parsed AST; plan it; evaluate the plan
// repeatedly against per-call variable bindings.
package cel

import (
	"errors"

	"github.com/exprcore/celcore/checker"
	"github.com/exprcore/celcore/common"
	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/stdlib"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/interpreter"
)

// Ast is a parsed or checked expression together with the source it was
// parsed from, the unit passed between Compile and Program.
type Ast struct {
	ast    *ast.AST
	source common.Source
}

// NativeAST returns the underlying AST value.
func (a *Ast) NativeAST() *ast.AST {
	return a.ast
}

// IsChecked reports whether the Ast carries checker side tables.
func (a *Ast) IsChecked() bool {
	return a.ast.IsChecked()
}

// ResultType returns the checked type of the root expression, or dyn when
// checking was disabled.
func (a *Ast) ResultType() *decls.Type {
	if !a.IsChecked() {
		return decls.DynType
	}
	return a.ast.GetType(a.ast.Expr().ID())
}

// Source returns the source the expression was parsed from, if supplied.
func (a *Ast) Source() common.Source {
	return a.source
}

// Issues collects the diagnostics of one Compile call.
type Issues struct {
	errs *common.Errors
}

// Err returns an error summarizing the issues, or nil when compilation
// succeeded.
func (i *Issues) Err() error {
	if i == nil || i.errs == nil || i.errs.Empty() {
		return nil
	}
	return errors.New(i.errs.String())
}

// Errors returns the individual diagnostics.
func (i *Issues) Errors() []common.Error {
	if i == nil || i.errs == nil {
		return nil
	}
	return i.errs.GetErrors()
}

func (i *Issues) String() string {
	if i == nil || i.errs == nil {
		return ""
	}
	return i.errs.String()
}

// Env holds the declarations, type registries, and configuration a set of
// expressions is compiled and planned against. An Env is not modified once
// built, except through the type registries it shares with environments
// derived from it by Extend, and is safe for concurrent use.
type Env struct {
	container *containers.Container
	variables []*decls.VariableDecl
	functions []*decls.FunctionDecl

	chkProvider *checker.InMemoryTypeProvider
	registry    ref.TypeRegistry
	adapter     ref.TypeAdapter

	stdlibDisabled   bool
	checkingDisabled bool
}

// NewEnv builds an environment with the standard library enabled, then
// applies the given options.
func NewEnv(opts ...EnvOption) (*Env, error) {
	container, err := containers.NewContainer()
	if err != nil {
		return nil, err
	}
	registry := types.NewRegistry()
	e := &Env{
		container:   container,
		chkProvider: checker.NewInMemoryTypeProvider(),
		registry:    registry,
		adapter:     registry,
	}
	for _, opt := range opts {
		e, err = opt(e)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Extend derives a new environment from e with additional options.
// Variables and functions declared through opts are not visible to e. The
// type registry and the checker's type provider are shared with e, so
// struct and enum types registered through opts become visible to e too.
func (e *Env) Extend(opts ...EnvOption) (*Env, error) {
	ext := *e
	ext.variables = append([]*decls.VariableDecl{}, e.variables...)
	ext.functions = append([]*decls.FunctionDecl{}, e.functions...)
	var err error
	next := &ext
	for _, opt := range opts {
		next, err = opt(next)
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

// TypeAdapter returns the environment's native-to-value adapter.
func (e *Env) TypeAdapter() ref.TypeAdapter {
	return e.adapter
}

// TypeProvider returns the environment's runtime type provider.
func (e *Env) TypeProvider() ref.TypeProvider {
	return e.registry
}

// Compile checks the parsed AST against the environment's declarations.
// The source is used for diagnostic locations and may be nil. When type
// checking is disabled the AST passes through unchecked and all references
// resolve dynamically at plan time.
func (e *Env) Compile(parsed *ast.AST, source common.Source) (*Ast, *Issues) {
	if e.checkingDisabled {
		return &Ast{ast: parsed, source: source}, &Issues{}
	}
	chkEnv := checker.NewEnv(e.container, e.chkProvider)
	if !e.stdlibDisabled {
		if err := chkEnv.AddIdents(stdlib.Types()...); err != nil {
			return nil, issuesFromError(source, err)
		}
		if err := chkEnv.AddFunctions(stdlib.Functions()...); err != nil {
			return nil, issuesFromError(source, err)
		}
	}
	if err := chkEnv.AddIdents(e.variables...); err != nil {
		return nil, issuesFromError(source, err)
	}
	if err := chkEnv.AddFunctions(e.functions...); err != nil {
		return nil, issuesFromError(source, err)
	}
	checked, errs := checker.Check(parsed, source, chkEnv)
	if !errs.Empty() {
		return nil, &Issues{errs: errs}
	}
	return &Ast{ast: checked, source: source}, &Issues{}
}

func issuesFromError(source common.Source, err error) *Issues {
	errs := common.NewErrors(source)
	errs.ReportError(common.NoLocation, "%s", err.Error())
	return &Issues{errs: errs}
}

// Program plans the Ast into an evaluable Program bound to this
// environment's dispatcher and type registry.
func (e *Env) Program(a *Ast) (Program, error) {
	disp := interpreter.NewDispatcher()
	var pure []string
	if !e.stdlibDisabled {
		if err := disp.Add(stdlib.Functions()...); err != nil {
			return nil, err
		}
		for _, fn := range stdlib.Functions() {
			pure = append(pure, fn.Name)
		}
	}
	if err := disp.Add(e.functions...); err != nil {
		return nil, err
	}
	interp := interpreter.NewInterpreter(disp, e.container, e.registry, e.adapter,
		interpreter.PureFunctions(pure...))
	plan, err := interp.NewInterpretable(a.ast)
	if err != nil {
		return nil, err
	}
	return &prog{
		plan:    plan,
		ast:     a.ast,
		source:  a.source,
		adapter: e.adapter,
	}, nil
}
