// Package checker assigns a static type to every node of a parsed
// expression, resolving identifiers through the container's candidate-name
// search and calls through overload resolution under a substitution map.
package checker

import (
	"fmt"

	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types"
)

// Env is the set of declarations an expression is checked against: a
// container for name resolution, an identifier/function table, and a
// provider for struct field and enum lookups.
type Env struct {
	container    *containers.Container
	provider     TypeProvider
	declarations *Scopes
}

// NewEnv builds a checker environment resolving names relative to the
// given container, with struct/enum declarations supplied by provider.
func NewEnv(container *containers.Container, provider TypeProvider) *Env {
	return &Env{
		container:    container,
		provider:     provider,
		declarations: NewScopes(),
	}
}

// AddIdents declares identifiers in the current scope, rejecting a
// redeclaration within the same scope.
func (e *Env) AddIdents(idents ...*decls.VariableDecl) error {
	for _, ident := range idents {
		if prev := e.declarations.FindIdentInScope(ident.Name); prev != nil {
			return fmt.Errorf("overlapping identifier for name '%s'", ident.Name)
		}
		e.declarations.AddIdent(ident)
	}
	return nil
}

// AddFunctions declares functions, merging overload sets when a function
// of the same name was already declared.
func (e *Env) AddFunctions(fns ...*decls.FunctionDecl) error {
	for _, fn := range fns {
		if current := e.declarations.FindFunction(fn.Name); current != nil {
			merged, err := current.Merge(fn)
			if err != nil {
				return err
			}
			fn = merged
		}
		e.declarations.AddFunction(fn)
	}
	return nil
}

// LookupIdent resolves name against the container's candidate names. A
// candidate can bind to a declared identifier, to a struct type imported
// from the provider (typed as type(T) so struct literals and type
// comparisons work), or to an enum constant (typed int with a constant
// value). Imported bindings are cached in the global scope.
func (e *Env) LookupIdent(name string) *decls.VariableDecl {
	for _, candidate := range e.container.ResolveCandidateNames(name) {
		if ident := e.declarations.FindIdent(candidate); ident != nil {
			return ident
		}

		if structType, found := e.provider.LookupStructType(candidate); found {
			ident := decls.NewVariable(candidate, decls.TypeTypeWithParam(structType))
			e.declarations.AddGlobalIdent(ident)
			return ident
		}

		if enumValue, found := e.provider.LookupEnumValue(candidate); found {
			ident := decls.NewConstant(candidate, decls.IntType, types.Int(enumValue))
			e.declarations.AddGlobalIdent(ident)
			return ident
		}
	}
	return nil
}

// LookupFunction resolves a function name against the container's
// candidate names, skipping declaration-disabled functions.
func (e *Env) LookupFunction(name string) *decls.FunctionDecl {
	for _, candidate := range e.container.ResolveCandidateNames(name) {
		if fn := e.declarations.FindFunction(candidate); fn != nil && !fn.IsDeclarationDisabled() {
			return fn
		}
	}
	return nil
}

func (e *Env) enterScope() {
	e.declarations.Push()
}

func (e *Env) exitScope() {
	e.declarations.Pop()
}
