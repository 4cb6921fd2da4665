package checker

import "github.com/exprcore/celcore/common/decls"

// Scopes is the checker's lexically nested identifier and function table.
// Comprehensions push a scope for their accumulator and iteration
// variables; lookups search from the innermost scope outward.
type Scopes struct {
	scopes []*group
}

// NewScopes returns a Scopes with a single (global) scope pushed.
func NewScopes() *Scopes {
	s := &Scopes{}
	s.Push()
	return s
}

// Push enters a new innermost scope.
func (s *Scopes) Push() {
	s.scopes = append(s.scopes, newGroup())
}

// Pop exits the innermost scope.
func (s *Scopes) Pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// AddIdent declares ident in the innermost scope, shadowing any outer
// declaration of the same name.
func (s *Scopes) AddIdent(ident *decls.VariableDecl) {
	s.scopes[len(s.scopes)-1].idents[ident.Name] = ident
}

// AddGlobalIdent declares ident in the outermost scope, used to cache
// struct-type and enum identifiers imported from the type provider.
func (s *Scopes) AddGlobalIdent(ident *decls.VariableDecl) {
	s.scopes[0].idents[ident.Name] = ident
}

// FindIdent returns the innermost declaration of name, if any.
func (s *Scopes) FindIdent(name string) *decls.VariableDecl {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if ident, found := s.scopes[i].idents[name]; found {
			return ident
		}
	}
	return nil
}

// FindIdentInScope returns the declaration of name in the innermost scope
// only, for detecting redeclaration.
func (s *Scopes) FindIdentInScope(name string) *decls.VariableDecl {
	if ident, found := s.scopes[len(s.scopes)-1].idents[name]; found {
		return ident
	}
	return nil
}

// AddFunction declares fn in the outermost scope. Functions are not
// lexically scoped; the comprehension scopes only introduce variables.
func (s *Scopes) AddFunction(fn *decls.FunctionDecl) {
	s.scopes[0].functions[fn.Name] = fn
}

// FindFunction returns the declaration of the named function, if any.
func (s *Scopes) FindFunction(name string) *decls.FunctionDecl {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if fn, found := s.scopes[i].functions[name]; found {
			return fn
		}
	}
	return nil
}

type group struct {
	idents    map[string]*decls.VariableDecl
	functions map[string]*decls.FunctionDecl
}

func newGroup() *group {
	return &group{
		idents:    make(map[string]*decls.VariableDecl),
		functions: make(map[string]*decls.FunctionDecl),
	}
}
