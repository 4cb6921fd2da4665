package ast

import (
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types/ref"
)

// AST pairs an expression tree with its SourceInfo and, once checked, the
// type and reference side tables keyed by expression id.
type AST struct {
	expr       Expr
	sourceInfo *SourceInfo
	typeMap    map[int64]*decls.Type
	refMap     map[int64]*ReferenceInfo
}

// NewAST wraps a freshly built (unchecked) expression tree.
func NewAST(e Expr, sourceInfo *SourceInfo) *AST {
	if sourceInfo == nil {
		sourceInfo = NewSourceInfo("<input>")
	}
	return &AST{
		expr:       e,
		sourceInfo: sourceInfo,
		typeMap:    map[int64]*decls.Type{},
		refMap:     map[int64]*ReferenceInfo{},
	}
}

// NewCheckedAST decorates an AST with the side tables a successful check
// produced.
func NewCheckedAST(parsed *AST, typeMap map[int64]*decls.Type, refMap map[int64]*ReferenceInfo) *AST {
	return &AST{
		expr:       parsed.expr,
		sourceInfo: parsed.sourceInfo,
		typeMap:    typeMap,
		refMap:     refMap,
	}
}

// Expr returns the root expression node.
func (a *AST) Expr() Expr {
	if a == nil {
		return emptyExpr
	}
	return a.expr
}

// SourceInfo returns the expression-id to byte-offset table.
func (a *AST) SourceInfo() *SourceInfo {
	if a == nil {
		return nil
	}
	return a.sourceInfo
}

// IsChecked reports whether the AST carries checker side tables.
func (a *AST) IsChecked() bool {
	return a != nil && len(a.typeMap) > 0
}

// GetType returns the checked type recorded for the expression id, or
// DynType when the AST is unchecked or the id has no entry.
func (a *AST) GetType(id int64) *decls.Type {
	if t, found := a.typeMap[id]; found {
		return t
	}
	return decls.DynType
}

// SetType records a type for the expression id.
func (a *AST) SetType(id int64, t *decls.Type) {
	if a == nil {
		return
	}
	a.typeMap[id] = t
}

// TypeMap returns the full expression-id to type table.
func (a *AST) TypeMap() map[int64]*decls.Type {
	if a == nil {
		return map[int64]*decls.Type{}
	}
	return a.typeMap
}

// GetOverloadIDs returns the overload ids recorded for the expression id,
// or the empty list when there is no entry.
func (a *AST) GetOverloadIDs(id int64) []string {
	if ref, found := a.refMap[id]; found {
		return ref.OverloadIDs
	}
	return []string{}
}

// GetReference returns the reference entry for the expression id, if any.
func (a *AST) GetReference(id int64) (*ReferenceInfo, bool) {
	r, found := a.refMap[id]
	return r, found
}

// SetReference records a reference entry for the expression id.
func (a *AST) SetReference(id int64, r *ReferenceInfo) {
	if a == nil {
		return
	}
	a.refMap[id] = r
}

// ReferenceMap returns the full expression-id to reference table.
func (a *AST) ReferenceMap() map[int64]*ReferenceInfo {
	if a == nil {
		return map[int64]*ReferenceInfo{}
	}
	return a.refMap
}

// ReferenceInfo is the refMap entry for an identifier or call: the
// canonical (container-resolved) name for identifiers, the matching
// overload ids for calls, and the constant value for enum-like identifiers
// folded at plan time.
type ReferenceInfo struct {
	Name        string
	OverloadIDs []string
	Value       ref.Val
}

// NewIdentReference builds the refMap entry for a resolved identifier.
func NewIdentReference(name string, value ref.Val) *ReferenceInfo {
	return &ReferenceInfo{Name: name, Value: value}
}

// NewFunctionReference builds the refMap entry for a resolved call.
func NewFunctionReference(overloadIDs ...string) *ReferenceInfo {
	return &ReferenceInfo{OverloadIDs: overloadIDs}
}

// AddOverload appends an overload id to the reference, skipping duplicates.
func (r *ReferenceInfo) AddOverload(overloadID string) {
	for _, id := range r.OverloadIDs {
		if id == overloadID {
			return
		}
	}
	r.OverloadIDs = append(r.OverloadIDs, overloadID)
}

// Equals reports whether two reference entries denote the same resolution.
func (r *ReferenceInfo) Equals(other *ReferenceInfo) bool {
	if r.Name != other.Name || len(r.OverloadIDs) != len(other.OverloadIDs) {
		return false
	}
	for i, id := range r.OverloadIDs {
		if other.OverloadIDs[i] != id {
			return false
		}
	}
	if r.Value == nil || other.Value == nil {
		return r.Value == other.Value
	}
	eq, ok := r.Value.Equal(other.Value).Value().(bool)
	return ok && eq
}
