package ast

import (
	"testing"

	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types"
)

func TestASTCheckedState(t *testing.T) {
	fac := NewExprFactory()
	e := fac.NewCall(3, "_+_", fac.NewIdent(1, "x"), fac.NewLiteral(2, types.Int(1)))
	parsed := NewAST(e, nil)
	if parsed.IsChecked() {
		t.Error("fresh AST reported checked")
	}
	if got := parsed.GetType(3); !got.IsType(decls.DynType) {
		t.Errorf("unchecked type got %v, wanted dyn", got)
	}

	typeMap := map[int64]*decls.Type{1: decls.IntType, 2: decls.IntType, 3: decls.IntType}
	refMap := map[int64]*ReferenceInfo{
		1: NewIdentReference("x", nil),
		3: NewFunctionReference("add_int64"),
	}
	checked := NewCheckedAST(parsed, typeMap, refMap)
	if !checked.IsChecked() {
		t.Error("checked AST reported unchecked")
	}
	if got := checked.GetType(3); !got.IsType(decls.IntType) {
		t.Errorf("got %v, wanted int", got)
	}
	if got := checked.GetOverloadIDs(3); len(got) != 1 || got[0] != "add_int64" {
		t.Errorf("got overloads %v, wanted [add_int64]", got)
	}
	if _, found := checked.GetReference(2); found {
		t.Error("literal unexpectedly carries a reference")
	}
}

func TestReferenceInfoAddOverload(t *testing.T) {
	r := NewFunctionReference("a")
	r.AddOverload("b")
	r.AddOverload("a")
	if len(r.OverloadIDs) != 2 {
		t.Errorf("got %v, wanted deduplicated [a b]", r.OverloadIDs)
	}
}

func TestSourceInfoOffsets(t *testing.T) {
	info := NewSourceInfo("<test>")
	info.SetOffset(1, 4)
	if offset, found := info.GetOffset(1); !found || offset != 4 {
		t.Errorf("got (%d, %v), wanted (4, true)", offset, found)
	}
	if _, found := info.GetOffset(2); found {
		t.Error("missing id resolved an offset")
	}
}

func TestRenumberIDs(t *testing.T) {
	fac := NewExprFactory()
	e := fac.NewCall(10, "f", fac.NewIdent(11, "x"))
	var next int64
	e.RenumberIDs(func() int64 {
		next++
		return next
	})
	if e.ID() != 1 {
		t.Errorf("root id got %d, wanted 1", e.ID())
	}
	if argID := e.AsCall().Args()[0].ID(); argID != 2 {
		t.Errorf("arg id got %d, wanted 2", argID)
	}
}
