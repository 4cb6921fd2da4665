package containers

import (
	"reflect"
	"testing"

	"github.com/exprcore/celcore/common/ast"
)

func TestResolveCandidateNames(t *testing.T) {
	c, err := NewContainer(Name("a.b.c.M.N"))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	got := c.ResolveCandidateNames("R.s")
	want := []string{
		"a.b.c.M.N.R.s",
		"a.b.c.M.R.s",
		"a.b.c.R.s",
		"a.b.R.s",
		"a.R.s",
		"R.s",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, wanted %v", got, want)
	}
}

func TestResolveCandidateNamesAbsolute(t *testing.T) {
	c, err := NewContainer(Name("a.b.c"))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	got := c.ResolveCandidateNames(".R.s")
	want := []string{"R.s"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, wanted %v", got, want)
	}
}

func TestAliases(t *testing.T) {
	c, err := NewContainer(Name("a.b"), Aliases("other.pkg.Widget"))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	got := c.ResolveCandidateNames("Widget")
	want := []string{"a.b.Widget", "a.Widget", "Widget", "other.pkg.Widget"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, wanted %v", got, want)
	}
}

func TestToQualifiedName(t *testing.T) {
	fac := ast.NewExprFactory()
	e := fac.NewSelect(3, fac.NewSelect(2, fac.NewIdent(1, "a"), "b"), "c")
	if qname, found := ToQualifiedName(e); !found || qname != "a.b.c" {
		t.Errorf("got (%q, %v), wanted (a.b.c, true)", qname, found)
	}

	presence := fac.NewPresenceTest(4, fac.NewIdent(5, "a"), "b")
	if _, found := ToQualifiedName(presence); found {
		t.Error("presence test unexpectedly rendered as qualified name")
	}

	call := fac.NewCall(6, "f")
	if _, found := ToQualifiedName(call); found {
		t.Error("call unexpectedly rendered as qualified name")
	}
}
