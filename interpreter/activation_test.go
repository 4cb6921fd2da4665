package interpreter

import (
	"testing"

	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

func TestActivationEmpty(t *testing.T) {
	if _, found := EmptyActivation().ResolveName("x"); found {
		t.Error("empty activation resolved a name")
	}
}

func TestActivationMap(t *testing.T) {
	vars := NewActivation(map[string]interface{}{
		"x": 1,
		"supplied": func() ref.Val {
			return types.String("lazy")
		},
	})
	if obj, found := vars.ResolveName("x"); !found || obj != 1 {
		t.Errorf("got (%v, %v), wanted (1, true)", obj, found)
	}
	obj, found := vars.ResolveName("supplied")
	if !found || obj.(ref.Val).Equal(types.String("lazy")) != types.True {
		t.Errorf("got (%v, %v), wanted supplier result", obj, found)
	}
	if _, found := vars.ResolveName("y"); found {
		t.Error("resolved undeclared name")
	}
}

func TestActivationLazyMemoizes(t *testing.T) {
	calls := 0
	adapter := adapterFunc(func(value interface{}) ref.Val {
		calls++
		return types.NativeToValue(nil, value)
	})
	vars := NewLazyActivation(adapter, map[string]interface{}{"x": 42})
	first, _ := vars.ResolveName("x")
	second, _ := vars.ResolveName("x")
	if calls != 1 {
		t.Errorf("adapter ran %d times, wanted 1 (memoized)", calls)
	}
	if first.(ref.Val).Equal(second.(ref.Val)) != types.True {
		t.Errorf("got %v then %v, wanted identical converted value", first, second)
	}
}

func TestActivationHierarchicalShadowing(t *testing.T) {
	parent := NewActivation(map[string]interface{}{"x": 1, "y": 2})
	child := NewActivation(map[string]interface{}{"x": 10})
	vars := NewHierarchicalActivation(parent, child)
	if obj, _ := vars.ResolveName("x"); obj != 10 {
		t.Errorf("got %v, wanted child binding 10", obj)
	}
	if obj, _ := vars.ResolveName("y"); obj != 2 {
		t.Errorf("got %v, wanted parent fallback 2", obj)
	}
	if vars.Parent() != parent {
		t.Error("parent not reachable from hierarchical activation")
	}
}

func TestActivationPartial(t *testing.T) {
	vars := NewPartialActivation(
		NewActivation(map[string]interface{}{"y": 2}), "x")
	obj, found := vars.ResolveName("x")
	if !found {
		t.Fatal("unknown name did not resolve")
	}
	if _, ok := obj.(*types.Unknown); !ok {
		t.Errorf("got %T, wanted unknown marker", obj)
	}
	if obj, _ := vars.ResolveName("y"); obj != 2 {
		t.Errorf("got %v, wanted base binding 2", obj)
	}
	if got := vars.UnknownNames(); len(got) != 1 || got[0] != "x" {
		t.Errorf("got %v, wanted [x]", got)
	}
}

type adapterFunc func(value interface{}) ref.Val

func (f adapterFunc) NativeToValue(value interface{}) ref.Val {
	return f(value)
}
