package decls

import "testing"

func TestIsAssignableBindsTypeParam(t *testing.T) {
	paramA := TypeParamType("A")
	m := IsAssignable(NewMapping(), IntType, paramA)
	if m == nil {
		t.Fatal("int not assignable to free type param")
	}
	if bound, found := m.Find(paramA); !found || !bound.IsType(IntType) {
		t.Errorf("got binding %v, wanted int", bound)
	}
	// A second use of the bound param must agree.
	if IsAssignable(m, StringType, paramA) != nil {
		t.Error("string matched a param already bound to int")
	}
	if IsAssignable(m, IntType, paramA) == nil {
		t.Error("int no longer matched its own binding")
	}
}

func TestIsAssignableSpeculativeCopy(t *testing.T) {
	paramA := TypeParamType("A")
	m := NewMapping()
	if IsAssignable(m, StringType, ListType(paramA)) != nil {
		t.Error("list(A) unexpectedly assignable from string")
	}
	// The failed trial must not have recorded any binding.
	if _, found := m.Find(paramA); found {
		t.Error("failed match mutated the caller's mapping")
	}
}

func TestSubstituteIdempotent(t *testing.T) {
	paramA := TypeParamType("A")
	m := NewMapping()
	m.Add(paramA, ListType(IntType))
	once := Substitute(m, ListType(paramA), true)
	twice := Substitute(m, once, true)
	if !once.IsType(twice) {
		t.Errorf("substitution not idempotent: %v then %v", once, twice)
	}
	if !once.IsType(ListType(ListType(IntType))) {
		t.Errorf("got %v, wanted list(list(int))", once)
	}
}

func TestSubstituteUnboundParamToDyn(t *testing.T) {
	paramA := TypeParamType("A")
	out := Substitute(NewMapping(), ListType(paramA), true)
	if !out.IsType(ListType(DynType)) {
		t.Errorf("got %v, wanted list(dyn)", out)
	}
}

func TestOccursCheck(t *testing.T) {
	paramA := TypeParamType("A")
	if IsAssignable(NewMapping(), ListType(paramA), paramA) != nil {
		t.Error("param bound to a type containing itself")
	}
}

func TestNullableAssignability(t *testing.T) {
	nullableInt := NullableType(IntType)
	if !nullableInt.IsAssignableType(NullType) {
		t.Error("nullable int rejected null")
	}
	if !nullableInt.IsAssignableType(IntType) {
		t.Error("nullable int rejected int")
	}
	if IntType.IsAssignableType(NullType) {
		t.Error("plain int accepted null")
	}
}
