package decls

import "fmt"

// Mapping is a substitution map from type parameter to bound type, used by
// the checker to resolve parametric overloads. Trial matches operate on a
// copy so a failed speculative match never mutates the caller's mapping.
type Mapping struct {
	m map[string]*Type
}

// NewMapping returns an empty substitution map.
func NewMapping() *Mapping {
	return &Mapping{m: make(map[string]*Type)}
}

// Add records a binding from a type parameter to a concrete (or still
// partially bound) type.
func (m *Mapping) Add(from, to *Type) {
	m.m[typeKey(from)] = to
}

// Find returns the binding for from, if any.
func (m *Mapping) Find(from *Type) (*Type, bool) {
	t, found := m.m[typeKey(from)]
	return t, found
}

// Copy returns an independent copy of the mapping.
func (m *Mapping) Copy() *Mapping {
	c := NewMapping()
	for k, v := range m.m {
		c.m[k] = v
	}
	return c
}

func typeKey(t *Type) string {
	return fmt.Sprintf("%d:%s", t.Kind, t.runtimeTypeName)
}

// IsAssignable tests whether t2 may be used where t1 is expected, under the
// substitutions recorded in m. On success it returns an updated mapping
// (m plus whatever new bindings the match required); on failure it returns
// nil and m is left untouched.
func IsAssignable(m *Mapping, t1, t2 *Type) *Mapping {
	mCopy := m.Copy()
	if internalIsAssignable(mCopy, t1, t2) {
		return mCopy
	}
	return nil
}

// IsAssignableList is IsAssignable applied pairwise to two equal-length
// type lists, such as a call's argument types against an overload's
// declared parameter types.
func IsAssignableList(m *Mapping, l1, l2 []*Type) *Mapping {
	mCopy := m.Copy()
	if internalIsAssignableList(mCopy, l1, l2) {
		return mCopy
	}
	return nil
}

func internalIsAssignableList(m *Mapping, l1, l2 []*Type) bool {
	if len(l1) != len(l2) {
		return false
	}
	for i, t1 := range l1 {
		if !internalIsAssignable(m, t1, l2[i]) {
			return false
		}
	}
	return true
}

func internalIsAssignable(m *Mapping, t1, t2 *Type) bool {
	if t2.Kind == TypeParamKind {
		if t2Sub, found := m.Find(t2); found {
			// Widen the existing substitution to the common type when t1 is
			// equal-or-less-specific than what t2 is already bound to: e.g.
			// A is bound to int, and we now test against dyn, so widen A.
			if isEqualOrLessSpecific(t1, t2Sub) && notReferencedIn(t2, t1) {
				m.Add(t2, t1)
				return true
			}
			return internalIsAssignable(m, t1, t2Sub)
		}
		if notReferencedIn(t2, t1) {
			m.Add(t2, t1)
			return true
		}
	}
	if t1.Kind == TypeParamKind {
		if t1Sub, found := m.Find(t1); found {
			return internalIsAssignable(m, t1Sub, t2)
		}
		if notReferencedIn(t1, t2) {
			m.Add(t1, t2)
			return true
		}
	}
	if t1.Kind == DynKind || t1.Kind == AnyKind || t2.Kind == DynKind || t2.Kind == AnyKind {
		return true
	}
	// A type parameter still present here failed its occurs check above.
	if t1.Kind == TypeParamKind || t2.Kind == TypeParamKind {
		return false
	}
	if t1.Kind == NullTypeKind && isNullable(t2) {
		return true
	}
	if t1.Kind != t2.Kind {
		return false
	}
	switch t1.Kind {
	case BoolKind, BytesKind, DoubleKind, DurationKind, IntKind, NullTypeKind,
		StringKind, StructKind, TimestampKind, UintKind:
		return t1.runtimeTypeName == t2.runtimeTypeName
	case TypeKind:
		if len(t1.Parameters) == 0 || len(t2.Parameters) == 0 {
			return len(t1.Parameters) == len(t2.Parameters)
		}
		return internalIsAssignable(m, t1.Parameters[0], t2.Parameters[0])
	case ListKind:
		return internalIsAssignable(m, t1.Parameters[0], t2.Parameters[0])
	case MapKind:
		return internalIsAssignableList(m, t1.Parameters, t2.Parameters)
	case OpaqueKind:
		if t1.runtimeTypeName != t2.runtimeTypeName {
			return false
		}
		return internalIsAssignableList(m, t1.Parameters, t2.Parameters)
	default:
		return false
	}
}

// isNullable reports whether a value of kind t2 may additionally be null,
// the way a protobuf wrapper-message-typed field can.
func isNullable(t2 *Type) bool {
	_, found := checkedWellKnowns[t2.runtimeTypeName]
	return t2.isAssignableType != nil && found
}

// isEqualOrLessSpecific reports whether t1 matches t2 using only dyn/type
// parameters where they differ, i.e. t1 is no more specific than t2.
func isEqualOrLessSpecific(t1, t2 *Type) bool {
	if t1.isDyn() {
		return true
	}
	if t2.isDyn() {
		return false
	}
	if t1.Kind != t2.Kind {
		return false
	}
	switch t1.Kind {
	case ListKind:
		return isEqualOrLessSpecific(t1.Parameters[0], t2.Parameters[0])
	case MapKind:
		return isEqualOrLessSpecific(t1.Parameters[0], t2.Parameters[0]) &&
			isEqualOrLessSpecific(t1.Parameters[1], t2.Parameters[1])
	case OpaqueKind:
		if t1.runtimeTypeName != t2.runtimeTypeName || len(t1.Parameters) != len(t2.Parameters) {
			return false
		}
		for i, p := range t1.Parameters {
			if !isEqualOrLessSpecific(p, t2.Parameters[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// notReferencedIn reports whether t does not occur anywhere within
// withinType, the occurs-check that prevents a type parameter from being
// bound to a type that contains itself.
func notReferencedIn(t, withinType *Type) bool {
	if t.IsType(withinType) {
		return false
	}
	switch withinType.Kind {
	case ListKind, MapKind, OpaqueKind, TypeKind:
		for _, p := range withinType.Parameters {
			if !notReferencedIn(t, p) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Substitute rewrites t, replacing every direct or indirect occurrence of a
// bound type parameter with its binding. When typeParamToDyn is true, any
// type parameter left unbound at the end of checking is widened to Dyn,
// matching the reported result type for an empty list/map literal.
func Substitute(m *Mapping, t *Type, typeParamToDyn bool) *Type {
	if tSub, found := m.Find(t); found {
		return Substitute(m, tSub, typeParamToDyn)
	}
	if typeParamToDyn && t.Kind == TypeParamKind {
		return DynType
	}
	if len(t.Parameters) == 0 {
		return t
	}
	params := make([]*Type, len(t.Parameters))
	for i, p := range t.Parameters {
		params[i] = Substitute(m, p, typeParamToDyn)
	}
	nt := *t
	nt.Parameters = params
	nt.isAssignableType = nil
	return &nt
}
