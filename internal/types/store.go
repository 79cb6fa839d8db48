package types

import (
	"fmt"

	"fortio.org/safecast"
)

type typeDef struct {
	kind    Kind
	name    string
	params  []ValType // KindSig
	results []ValType // KindSig
	fields  []Field   // KindStruct
	elem    ValType   // KindArray
	super   HeapType
	group   RecGroup
}

// Store is the arena holding all defined heap types of one module. Handles
// are stable for the lifetime of the store; basic heap types occupy the
// reserved low slots.
type Store struct {
	defs   []typeDef
	groups [][]HeapType
}

// NewStore constructs an empty store with the basic heap types seeded.
func NewStore() *Store {
	return &Store{
		defs:   make([]typeDef, firstDefined), // slot 0 invalid, then basics
		groups: make([][]HeapType, 1),         // slot 0 reserved for NoRecGroup
	}
}

func (s *Store) newDef(d typeDef) HeapType {
	lenDefs, err := safecast.Conv[uint32](len(s.defs))
	if err != nil {
		panic(fmt.Errorf("len(defs) overflow: %w", err))
	}
	id := HeapType(lenDefs)
	// Every defined type starts out in its own singleton group.
	d.group = s.newGroup([]HeapType{id})
	s.defs = append(s.defs, d)
	return id
}

func (s *Store) newGroup(members []HeapType) RecGroup {
	lenGroups, err := safecast.Conv[uint32](len(s.groups))
	if err != nil {
		panic(fmt.Errorf("len(groups) overflow: %w", err))
	}
	g := RecGroup(lenGroups)
	s.groups = append(s.groups, members)
	return g
}

// AddSignature defines a function-signature heap type.
func (s *Store) AddSignature(name string, params, results []ValType) HeapType {
	return s.newDef(typeDef{kind: KindSig, name: name, params: params, results: results})
}

// AddStruct defines a struct heap type.
func (s *Store) AddStruct(name string, fields []Field) HeapType {
	return s.newDef(typeDef{kind: KindStruct, name: name, fields: fields})
}

// AddArray defines an array heap type.
func (s *Store) AddArray(name string, elem ValType) HeapType {
	return s.newDef(typeDef{kind: KindArray, name: name, elem: elem})
}

// SetSupertype declares super as the supertype of t. Both must be defined
// heap types.
func (s *Store) SetSupertype(t, super HeapType) {
	s.def(t).super = super
}

// SetStructFields replaces the field descriptors of a struct type. Used by
// loaders that must allocate all type handles before resolving references
// between them.
func (s *Store) SetStructFields(t HeapType, fields []Field) {
	s.def(t).fields = fields
}

// SetArrayElem replaces the element type of an array type.
func (s *Store) SetArrayElem(t HeapType, elem ValType) {
	s.def(t).elem = elem
}

// SetSignature replaces the params and results of a signature type.
func (s *Store) SetSignature(t HeapType, params, results []ValType) {
	d := s.def(t)
	d.params, d.results = params, results
}

// GroupTypes merges the given defined types into one recursion group with
// the given member order. Membership is an input to this toolkit, never
// computed by it.
func (s *Store) GroupTypes(members ...HeapType) RecGroup {
	grouped := make([]HeapType, len(members))
	copy(grouped, members)
	g := s.newGroup(grouped)
	for _, t := range grouped {
		s.def(t).group = g
	}
	return g
}

func (s *Store) def(t HeapType) *typeDef {
	if t.IsBasic() || int(t) >= len(s.defs) {
		panic(fmt.Errorf("types: not a defined heap type: %s", t))
	}
	return &s.defs[t]
}

// Contains reports whether t is a defined heap type of this store.
func (s *Store) Contains(t HeapType) bool {
	return !t.IsBasic() && int(t) < len(s.defs)
}

// Kind returns the kind of the heap type.
func (s *Store) Kind(t HeapType) Kind {
	if t.IsBasic() {
		return KindBasic
	}
	return s.def(t).kind
}

// Name returns the declared name of a defined heap type, or its String form
// for basic types.
func (s *Store) Name(t HeapType) string {
	if t.IsBasic() {
		return t.String()
	}
	if n := s.def(t).name; n != "" {
		return n
	}
	return t.String()
}

// Signature returns params and results of a signature type.
func (s *Store) Signature(t HeapType) (params, results []ValType) {
	d := s.def(t)
	return d.params, d.results
}

// Fields returns the field descriptors of a struct type.
func (s *Store) Fields(t HeapType) []Field {
	return s.def(t).fields
}

// Elem returns the element type of an array type.
func (s *Store) Elem(t HeapType) ValType {
	return s.def(t).elem
}

// Supertype returns the declared supertype of t, if any.
func (s *Store) Supertype(t HeapType) (HeapType, bool) {
	if t.IsBasic() {
		return NoHeapType, false
	}
	d := s.def(t)
	return d.super, d.super != NoHeapType
}

// Group returns the recursion group owning t. Basic types own no group.
func (s *Store) Group(t HeapType) RecGroup {
	if t.IsBasic() {
		return NoRecGroup
	}
	return s.def(t).group
}

// GroupMembers enumerates the members of a group in their fixed order. The
// returned slice is owned by the store and must not be mutated.
func (s *Store) GroupMembers(g RecGroup) []HeapType {
	if g == NoRecGroup || int(g) >= len(s.groups) {
		return nil
	}
	return s.groups[g]
}

// Children returns the structural heap-type children of t: heap types
// referenced by its fields, element type, or signature. Basic children are
// included; callers filter as needed.
func (s *Store) Children(t HeapType) []HeapType {
	if t.IsBasic() {
		return nil
	}
	d := s.def(t)
	var out []HeapType
	switch d.kind {
	case KindSig:
		out = appendRefHeaps(out, d.params)
		out = appendRefHeaps(out, d.results)
	case KindStruct:
		for _, f := range d.fields {
			if f.Type.IsRef() {
				out = append(out, f.Type.Heap)
			}
		}
	case KindArray:
		if d.elem.IsRef() {
			out = append(out, d.elem.Heap)
		}
	}
	return out
}

// ReferencedHeapTypes returns every heap type t refers to: structural
// children plus the supertype, if declared.
func (s *Store) ReferencedHeapTypes(t HeapType) []HeapType {
	out := s.Children(t)
	if super, ok := s.Supertype(t); ok {
		out = append(out, super)
	}
	return out
}

// NumDefined returns the number of defined (non-basic) heap types.
func (s *Store) NumDefined() int {
	return len(s.defs) - int(firstDefined)
}

// DefinedTypes enumerates every defined heap type in definition order.
func (s *Store) DefinedTypes() []HeapType {
	out := make([]HeapType, 0, s.NumDefined())
	for i := int(firstDefined); i < len(s.defs); i++ {
		out = append(out, HeapType(i))
	}
	return out
}

func appendRefHeaps(out []HeapType, vals []ValType) []HeapType {
	for _, v := range vals {
		if v.IsRef() {
			out = append(out, v.Heap)
		}
	}
	return out
}
