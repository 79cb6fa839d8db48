package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"weft/internal/types"
	"weft/internal/typeorder"
)

// CheckClosed verifies that no type in the list references (via child,
// supertype or group sibling) a type outside the list.
func CheckClosed(store *types.Store, list []types.HeapType) error {
	in := make(map[types.HeapType]struct{}, len(list))
	for _, t := range list {
		in[t] = struct{}{}
	}
	for _, t := range list {
		for _, child := range store.Children(t) {
			if child.IsBasic() {
				continue
			}
			if _, ok := in[child]; !ok {
				return fmt.Errorf("child %s of %s missing from set", store.Name(child), store.Name(t))
			}
		}
		if super, ok := store.Supertype(t); ok {
			if _, present := in[super]; !present {
				return fmt.Errorf("supertype %s of %s missing from set", store.Name(super), store.Name(t))
			}
		}
		for _, sibling := range store.GroupMembers(store.Group(t)) {
			if _, ok := in[sibling]; !ok {
				return fmt.Errorf("group sibling %s of %s missing from set", store.Name(sibling), store.Name(t))
			}
		}
	}
	return nil
}

// CheckBijection verifies that the index map is a bijection from the
// ordered list onto [0, len).
func CheckBijection(indexed typeorder.IndexedHeapTypes) error {
	if len(indexed.Indices) != len(indexed.Types) {
		return fmt.Errorf("index map has %d entries for %d types", len(indexed.Indices), len(indexed.Types))
	}
	for i, t := range indexed.Types {
		idx, ok := indexed.Indices[t]
		if !ok {
			return fmt.Errorf("type %s at position %d has no index", t, i)
		}
		want, err := safecast.Conv[uint32](i)
		if err != nil {
			return fmt.Errorf("position overflow: %w", err)
		}
		if idx != want {
			return fmt.Errorf("type %s indexed %d, want %d", t, idx, want)
		}
	}
	return nil
}

// CheckGroupContiguity verifies that each recursion group occupies
// consecutive positions in its fixed member order.
func CheckGroupContiguity(store *types.Store, indexed typeorder.IndexedHeapTypes) error {
	pos := 0
	for pos < len(indexed.Types) {
		group := store.Group(indexed.Types[pos])
		members := store.GroupMembers(group)
		for i, member := range members {
			if pos+i >= len(indexed.Types) {
				return fmt.Errorf("group %d truncated at position %d", group, pos+i)
			}
			if got := indexed.Types[pos+i]; got != member {
				return fmt.Errorf("position %d holds %s, want group %d member %s",
					pos+i, store.Name(got), group, store.Name(member))
			}
		}
		pos += len(members)
	}
	return nil
}

// CheckTopologicalOrder verifies the dependency constraints of the type
// system: under isorecursive typing a referenced group's members precede
// every referencing group, under nominal typing a supertype precedes its
// subtype. Intra-group references are exempt.
func CheckTopologicalOrder(store *types.Store, indexed typeorder.IndexedHeapTypes, system typeorder.TypeSystem) error {
	switch system {
	case typeorder.Isorecursive:
		for _, t := range indexed.Types {
			group := store.Group(t)
			for _, ref := range store.ReferencedHeapTypes(t) {
				if ref.IsBasic() || store.Group(ref) == group {
					continue
				}
				if indexed.Indices[ref] >= indexed.Indices[t] {
					return fmt.Errorf("%s (index %d) referenced by %s (index %d) in a later group",
						store.Name(ref), indexed.Indices[ref], store.Name(t), indexed.Indices[t])
				}
			}
		}
	case typeorder.Nominal:
		for _, t := range indexed.Types {
			super, ok := store.Supertype(t)
			if !ok {
				continue
			}
			if indexed.Indices[super] >= indexed.Indices[t] {
				return fmt.Errorf("supertype %s (index %d) does not precede %s (index %d)",
					store.Name(super), indexed.Indices[super], store.Name(t), indexed.Indices[t])
			}
		}
	case typeorder.Equirecursive:
		// No cross-type constraint.
	}
	return nil
}
