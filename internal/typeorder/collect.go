package typeorder

import (
	"weft/internal/types"
	"weft/internal/wasm"
)

// heapTypeCounts produces the closed occurrence map for the whole module:
// a sequential module-level scan, a parallel per-function scan merged
// key-wise, then transitive closure over children, supertypes and
// recursion-group siblings.
func heapTypeCounts(m *wasm.Module, jobs int) *counts {
	c := newCounts()

	// Module-level declarations and module-scope code, scanned once.
	cs := &codeScanner{store: m.Types, counts: c}
	wasm.WalkModuleCode(m, cs.visit)
	for _, tag := range m.Tags {
		c.note(tag.Sig)
	}
	for _, tbl := range m.Tables {
		c.noteVal(tbl.Type)
	}
	for _, seg := range m.Elems {
		c.noteVal(seg.Type)
	}

	// Per-function scans are independent reads of the IR; each worker fills
	// its own counts and the merge below is the only synchronization point.
	perFunc := wasm.AnalyzeFunctions(m, jobs, func(f *wasm.Func) *counts {
		fc := newCounts()
		scanFunction(m.Types, f, fc)
		return fc
	})
	for _, fc := range perFunc {
		c.add(fc)
	}

	closeOverTypes(m.Types, c)
	return c
}

// closeOverTypes expands the counted set until no type in it references a
// type outside it. Children of a discovered type appear in the type section
// and are counted; supertypes and group siblings are included at zero
// weight, which keeps index orderings stable across type-system variants.
func closeOverTypes(store *types.Store, c *counts) {
	queue := make([]types.HeapType, len(c.order))
	copy(queue, c.order)
	// Track groups already expanded so one large group is scanned at most
	// once no matter how many of its members are discovered independently.
	includedGroups := make(map[types.RecGroup]struct{})
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		for _, child := range store.Children(t) {
			if child.IsBasic() {
				continue
			}
			if !c.has(child) {
				queue = append(queue, child)
			}
			c.note(child)
		}

		if super, ok := store.Supertype(t); ok {
			if !c.has(super) {
				queue = append(queue, super)
				c.include(super)
			}
		}

		group := store.Group(t)
		if _, done := includedGroups[group]; !done {
			includedGroups[group] = struct{}{}
			for _, member := range store.GroupMembers(group) {
				if !c.has(member) {
					queue = append(queue, member)
					c.include(member)
				}
			}
		}
	}
}
