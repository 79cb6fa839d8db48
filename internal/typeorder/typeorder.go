// Package typeorder discovers the closed set of heap types a module uses
// and assigns each one a position in the serialized type section. Recursion
// groups stay contiguous and dependency-ordered; frequently used types get
// low indices so their encoded references shrink.
//
// The whole computation is one bounded synchronous call per module: a
// parallel per-function scan, then sequential closure, ordering and index
// assignment. Nothing persists across calls.
package typeorder

import (
	"cmp"
	"fmt"
	"slices"

	"fortio.org/safecast"

	"weft/internal/types"
	"weft/internal/wasm"
)

// TypeSystem selects the type-equivalence discipline, which dictates the
// physical ordering constraints on the type section. Callers pass it
// explicitly; there is no ambient mode.
type TypeSystem uint8

const (
	// Equirecursive type sections have no cross-type ordering constraint.
	Equirecursive TypeSystem = iota
	// Isorecursive type sections order recursion groups after every group
	// they reference.
	Isorecursive
	// Nominal type sections order each type after its supertype.
	Nominal
)

func (s TypeSystem) String() string {
	switch s {
	case Equirecursive:
		return "equirecursive"
	case Isorecursive:
		return "isorecursive"
	case Nominal:
		return "nominal"
	default:
		return fmt.Sprintf("TypeSystem(%d)", s)
	}
}

// ParseTypeSystem converts a string to a TypeSystem.
func ParseTypeSystem(s string) (TypeSystem, error) {
	switch s {
	case "equirecursive":
		return Equirecursive, nil
	case "isorecursive":
		return Isorecursive, nil
	case "nominal":
		return Nominal, nil
	default:
		return Isorecursive, fmt.Errorf("invalid type system: %q (expected: equirecursive|isorecursive|nominal)", s)
	}
}

// Options configures an analysis call.
type Options struct {
	System TypeSystem
	Jobs   int // per-function scan workers; <=0 means GOMAXPROCS
}

// IndexedHeapTypes is the final type-section layout: the ordered types and
// the derived reverse map, a bijection onto [0, len(Types)).
type IndexedHeapTypes struct {
	Types   []types.HeapType
	Indices map[types.HeapType]uint32
}

// CollectHeapTypes returns every heap type reachable from the module, in
// first-discovery order. Use it where only membership matters, not layout.
func CollectHeapTypes(m *wasm.Module) []types.HeapType {
	c := heapTypeCounts(m, 0)
	out := make([]types.HeapType, len(c.order))
	copy(out, c.order)
	return out
}

// OptimizedIndexedHeapTypes computes the type-section layout for the given
// type system. The result is deterministic for a given module and options.
func OptimizedIndexedHeapTypes(m *wasm.Module, opts Options) IndexedHeapTypes {
	c := heapTypeCounts(m, opts.Jobs)

	if opts.System == Equirecursive {
		// Descending frequency; the stable sort keeps first-discovery
		// order for ties.
		ordered := make([]types.HeapType, len(c.order))
		copy(ordered, c.order)
		slices.SortStableFunc(ordered, func(a, b types.HeapType) int {
			return cmp.Compare(c.get(b), c.get(a))
		})
		return assignIndices(ordered)
	}

	return assignIndices(scheduleGroups(m.Types, c, opts.System))
}

// assignIndices derives the reverse lookup for an ordered type list. The
// upstream stages guarantee the list has no duplicates.
func assignIndices(ordered []types.HeapType) IndexedHeapTypes {
	indexed := IndexedHeapTypes{
		Types:   ordered,
		Indices: make(map[types.HeapType]uint32, len(ordered)),
	}
	for i, t := range ordered {
		idx, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("type index overflow: %w", err))
		}
		indexed.Indices[t] = idx
	}
	return indexed
}
