package typeorder

import (
	"fmt"
	"slices"

	"weft/internal/types"
)

// groupInfo carries the scheduling inputs for one recursion group.
type groupInfo struct {
	index    int     // discovery order among groups
	useCount float64 // summed member counts, normalized by size for iso groups
	preds    []types.RecGroup
	predSet  map[types.RecGroup]struct{}
}

func (info *groupInfo) addPred(g types.RecGroup) {
	if info.predSet == nil {
		info.predSet = make(map[types.RecGroup]struct{})
	}
	if _, ok := info.predSet[g]; ok {
		return
	}
	info.predSet[g] = struct{}{}
	info.preds = append(info.preds, g)
}

// scheduleGroups arranges recursion groups so that every cross-group
// dependency precedes its dependents, biasing frequently used groups toward
// low indices, then flattens the groups into the final type list keeping
// each group's fixed member order.
func scheduleGroups(store *types.Store, c *counts, system TypeSystem) []types.HeapType {
	infos := make(map[types.RecGroup]*groupInfo)
	var discovered []types.RecGroup

	for _, t := range c.order {
		group := store.Group(t)
		info := infos[group]
		if info == nil {
			info = &groupInfo{index: len(discovered)}
			infos[group] = info
			discovered = append(discovered, group)
		}
		info.useCount += float64(c.get(t))

		switch system {
		case Isorecursive:
			// Any referenced type outside the group constrains ordering.
			for _, ref := range store.ReferencedHeapTypes(t) {
				if ref.IsBasic() {
					continue
				}
				if other := store.Group(ref); other != group {
					info.addPred(other)
				}
			}
		case Nominal:
			// Only the supertype's group does. Nominal groups are
			// singletons.
			if super, ok := store.Supertype(t); ok {
				info.addPred(store.Group(super))
			}
		case Equirecursive:
			panic("typeorder: equirecursive types have no group schedule")
		}
	}

	// Normalize use counts to per-member averages so a group's priority
	// reflects use density per unit of index space. Nominal groups are
	// always singletons, so skip them.
	if system != Nominal {
		for _, g := range discovered {
			infos[g].useCount /= float64(len(store.GroupMembers(g)))
		}
	}

	// Higher-use groups first; ties go to the earliest discovered.
	byPriority := func(a, b types.RecGroup) int {
		ia, ib := infos[a], infos[b]
		if ia.useCount != ib.useCount {
			if ia.useCount > ib.useCount {
				return -1
			}
			return 1
		}
		return ia.index - ib.index
	}
	for _, g := range discovered {
		slices.SortFunc(infos[g].preds, byPriority)
	}
	seeds := make([]types.RecGroup, len(discovered))
	copy(seeds, discovered)
	slices.SortFunc(seeds, byPriority)

	// Depth-first scheduling: predecessors first, then the group itself,
	// never twice. Valid input cannot produce a cross-group cycle, so
	// hitting one means the type graph itself is broken.
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[types.RecGroup]uint8, len(discovered))
	scheduled := make([]types.RecGroup, 0, len(discovered))
	var visit func(g types.RecGroup)
	visit = func(g types.RecGroup) {
		switch state[g] {
		case done:
			return
		case visiting:
			panic(fmt.Sprintf("typeorder: cycle among recursion groups at group %d", g))
		}
		info := infos[g]
		if info == nil {
			panic(fmt.Sprintf("typeorder: group %d escaped the closed type set", g))
		}
		state[g] = visiting
		for _, pred := range info.preds {
			visit(pred)
		}
		state[g] = done
		scheduled = append(scheduled, g)
	}
	for _, g := range seeds {
		visit(g)
	}

	out := make([]types.HeapType, 0, c.len())
	for _, g := range scheduled {
		out = append(out, store.GroupMembers(g)...)
	}
	return out
}
