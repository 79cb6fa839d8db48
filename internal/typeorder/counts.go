package typeorder

import "weft/internal/types"

// counts tallies heap-type occurrences, preserving first-discovery order.
// Basic heap types are never recorded.
type counts struct {
	order []types.HeapType
	count map[types.HeapType]uint64
}

func newCounts() *counts {
	return &counts{count: make(map[types.HeapType]uint64)}
}

// note records one occurrence of the heap type.
func (c *counts) note(t types.HeapType) {
	if t.IsBasic() {
		return
	}
	if _, ok := c.count[t]; !ok {
		c.order = append(c.order, t)
	}
	c.count[t]++
}

// noteVal records the heap type behind a reference value type, if any.
func (c *counts) noteVal(v types.ValType) {
	if v.IsRef() {
		c.note(v.Heap)
	}
}

// include ensures the type is present without increasing its count.
func (c *counts) include(t types.HeapType) {
	if t.IsBasic() {
		return
	}
	if _, ok := c.count[t]; !ok {
		c.order = append(c.order, t)
		c.count[t] = 0
	}
}

func (c *counts) has(t types.HeapType) bool {
	_, ok := c.count[t]
	return ok
}

func (c *counts) get(t types.HeapType) uint64 {
	return c.count[t]
}

func (c *counts) len() int {
	return len(c.order)
}

// add merges other into c by key-wise addition, keeping discovery order:
// types already known keep their slot, new ones append in other's order.
func (c *counts) add(other *counts) {
	for _, t := range other.order {
		c.include(t)
		c.count[t] += other.count[t]
	}
}
