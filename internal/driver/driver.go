// Package driver orchestrates one analysis run: load a module description,
// compute its optimized type-section layout, and cache the result on disk.
package driver

import (
	"fmt"
	"os"

	"fortio.org/safecast"

	"weft/internal/modfile"
	"weft/internal/observ"
	"weft/internal/typeorder"
	"weft/internal/types"
	"weft/internal/wasm"
)

// Options configures an analysis run.
type Options struct {
	System typeorder.TypeSystem
	Jobs   int
	Cache  *DiskCache    // nil disables caching
	Timer  *observ.Timer // nil disables timing
}

// Result is the outcome of one analysis run.
type Result struct {
	Module   *wasm.Module
	Indexed  typeorder.IndexedHeapTypes
	CacheHit bool
}

// Analyze loads the module description at path and computes its layout.
func Analyze(path string, opts Options) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}

	endLoad := opts.Timer.Phase("load")
	m, err := modfile.Load(path)
	endLoad()
	if err != nil {
		return nil, err
	}

	key := DigestLayout(content, uint8(opts.System))
	if payload, hit, err := opts.Cache.Get(key); err != nil {
		return nil, fmt.Errorf("cache read: %w", err)
	} else if hit {
		indexed, ok := layoutFromPayload(m.Types, payload)
		if ok {
			return &Result{Module: m, Indexed: indexed, CacheHit: true}, nil
		}
		// A stale entry that no longer matches the module falls through to
		// recomputation below.
	}

	endOrder := opts.Timer.Phase("order")
	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{
		System: opts.System,
		Jobs:   opts.Jobs,
	})
	endOrder()

	if opts.Cache != nil {
		order := make([]uint32, len(indexed.Types))
		for i, t := range indexed.Types {
			order[i] = uint32(t)
		}
		payload := &DiskPayload{System: uint8(opts.System), Order: order}
		if err := opts.Cache.Put(key, payload); err != nil {
			return nil, fmt.Errorf("cache write: %w", err)
		}
	}
	return &Result{Module: m, Indexed: indexed}, nil
}

// layoutFromPayload reconstructs a layout from cached handle order.
func layoutFromPayload(store *types.Store, payload *DiskPayload) (typeorder.IndexedHeapTypes, bool) {
	indexed := typeorder.IndexedHeapTypes{
		Types:   make([]types.HeapType, len(payload.Order)),
		Indices: make(map[types.HeapType]uint32, len(payload.Order)),
	}
	for i, handle := range payload.Order {
		t := types.HeapType(handle)
		if !store.Contains(t) {
			return typeorder.IndexedHeapTypes{}, false
		}
		idx, err := safecast.Conv[uint32](i)
		if err != nil {
			return typeorder.IndexedHeapTypes{}, false
		}
		indexed.Types[i] = t
		indexed.Indices[t] = idx
	}
	if len(indexed.Indices) != len(indexed.Types) {
		return typeorder.IndexedHeapTypes{}, false
	}
	return indexed, true
}
