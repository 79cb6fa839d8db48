package binary

import (
	"fmt"

	"weft/internal/types"
	"weft/internal/typeorder"
)

// Binary encoding constants for the type section.
const (
	sectionType byte = 0x01

	formFunc   byte = 0x60
	formStruct byte = 0x5f
	formArray  byte = 0x5e
	formSub    byte = 0x50
	formRec    byte = 0x4e

	valI32 byte = 0x7f
	valI64 byte = 0x7e
	valF32 byte = 0x7d
	valF64 byte = 0x7c

	refNullable byte = 0x63
	refNonNull  byte = 0x64

	heapFunc   int64 = -0x10
	heapExtern int64 = -0x11
	heapAny    int64 = -0x12
	heapEq     int64 = -0x13
	heapI31    int64 = -0x14
	heapData   int64 = -0x15
)

// TypeSection encodes the ordered types as one binary type section. Under
// isorecursive and nominal typing, indices written for referenced types are
// always below the referencing group, which is exactly what the layout's
// topological ordering guarantees.
func TypeSection(store *types.Store, indexed typeorder.IndexedHeapTypes, system typeorder.TypeSystem) []byte {
	var body []byte
	if system == typeorder.Equirecursive {
		// Flat: every entry stands alone.
		body = AppendUleb128(body, uint64(len(indexed.Types)))
		for _, t := range indexed.Types {
			body = encodeType(body, store, indexed, t)
		}
	} else {
		groups := groupRuns(store, indexed)
		body = AppendUleb128(body, uint64(len(groups)))
		for _, members := range groups {
			if len(members) > 1 {
				body = append(body, formRec)
				body = AppendUleb128(body, uint64(len(members)))
			}
			for _, t := range members {
				body = encodeType(body, store, indexed, t)
			}
		}
	}

	out := []byte{sectionType}
	out = AppendUleb128(out, uint64(len(body)))
	return append(out, body...)
}

// groupRuns splits the ordered list into its consecutive recursion groups.
func groupRuns(store *types.Store, indexed typeorder.IndexedHeapTypes) [][]types.HeapType {
	var runs [][]types.HeapType
	pos := 0
	for pos < len(indexed.Types) {
		members := store.GroupMembers(store.Group(indexed.Types[pos]))
		if len(members) == 0 || pos+len(members) > len(indexed.Types) {
			panic(fmt.Sprintf("binary: layout broke group contiguity at position %d", pos))
		}
		runs = append(runs, indexed.Types[pos:pos+len(members)])
		pos += len(members)
	}
	return runs
}

func encodeType(out []byte, store *types.Store, indexed typeorder.IndexedHeapTypes, t types.HeapType) []byte {
	if super, ok := store.Supertype(t); ok {
		out = append(out, formSub)
		out = AppendUleb128(out, 1)
		out = AppendUleb128(out, uint64(indexed.Indices[super]))
	}
	switch store.Kind(t) {
	case types.KindSig:
		params, results := store.Signature(t)
		out = append(out, formFunc)
		out = AppendUleb128(out, uint64(len(params)))
		for _, p := range params {
			out = encodeValType(out, indexed, p)
		}
		out = AppendUleb128(out, uint64(len(results)))
		for _, r := range results {
			out = encodeValType(out, indexed, r)
		}
	case types.KindStruct:
		fields := store.Fields(t)
		out = append(out, formStruct)
		out = AppendUleb128(out, uint64(len(fields)))
		for _, f := range fields {
			out = encodeField(out, indexed, f)
		}
	case types.KindArray:
		out = append(out, formArray)
		out = encodeField(out, indexed, types.Field{Type: store.Elem(t)})
	default:
		panic(fmt.Sprintf("binary: cannot encode heap type %s", store.Name(t)))
	}
	return out
}

func encodeField(out []byte, indexed typeorder.IndexedHeapTypes, f types.Field) []byte {
	out = encodeValType(out, indexed, f.Type)
	if f.Mutable {
		return append(out, 0x01)
	}
	return append(out, 0x00)
}

func encodeValType(out []byte, indexed typeorder.IndexedHeapTypes, v types.ValType) []byte {
	switch v.Kind {
	case types.ValI32:
		return append(out, valI32)
	case types.ValI64:
		return append(out, valI64)
	case types.ValF32:
		return append(out, valF32)
	case types.ValF64:
		return append(out, valF64)
	case types.ValRef:
		if v.Nullable {
			out = append(out, refNullable)
		} else {
			out = append(out, refNonNull)
		}
		return AppendSleb128(out, heapTypeCode(indexed, v.Heap))
	default:
		panic(fmt.Sprintf("binary: cannot encode value type %s", v))
	}
}

// heapTypeCode returns the s33 payload for a heap type: negative codes for
// basic types, the assigned index otherwise.
func heapTypeCode(indexed typeorder.IndexedHeapTypes, t types.HeapType) int64 {
	switch t {
	case types.HeapFunc:
		return heapFunc
	case types.HeapExtern:
		return heapExtern
	case types.HeapAny:
		return heapAny
	case types.HeapEq:
		return heapEq
	case types.HeapI31:
		return heapI31
	case types.HeapData:
		return heapData
	}
	idx, ok := indexed.Indices[t]
	if !ok {
		panic(fmt.Sprintf("binary: heap type %s escaped the layout", t))
	}
	return int64(idx)
}
