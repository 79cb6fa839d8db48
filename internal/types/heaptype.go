package types

import "fmt"

// HeapType identifies a heap type inside a Store. Basic heap types occupy
// fixed handles below firstDefined; everything else is an arena slot.
type HeapType uint32

// NoHeapType marks the absence of a heap type.
const NoHeapType HeapType = 0

// Basic heap types. These exist without a definition in the type section
// and are seeded into every Store at the same handles.
const (
	HeapFunc HeapType = iota + 1
	HeapExtern
	HeapAny
	HeapEq
	HeapI31
	HeapData

	firstDefined
)

// IsBasic reports whether the heap type is a builtin rather than a defined
// struct, array or signature. NoHeapType counts as basic.
func (t HeapType) IsBasic() bool {
	return t < firstDefined
}

func (t HeapType) String() string {
	switch t {
	case NoHeapType:
		return "none"
	case HeapFunc:
		return "func"
	case HeapExtern:
		return "extern"
	case HeapAny:
		return "any"
	case HeapEq:
		return "eq"
	case HeapI31:
		return "i31"
	case HeapData:
		return "data"
	default:
		return fmt.Sprintf("type[%d]", uint32(t))
	}
}

// RecGroup identifies a recursion group inside a Store. Groups are compared
// by handle, never by member contents.
type RecGroup uint32

// NoRecGroup marks the absence of a group (basic heap types only).
const NoRecGroup RecGroup = 0

// Kind enumerates the kinds of defined heap types.
type Kind uint8

const (
	KindBasic Kind = iota
	KindSig
	KindStruct
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindSig:
		return "sig"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}
