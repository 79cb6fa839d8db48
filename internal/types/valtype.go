package types

import "fmt"

// ValKind enumerates value-type shapes.
type ValKind uint8

const (
	ValNone ValKind = iota
	ValI32
	ValI64
	ValF32
	ValF64
	ValRef
)

func (k ValKind) String() string {
	switch k {
	case ValNone:
		return "none"
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValRef:
		return "ref"
	default:
		return fmt.Sprintf("ValKind(%d)", k)
	}
}

// ValType is a compact value-type descriptor: a scalar, or a reference to a
// heap type with a nullability flag.
type ValType struct {
	Kind     ValKind
	Heap     HeapType // for ValRef
	Nullable bool     // for ValRef
}

// Scalar shorthands.
var (
	None = ValType{Kind: ValNone}
	I32  = ValType{Kind: ValI32}
	I64  = ValType{Kind: ValI64}
	F32  = ValType{Kind: ValF32}
	F64  = ValType{Kind: ValF64}
)

// Ref describes a non-nullable reference to the heap type.
func Ref(heap HeapType) ValType {
	return ValType{Kind: ValRef, Heap: heap}
}

// NullRef describes a nullable reference to the heap type.
func NullRef(heap HeapType) ValType {
	return ValType{Kind: ValRef, Heap: heap, Nullable: true}
}

// IsRef reports whether the value type is a reference.
func (v ValType) IsRef() bool {
	return v.Kind == ValRef
}

func (v ValType) String() string {
	if v.Kind != ValRef {
		return v.Kind.String()
	}
	if v.Nullable {
		return fmt.Sprintf("(ref null %s)", v.Heap)
	}
	return fmt.Sprintf("(ref %s)", v.Heap)
}

// Field describes one struct field.
type Field struct {
	Name    string
	Type    ValType
	Mutable bool
}
