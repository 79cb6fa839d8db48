package wasm

import "weft/internal/types"

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprConst represents a scalar constant.
	ExprConst ExprKind = iota
	// ExprDrop discards its operand.
	ExprDrop
	// ExprUnreachable traps.
	ExprUnreachable
	// ExprLocalGet reads a local variable.
	ExprLocalGet
	// ExprLocalSet writes a local variable (or tees it).
	ExprLocalSet
	// ExprCall calls a function directly.
	ExprCall
	// ExprCallIndirect calls through a table with a declared signature.
	ExprCallIndirect
	// ExprRefNull produces a null reference of the expression's type.
	ExprRefNull
	// ExprRttCanon produces the canonical RTT for a heap type.
	ExprRttCanon
	// ExprRttSub produces a sub-RTT of a parent RTT.
	ExprRttSub
	// ExprStructNew allocates a struct.
	ExprStructNew
	// ExprArrayNew allocates an array.
	ExprArrayNew
	// ExprArrayInit allocates an array from explicit element values.
	ExprArrayInit
	// ExprRefCast casts a reference to a target type.
	ExprRefCast
	// ExprRefTest tests a reference against a target type.
	ExprRefTest
	// ExprBrOnCast branches on a cast success or failure.
	ExprBrOnCast
	// ExprStructGet reads a struct field.
	ExprStructGet
	// ExprStructSet writes a struct field.
	ExprStructSet
	// ExprArrayGet reads an array element.
	ExprArrayGet
	// ExprArraySet writes an array element.
	ExprArraySet
	// ExprBlock is a block of child expressions.
	ExprBlock
	// ExprLoop is a loop with a single body.
	ExprLoop
	// ExprIf is a conditional with optional else arm.
	ExprIf
)

func (k ExprKind) String() string {
	switch k {
	case ExprConst:
		return "Const"
	case ExprDrop:
		return "Drop"
	case ExprUnreachable:
		return "Unreachable"
	case ExprLocalGet:
		return "LocalGet"
	case ExprLocalSet:
		return "LocalSet"
	case ExprCall:
		return "Call"
	case ExprCallIndirect:
		return "CallIndirect"
	case ExprRefNull:
		return "RefNull"
	case ExprRttCanon:
		return "RttCanon"
	case ExprRttSub:
		return "RttSub"
	case ExprStructNew:
		return "StructNew"
	case ExprArrayNew:
		return "ArrayNew"
	case ExprArrayInit:
		return "ArrayInit"
	case ExprRefCast:
		return "RefCast"
	case ExprRefTest:
		return "RefTest"
	case ExprBrOnCast:
		return "BrOnCast"
	case ExprStructGet:
		return "StructGet"
	case ExprStructSet:
		return "StructSet"
	case ExprArrayGet:
		return "ArrayGet"
	case ExprArraySet:
		return "ArraySet"
	case ExprBlock:
		return "Block"
	case ExprLoop:
		return "Loop"
	case ExprIf:
		return "If"
	default:
		return "Unknown"
	}
}

// Expr is one IR expression node.
type Expr struct {
	Kind ExprKind
	// Type is the node's static result type. Tuple is set instead when a
	// control-flow node produces multiple values.
	Type  types.ValType
	Tuple []types.ValType
	Data  ExprData // kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// ConstData holds data for ExprConst.
type ConstData struct {
	Value int64
}

func (ConstData) exprData() {}

// DropData holds data for ExprDrop.
type DropData struct {
	Value *Expr
}

func (DropData) exprData() {}

// UnreachableData holds data for ExprUnreachable.
type UnreachableData struct{}

func (UnreachableData) exprData() {}

// LocalGetData holds data for ExprLocalGet.
type LocalGetData struct {
	Index uint32
}

func (LocalGetData) exprData() {}

// LocalSetData holds data for ExprLocalSet.
type LocalSetData struct {
	Index uint32
	Value *Expr
	Tee   bool
}

func (LocalSetData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Target string
	Args   []*Expr
}

func (CallData) exprData() {}

// CallIndirectData holds data for ExprCallIndirect.
type CallIndirectData struct {
	Sig    types.HeapType // declared call signature
	Index  *Expr          // table index operand
	Args   []*Expr
	Table  uint32
}

func (CallIndirectData) exprData() {}

// RefNullData holds data for ExprRefNull; the null's heap type lives in
// Expr.Type.
type RefNullData struct{}

func (RefNullData) exprData() {}

// RttCanonData holds data for ExprRttCanon.
type RttCanonData struct {
	Heap types.HeapType
}

func (RttCanonData) exprData() {}

// RttSubData holds data for ExprRttSub.
type RttSubData struct {
	Heap   types.HeapType
	Parent *Expr
}

func (RttSubData) exprData() {}

// StructNewData holds data for ExprStructNew. A nil Rtt operand means the
// allocation is static and encodes its heap type directly.
type StructNewData struct {
	Heap     types.HeapType
	Rtt      *Expr
	Operands []*Expr
}

func (StructNewData) exprData() {}

// ArrayNewData holds data for ExprArrayNew.
type ArrayNewData struct {
	Heap types.HeapType
	Rtt  *Expr
	Size *Expr
	Init *Expr
}

func (ArrayNewData) exprData() {}

// ArrayInitData holds data for ExprArrayInit.
type ArrayInitData struct {
	Heap   types.HeapType
	Rtt    *Expr
	Values []*Expr
}

func (ArrayInitData) exprData() {}

// RefCastData holds data for ExprRefCast. A nil Rtt means the intended type
// is encoded statically.
type RefCastData struct {
	Intended types.HeapType
	Rtt      *Expr
	Ref      *Expr
}

func (RefCastData) exprData() {}

// RefTestData holds data for ExprRefTest.
type RefTestData struct {
	Intended types.HeapType
	Rtt      *Expr
	Ref      *Expr
}

func (RefTestData) exprData() {}

// BrOnCastData holds data for ExprBrOnCast.
type BrOnCastData struct {
	Intended types.HeapType
	Rtt      *Expr
	Ref      *Expr
	Fail     bool // branch on cast failure instead of success
	Label    string
}

func (BrOnCastData) exprData() {}

// StructGetData holds data for ExprStructGet.
type StructGetData struct {
	Ref   *Expr
	Field uint32
}

func (StructGetData) exprData() {}

// StructSetData holds data for ExprStructSet.
type StructSetData struct {
	Ref   *Expr
	Field uint32
	Value *Expr
}

func (StructSetData) exprData() {}

// ArrayGetData holds data for ExprArrayGet.
type ArrayGetData struct {
	Ref   *Expr
	Index *Expr
}

func (ArrayGetData) exprData() {}

// ArraySetData holds data for ExprArraySet.
type ArraySetData struct {
	Ref   *Expr
	Index *Expr
	Value *Expr
}

func (ArraySetData) exprData() {}

// BlockData holds data for ExprBlock. Sig is the synthetic signature heap
// type encoding a multi-value result tuple; NoHeapType when the block has
// at most one result.
type BlockData struct {
	Label string
	Sig   types.HeapType
	Body  []*Expr
}

func (BlockData) exprData() {}

// LoopData holds data for ExprLoop.
type LoopData struct {
	Label string
	Sig   types.HeapType
	Body  *Expr
}

func (LoopData) exprData() {}

// IfData holds data for ExprIf.
type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr // may be nil
	Sig  types.HeapType
}

func (IfData) exprData() {}

// IsControlFlow reports whether the node is a control-flow structure whose
// result type is encoded as a block type.
func (e *Expr) IsControlFlow() bool {
	switch e.Kind {
	case ExprBlock, ExprLoop, ExprIf:
		return true
	default:
		return false
	}
}
