package wasm

import "weft/internal/types"

// Module is a fully parsed module: the type store plus every construct that
// can materialize a heap type in the binary encoding.
type Module struct {
	Types   *types.Store
	Funcs   []*Func
	Globals []*Global
	Tables  []*Table
	Tags    []*Tag
	Elems   []*ElemSegment
}

// Func is a function definition or import.
type Func struct {
	Name     string
	Sig      types.HeapType // signature heap type
	Vars     []types.ValType
	Imported bool
	Body     *Expr // nil for imports
}

// Global is a module-level mutable or immutable value with an initializer
// expression.
type Global struct {
	Name    string
	Type    types.ValType
	Mutable bool
	Init    *Expr
}

// Table declares a table of reference values.
type Table struct {
	Name string
	Type types.ValType
}

// Tag declares an exception tag with a signature heap type.
type Tag struct {
	Name string
	Sig  types.HeapType
}

// ElemSegment is an element segment with a declared reference type, an
// optional table offset expression and initializer expressions.
type ElemSegment struct {
	Name   string
	Type   types.ValType
	Offset *Expr
	Init   []*Expr
}
