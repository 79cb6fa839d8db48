package typeorder

import (
	"weft/internal/types"
	"weft/internal/wasm"
)

// codeScanner tallies every non-basic heap type that an expression
// materializes in the binary encoding.
type codeScanner struct {
	store  *types.Store
	counts *counts
}

func (cs *codeScanner) visit(e *wasm.Expr) {
	switch d := e.Data.(type) {
	case wasm.CallIndirectData:
		cs.counts.note(d.Sig)
	case wasm.RefNullData:
		cs.counts.noteVal(e.Type)
	case wasm.RttCanonData:
		cs.counts.note(d.Heap)
	case wasm.RttSubData:
		cs.counts.note(d.Heap)
	case wasm.StructNewData:
		cs.visitMake(d.Heap, d.Rtt)
	case wasm.ArrayNewData:
		cs.visitMake(d.Heap, d.Rtt)
	case wasm.ArrayInitData:
		cs.visitMake(d.Heap, d.Rtt)
	case wasm.RefCastData:
		cs.visitCast(d.Intended, d.Rtt)
	case wasm.RefTestData:
		cs.visitCast(d.Intended, d.Rtt)
	case wasm.BrOnCastData:
		cs.visitCast(d.Intended, d.Rtt)
	case wasm.StructGetData:
		cs.counts.noteVal(d.Ref.Type)
	case wasm.StructSetData:
		cs.counts.noteVal(d.Ref.Type)
	case wasm.LocalGetData:
		cs.visitLocal(e)
	case wasm.LocalSetData:
		cs.visitLocal(e)
	case wasm.BlockData:
		cs.visitControlFlow(e, d.Sig)
	case wasm.LoopData:
		cs.visitControlFlow(e, d.Sig)
	case wasm.IfData:
		cs.visitControlFlow(e, d.Sig)
	}
}

// visitMake counts an allocation site. When the allocation is driven by a
// run-time RTT operand the heap type is not encoded statically, so nothing
// is counted.
func (cs *codeScanner) visitMake(heap types.HeapType, rtt *wasm.Expr) {
	if rtt == nil {
		cs.counts.note(heap)
	}
}

// visitCast counts a cast, test or branch-on-cast site. Dynamic variants
// carry the target type in the RTT operand rather than the encoding.
func (cs *codeScanner) visitCast(intended types.HeapType, rtt *wasm.Expr) {
	if rtt == nil {
		cs.counts.note(intended)
	}
}

// visitLocal marks the heap type of a reference-typed variable access as
// present without counting it. Local types normally arrive via the declared
// signature and vars, but during a signature rewrite the accesses are
// retyped before the signature is, and the two updates are not atomic. If
// such an access is the only occurrence of its type in the whole module,
// skipping it here would lose the type entirely.
func (cs *codeScanner) visitLocal(e *wasm.Expr) {
	if e.Type.IsRef() {
		cs.counts.include(e.Type.Heap)
	}
}

// visitControlFlow counts the block type. A multi-value result tuple is
// encoded through a synthetic signature, which is what actually lands in
// the type section.
func (cs *codeScanner) visitControlFlow(e *wasm.Expr, sig types.HeapType) {
	if len(e.Tuple) > 1 {
		cs.counts.note(sig)
		return
	}
	cs.counts.noteVal(e.Type)
}

// scanFunction tallies a single function: its declared signature, its local
// variable types and, for defined functions, its body.
func scanFunction(store *types.Store, f *wasm.Func, c *counts) {
	c.note(f.Sig)
	for _, v := range f.Vars {
		c.noteVal(v)
	}
	if !f.Imported {
		cs := &codeScanner{store: store, counts: c}
		wasm.Walk(f.Body, cs.visit)
	}
}
