package typeorder_test

import (
	"slices"
	"testing"

	"weft/internal/testkit"
	"weft/internal/typeorder"
	"weft/internal/types"
	"weft/internal/wasm"
)

// Expression shorthands for building test bodies.

func refNull(t types.HeapType) *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprRefNull, Type: types.NullRef(t), Data: wasm.RefNullData{}}
}

func structNew(t types.HeapType, rtt *wasm.Expr) *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprStructNew, Type: types.Ref(t), Data: wasm.StructNewData{Heap: t, Rtt: rtt}}
}

func refCast(t types.HeapType, rtt *wasm.Expr, ref *wasm.Expr) *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprRefCast, Type: types.Ref(t), Data: wasm.RefCastData{Intended: t, Rtt: rtt, Ref: ref}}
}

func structGet(ref *wasm.Expr, field uint32) *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprStructGet, Type: types.I32, Data: wasm.StructGetData{Ref: ref, Field: field}}
}

func localGet(index uint32, t types.ValType) *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprLocalGet, Type: t, Data: wasm.LocalGetData{Index: index}}
}

func block(kids ...*wasm.Expr) *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprBlock, Data: wasm.BlockData{Body: kids}}
}

func addFunc(m *wasm.Module, sig types.HeapType, body *wasm.Expr) *wasm.Func {
	f := &wasm.Func{Name: "f", Sig: sig, Body: body}
	m.Funcs = append(m.Funcs, f)
	return f
}

func newModule() (*wasm.Module, *types.Store) {
	s := types.NewStore()
	return &wasm.Module{Types: s}, s
}

func contains(list []types.HeapType, t types.HeapType) bool {
	return slices.Contains(list, t)
}

func TestEmptyModule(t *testing.T) {
	m, _ := newModule()
	if got := typeorder.CollectHeapTypes(m); len(got) != 0 {
		t.Fatalf("empty module collected %v", got)
	}
	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Isorecursive})
	if len(indexed.Types) != 0 || len(indexed.Indices) != 0 {
		t.Fatalf("empty module indexed %v", indexed)
	}
}

func TestCollectClosesOverFieldChildren(t *testing.T) {
	// A function reads field 0 of a StructA reference, and a global
	// allocates a StructA whose field 0 holds a StructB reference. StructB
	// never appears at an instruction site, yet it must be collected.
	m, s := newModule()
	structB := s.AddStruct("StructB", []types.Field{{Name: "v", Type: types.I32}})
	structA := s.AddStruct("StructA", []types.Field{{Name: "b", Type: types.NullRef(structB)}})
	sig := s.AddSignature("void", nil, nil)

	m.Globals = append(m.Globals, &wasm.Global{
		Name: "g",
		Type: types.NullRef(structA),
		Init: structNew(structA, nil),
	})
	addFunc(m, sig, block(structGet(refNull(structA), 0)))

	got := typeorder.CollectHeapTypes(m)
	if !contains(got, structA) || !contains(got, structB) {
		t.Fatalf("collected %v, want StructA and StructB present", got)
	}
	if err := testkit.CheckClosed(s, got); err != nil {
		t.Fatalf("closure violated: %v", err)
	}
}

func TestCollectClosesOverSupertypeAndSiblings(t *testing.T) {
	m, s := newModule()
	base := s.AddStruct("base", nil)
	sub := s.AddStruct("sub", nil)
	s.SetSupertype(sub, base)

	sibA := s.AddStruct("sibA", nil)
	sibB := s.AddStruct("sibB", nil)
	s.GroupTypes(sibA, sibB)

	sig := s.AddSignature("void", nil, nil)
	addFunc(m, sig, block(refNull(sub), refNull(sibA)))

	got := typeorder.CollectHeapTypes(m)
	for _, want := range []types.HeapType{sub, base, sibA, sibB} {
		if !contains(got, want) {
			t.Fatalf("collected %v, missing %s", got, s.Name(want))
		}
	}
	if err := testkit.CheckClosed(s, got); err != nil {
		t.Fatalf("closure violated: %v", err)
	}
}

func TestModuleDeclarationsCounted(t *testing.T) {
	m, s := newModule()
	tagSig := s.AddSignature("tagSig", []types.ValType{types.I32}, nil)
	tableSig := s.AddSignature("tableSig", nil, nil)
	elemSig := s.AddSignature("elemSig", nil, []types.ValType{types.I64})

	m.Tags = append(m.Tags, &wasm.Tag{Name: "t", Sig: tagSig})
	m.Tables = append(m.Tables, &wasm.Table{Name: "tbl", Type: types.NullRef(tableSig)})
	m.Elems = append(m.Elems, &wasm.ElemSegment{Name: "e", Type: types.NullRef(elemSig)})

	got := typeorder.CollectHeapTypes(m)
	for _, want := range []types.HeapType{tagSig, tableSig, elemSig} {
		if !contains(got, want) {
			t.Fatalf("collected %v, missing %s", got, s.Name(want))
		}
	}
}

func TestDynamicSitesNotCounted(t *testing.T) {
	// Allocation and cast driven by a run-time RTT value carry no statically
	// encoded type, so they must not introduce one.
	m, s := newModule()
	target := s.AddStruct("target", nil)
	rttOnly := s.AddStruct("rttOnly", nil)
	sig := s.AddSignature("void", nil, nil)

	rtt := &wasm.Expr{Kind: wasm.ExprRttCanon, Data: wasm.RttCanonData{Heap: rttOnly}}
	addFunc(m, sig, block(
		structNew(target, nil),           // static: counted
		refCast(target, rtt, refNull(target)), // dynamic: target not re-counted here
	))

	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Equirecursive})
	// target: 1 from struct.new + 1 from the ref.null's type; the dynamic
	// cast itself adds nothing. rttOnly: 1 from rtt.canon. So target must
	// sort before rttOnly despite the cast being discounted.
	if indexed.Indices[target] > indexed.Indices[rttOnly] {
		t.Fatalf("target indexed %d after rttOnly %d", indexed.Indices[target], indexed.Indices[rttOnly])
	}
}

func TestLocalAccessIncludesTypeAtZeroWeight(t *testing.T) {
	// A local.get retyped ahead of its function signature must keep its
	// heap type alive even when nothing else mentions it, and must not
	// perturb frequency ordering while doing so.
	m, s := newModule()
	rewritten := s.AddStruct("rewritten", nil)
	busy := s.AddStruct("busy", nil)
	sig := s.AddSignature("void", nil, nil)

	addFunc(m, sig, block(
		localGet(0, types.NullRef(rewritten)),
		refNull(busy),
	))

	got := typeorder.CollectHeapTypes(m)
	if !contains(got, rewritten) {
		t.Fatalf("collected %v, missing mid-rewrite local type", got)
	}

	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Equirecursive})
	if indexed.Indices[busy] > indexed.Indices[rewritten] {
		t.Fatalf("zero-weight local type outranked a counted type: busy=%d rewritten=%d",
			indexed.Indices[busy], indexed.Indices[rewritten])
	}
}

func TestMultiValueBlockCountsSyntheticSignature(t *testing.T) {
	m, s := newModule()
	sig := s.AddSignature("void", nil, nil)
	blockSig := s.AddSignature("pair", nil, []types.ValType{types.I32, types.I64})

	multi := &wasm.Expr{
		Kind:  wasm.ExprBlock,
		Tuple: []types.ValType{types.I32, types.I64},
		Data:  wasm.BlockData{Sig: blockSig},
	}
	addFunc(m, sig, block(multi))

	if got := typeorder.CollectHeapTypes(m); !contains(got, blockSig) {
		t.Fatalf("collected %v, missing multi-value block signature", got)
	}
}

func TestControlFlowResultTypeCounted(t *testing.T) {
	m, s := newModule()
	sig := s.AddSignature("void", nil, nil)
	result := s.AddStruct("result", nil)

	cond := &wasm.Expr{Kind: wasm.ExprConst, Type: types.I32, Data: wasm.ConstData{}}
	ifExpr := &wasm.Expr{
		Kind: wasm.ExprIf,
		Type: types.NullRef(result),
		Data: wasm.IfData{Cond: cond, Then: refNull(result)},
	}
	addFunc(m, sig, block(ifExpr))

	if got := typeorder.CollectHeapTypes(m); !contains(got, result) {
		t.Fatalf("collected %v, missing control-flow result type", got)
	}
}

func TestCallIndirectSignatureCounted(t *testing.T) {
	m, s := newModule()
	sig := s.AddSignature("void", nil, nil)
	callee := s.AddSignature("callee", []types.ValType{types.I32}, []types.ValType{types.I32})

	call := &wasm.Expr{Kind: wasm.ExprCallIndirect, Type: types.I32, Data: wasm.CallIndirectData{
		Sig:   callee,
		Index: &wasm.Expr{Kind: wasm.ExprConst, Type: types.I32, Data: wasm.ConstData{}},
	}}
	addFunc(m, sig, block(call))

	if got := typeorder.CollectHeapTypes(m); !contains(got, callee) {
		t.Fatalf("collected %v, missing indirect call signature", got)
	}
}

func TestImportedFunctionBodyNotScanned(t *testing.T) {
	m, s := newModule()
	sig := s.AddSignature("void", nil, nil)
	varOnly := s.AddStruct("varOnly", nil)
	m.Funcs = append(m.Funcs, &wasm.Func{
		Name:     "imp",
		Sig:      sig,
		Vars:     []types.ValType{types.NullRef(varOnly)},
		Imported: true,
	})

	got := typeorder.CollectHeapTypes(m)
	if !contains(got, sig) || !contains(got, varOnly) {
		t.Fatalf("collected %v, want signature and var types of the import", got)
	}
}

func TestFrequencyMonotonicity(t *testing.T) {
	m, s := newModule()
	hot := s.AddStruct("hot", nil)
	warm := s.AddStruct("warm", nil)
	cold := s.AddStruct("cold", nil)
	sig := s.AddSignature("void", nil, nil)

	addFunc(m, sig, block(
		refNull(cold),
		refNull(warm), refNull(warm),
		refNull(hot), refNull(hot), refNull(hot),
	))

	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Equirecursive})
	if err := testkit.CheckBijection(indexed); err != nil {
		t.Fatalf("bijection violated: %v", err)
	}
	if !(indexed.Indices[hot] < indexed.Indices[warm] && indexed.Indices[warm] < indexed.Indices[cold]) {
		t.Fatalf("frequency order violated: hot=%d warm=%d cold=%d",
			indexed.Indices[hot], indexed.Indices[warm], indexed.Indices[cold])
	}
}

func TestFrequencyTieBreaksByDiscovery(t *testing.T) {
	m, s := newModule()
	first := s.AddStruct("first", nil)
	second := s.AddStruct("second", nil)
	sig := s.AddSignature("void", nil, nil)

	addFunc(m, sig, block(refNull(first), refNull(second)))

	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Equirecursive})
	if indexed.Indices[first] > indexed.Indices[second] {
		t.Fatalf("tie broken against discovery order: first=%d second=%d",
			indexed.Indices[first], indexed.Indices[second])
	}
}

func TestSupertypeIncludedAtZeroWeight(t *testing.T) {
	m, s := newModule()
	base := s.AddStruct("base", nil)
	sub := s.AddStruct("sub", nil)
	s.SetSupertype(sub, base)
	sig := s.AddSignature("void", nil, nil)

	addFunc(m, sig, block(refNull(sub), refNull(sub)))

	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Equirecursive})
	if !contains(indexed.Types, base) {
		t.Fatalf("supertype missing from %v", indexed.Types)
	}
	// The supertype is included, not counted, so it cannot outrank its
	// frequently used subtype.
	if indexed.Indices[base] < indexed.Indices[sub] {
		t.Fatalf("uncounted supertype outranked subtype: base=%d sub=%d",
			indexed.Indices[base], indexed.Indices[sub])
	}
}

func TestDeterminism(t *testing.T) {
	for _, system := range []typeorder.TypeSystem{typeorder.Equirecursive, typeorder.Isorecursive, typeorder.Nominal} {
		m, s := newModule()
		a := s.AddStruct("a", nil)
		b := s.AddStruct("b", []types.Field{{Name: "a", Type: types.NullRef(a)}})
		sig := s.AddSignature("void", nil, nil)
		addFunc(m, sig, block(refNull(b), refNull(a), structNew(b, nil)))

		// Supertypes are only legal outside equirecursive mode, but the
		// ordering must be deterministic in every mode regardless.
		first := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: system})
		for i := 0; i < 10; i++ {
			again := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: system})
			if !slices.Equal(first.Types, again.Types) {
				t.Fatalf("%s: run %d produced %v, want %v", system, i, again.Types, first.Types)
			}
		}
	}
}

func TestParallelSequentialEquivalence(t *testing.T) {
	m, s := newModule()
	shared := s.AddStruct("shared", nil)
	sig := s.AddSignature("void", nil, nil)
	for i := 0; i < 50; i++ {
		own := s.AddStruct("own", nil)
		addFunc(m, sig, block(refNull(shared), refNull(own)))
	}

	serial := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Isorecursive, Jobs: 1})
	parallel := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Isorecursive, Jobs: 8})
	if !slices.Equal(serial.Types, parallel.Types) {
		t.Fatalf("parallel scan diverged from sequential:\n%v\n%v", parallel.Types, serial.Types)
	}
}
