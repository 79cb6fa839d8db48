package wasm

import (
	"testing"

	"weft/internal/types"
)

func TestWalkVisitsEveryNodeOnce(t *testing.T) {
	inner := &Expr{Kind: ExprConst, Type: types.I32, Data: ConstData{Value: 1}}
	set := &Expr{Kind: ExprLocalSet, Data: LocalSetData{Index: 0, Value: inner}}
	get := &Expr{Kind: ExprLocalGet, Type: types.I32, Data: LocalGetData{Index: 0}}
	root := &Expr{Kind: ExprBlock, Data: BlockData{Body: []*Expr{set, get}}}

	seen := make(map[*Expr]int)
	order := make([]*Expr, 0, 4)
	Walk(root, func(e *Expr) {
		seen[e]++
		order = append(order, e)
	})

	if len(seen) != 4 {
		t.Fatalf("visited %d distinct nodes, want 4", len(seen))
	}
	for e, n := range seen {
		if n != 1 {
			t.Fatalf("node %s visited %d times", e.Kind, n)
		}
	}
	// Post-order: operands before their parents, block last.
	if order[0] != inner || order[1] != set || order[2] != get || order[3] != root {
		t.Fatalf("unexpected visit order: %v %v %v %v", order[0].Kind, order[1].Kind, order[2].Kind, order[3].Kind)
	}
}

func TestWalkNilBody(t *testing.T) {
	calls := 0
	Walk(nil, func(*Expr) { calls++ })
	if calls != 0 {
		t.Fatalf("nil walk visited %d nodes", calls)
	}
}

func TestWalkModuleCode(t *testing.T) {
	s := types.NewStore()
	st := s.AddStruct("st", nil)

	globalInit := &Expr{Kind: ExprRefNull, Type: types.NullRef(st), Data: RefNullData{}}
	offset := &Expr{Kind: ExprConst, Type: types.I32, Data: ConstData{}}
	entry := &Expr{Kind: ExprRefNull, Type: types.NullRef(types.HeapFunc), Data: RefNullData{}}

	m := &Module{
		Types:   s,
		Globals: []*Global{{Name: "g", Type: types.NullRef(st), Init: globalInit}},
		Elems: []*ElemSegment{{
			Name:   "e",
			Type:   types.NullRef(types.HeapFunc),
			Offset: offset,
			Init:   []*Expr{entry},
		}},
	}

	var visited []*Expr
	WalkModuleCode(m, func(e *Expr) { visited = append(visited, e) })
	if len(visited) != 3 {
		t.Fatalf("visited %d module-code nodes, want 3", len(visited))
	}
}

func TestAnalyzeFunctionsMatchesSequential(t *testing.T) {
	m := &Module{Types: types.NewStore()}
	for i := 0; i < 64; i++ {
		body := &Expr{Kind: ExprBlock, Data: BlockData{Body: []*Expr{
			{Kind: ExprConst, Type: types.I32, Data: ConstData{Value: int64(i)}},
			{Kind: ExprConst, Type: types.I32, Data: ConstData{Value: int64(i * 2)}},
		}}}
		m.Funcs = append(m.Funcs, &Func{Name: "f", Body: body})
	}

	countNodes := func(f *Func) int {
		n := 0
		Walk(f.Body, func(*Expr) { n++ })
		return n
	}

	parallel := AnalyzeFunctions(m, 8, countNodes)
	sequential := make([]int, len(m.Funcs))
	for i, f := range m.Funcs {
		sequential[i] = countNodes(f)
	}
	for i := range sequential {
		if parallel[i] != sequential[i] {
			t.Fatalf("func %d: parallel %d != sequential %d", i, parallel[i], sequential[i])
		}
	}
}

func TestAnalyzeFunctionsEmptyModule(t *testing.T) {
	m := &Module{Types: types.NewStore()}
	if got := AnalyzeFunctions(m, 4, func(*Func) int { return 1 }); len(got) != 0 {
		t.Fatalf("empty module produced %d results", len(got))
	}
}
