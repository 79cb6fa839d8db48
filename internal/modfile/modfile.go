// Package modfile reads module description files: a TOML rendering of a
// module's type definitions, declarations and function bodies, used by the
// CLI and by test fixtures.
package modfile

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"weft/internal/types"
	"weft/internal/wasm"
)

type fileSchema struct {
	Name    string         `toml:"name"`
	Types   []typeSchema   `toml:"types"`
	Globals []globalSchema `toml:"globals"`
	Tables  []tableSchema  `toml:"tables"`
	Tags    []tagSchema    `toml:"tags"`
	Elems   []elemSchema   `toml:"elems"`
	Funcs   []funcSchema   `toml:"funcs"`
}

type typeSchema struct {
	Name    string        `toml:"name"`
	Kind    string        `toml:"kind"` // struct | array | func
	Group   string        `toml:"group"`
	Super   string        `toml:"super"`
	Fields  []fieldSchema `toml:"fields"`
	Elem    string        `toml:"elem"`
	Params  []string      `toml:"params"`
	Results []string      `toml:"results"`
}

type fieldSchema struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Mutable bool   `toml:"mutable"`
}

type globalSchema struct {
	Name    string     `toml:"name"`
	Type    string     `toml:"type"`
	Mutable bool       `toml:"mutable"`
	Init    []opSchema `toml:"init"`
}

type tableSchema struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type tagSchema struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type elemSchema struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type funcSchema struct {
	Name     string     `toml:"name"`
	Type     string     `toml:"type"`
	Vars     []string   `toml:"vars"`
	Imported bool       `toml:"imported"`
	Body     []opSchema `toml:"body"`
}

type opSchema struct {
	Op      string `toml:"op"`
	Type    string `toml:"type"`  // heap type name, or value type for locals
	Field   uint32 `toml:"field"` // struct.get / struct.set
	Local   uint32 `toml:"local"` // local.get / local.set
	Dynamic bool   `toml:"dynamic"`
	Fail    bool   `toml:"fail"`
}

// Load reads and builds a module from a TOML description file.
func Load(path string) (*wasm.Module, error) {
	var schema fileSchema
	if _, err := toml.DecodeFile(path, &schema); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	m, err := build(&schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse builds a module from TOML text. Exposed for tests.
func Parse(text string) (*wasm.Module, error) {
	var schema fileSchema
	if _, err := toml.Decode(text, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return build(&schema)
}

type builder struct {
	store  *types.Store
	byName map[string]types.HeapType
}

func build(schema *fileSchema) (*wasm.Module, error) {
	b := &builder{
		store: types.NewStore(),
		byName: map[string]types.HeapType{
			"func":   types.HeapFunc,
			"extern": types.HeapExtern,
			"any":    types.HeapAny,
			"eq":     types.HeapEq,
			"i31":    types.HeapI31,
			"data":   types.HeapData,
		},
	}

	// First pass allocates every handle so definitions may reference each
	// other in any order, including mutually.
	for _, ts := range schema.Types {
		if ts.Name == "" {
			return nil, fmt.Errorf("type with empty name")
		}
		if _, dup := b.byName[ts.Name]; dup {
			return nil, fmt.Errorf("duplicate type %q", ts.Name)
		}
		var id types.HeapType
		switch ts.Kind {
		case "struct":
			id = b.store.AddStruct(ts.Name, nil)
		case "array":
			id = b.store.AddArray(ts.Name, types.None)
		case "func":
			id = b.store.AddSignature(ts.Name, nil, nil)
		default:
			return nil, fmt.Errorf("type %q: unknown kind %q (expected: struct|array|func)", ts.Name, ts.Kind)
		}
		b.byName[ts.Name] = id
	}

	// Second pass resolves contents, supertypes and groups.
	groups := make(map[string][]types.HeapType)
	var groupOrder []string
	for _, ts := range schema.Types {
		id := b.byName[ts.Name]
		switch ts.Kind {
		case "struct":
			fields := make([]types.Field, 0, len(ts.Fields))
			for _, f := range ts.Fields {
				vt, err := b.valType(f.Type)
				if err != nil {
					return nil, fmt.Errorf("type %q field %q: %w", ts.Name, f.Name, err)
				}
				fields = append(fields, types.Field{Name: f.Name, Type: vt, Mutable: f.Mutable})
			}
			b.store.SetStructFields(id, fields)
		case "array":
			elem, err := b.valType(ts.Elem)
			if err != nil {
				return nil, fmt.Errorf("type %q elem: %w", ts.Name, err)
			}
			b.store.SetArrayElem(id, elem)
		case "func":
			params, err := b.valTypes(ts.Params)
			if err != nil {
				return nil, fmt.Errorf("type %q params: %w", ts.Name, err)
			}
			results, err := b.valTypes(ts.Results)
			if err != nil {
				return nil, fmt.Errorf("type %q results: %w", ts.Name, err)
			}
			b.store.SetSignature(id, params, results)
		}
		if ts.Super != "" {
			super, err := b.heapType(ts.Super)
			if err != nil {
				return nil, fmt.Errorf("type %q super: %w", ts.Name, err)
			}
			b.store.SetSupertype(id, super)
		}
		if ts.Group != "" {
			if _, seen := groups[ts.Group]; !seen {
				groupOrder = append(groupOrder, ts.Group)
			}
			groups[ts.Group] = append(groups[ts.Group], id)
		}
	}
	for _, label := range groupOrder {
		b.store.GroupTypes(groups[label]...)
	}

	m := &wasm.Module{Types: b.store}
	for _, gs := range schema.Globals {
		vt, err := b.valType(gs.Type)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", gs.Name, err)
		}
		init, err := b.body(gs.Init)
		if err != nil {
			return nil, fmt.Errorf("global %q init: %w", gs.Name, err)
		}
		m.Globals = append(m.Globals, &wasm.Global{Name: gs.Name, Type: vt, Mutable: gs.Mutable, Init: init})
	}
	for _, ts := range schema.Tables {
		vt, err := b.valType(ts.Type)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", ts.Name, err)
		}
		m.Tables = append(m.Tables, &wasm.Table{Name: ts.Name, Type: vt})
	}
	for _, ts := range schema.Tags {
		sig, err := b.heapType(ts.Type)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", ts.Name, err)
		}
		m.Tags = append(m.Tags, &wasm.Tag{Name: ts.Name, Sig: sig})
	}
	for _, es := range schema.Elems {
		vt, err := b.valType(es.Type)
		if err != nil {
			return nil, fmt.Errorf("elem %q: %w", es.Name, err)
		}
		m.Elems = append(m.Elems, &wasm.ElemSegment{Name: es.Name, Type: vt})
	}
	for _, fs := range schema.Funcs {
		sig, err := b.heapType(fs.Type)
		if err != nil {
			return nil, fmt.Errorf("func %q: %w", fs.Name, err)
		}
		vars, err := b.valTypes(fs.Vars)
		if err != nil {
			return nil, fmt.Errorf("func %q vars: %w", fs.Name, err)
		}
		f := &wasm.Func{Name: fs.Name, Sig: sig, Vars: vars, Imported: fs.Imported}
		if !fs.Imported {
			f.Body, err = b.body(fs.Body)
			if err != nil {
				return nil, fmt.Errorf("func %q body: %w", fs.Name, err)
			}
		}
		m.Funcs = append(m.Funcs, f)
	}
	return m, nil
}

func (b *builder) heapType(name string) (types.HeapType, error) {
	id, ok := b.byName[name]
	if !ok {
		return types.NoHeapType, fmt.Errorf("unknown type %q", name)
	}
	return id, nil
}

// valType parses "i32", "i64", "f32", "f64", "ref T" or "ref null T".
func (b *builder) valType(s string) (types.ValType, error) {
	switch s {
	case "i32":
		return types.I32, nil
	case "i64":
		return types.I64, nil
	case "f32":
		return types.F32, nil
	case "f64":
		return types.F64, nil
	}
	rest, ok := strings.CutPrefix(s, "ref ")
	if !ok {
		return types.None, fmt.Errorf("invalid value type %q", s)
	}
	nullable := false
	if name, isNull := strings.CutPrefix(rest, "null "); isNull {
		nullable = true
		rest = name
	}
	heap, err := b.heapType(rest)
	if err != nil {
		return types.None, err
	}
	if nullable {
		return types.NullRef(heap), nil
	}
	return types.Ref(heap), nil
}

func (b *builder) valTypes(ss []string) ([]types.ValType, error) {
	out := make([]types.ValType, 0, len(ss))
	for _, s := range ss {
		vt, err := b.valType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
	return out, nil
}

// body assembles a flat op list into a block expression. Ops that consume
// operands get synthetic ones, enough to type the site correctly.
func (b *builder) body(ops []opSchema) (*wasm.Expr, error) {
	kids := make([]*wasm.Expr, 0, len(ops))
	for i, op := range ops {
		e, err := b.op(op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
		kids = append(kids, e)
	}
	return &wasm.Expr{Kind: wasm.ExprBlock, Data: wasm.BlockData{Body: kids}}, nil
}

// opaqueRtt stands in for an RTT value flowing from elsewhere; its origin
// does not matter to type counting, only its presence does.
func opaqueRtt() *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprLocalGet, Type: types.None, Data: wasm.LocalGetData{}}
}

func castOperand() *wasm.Expr {
	return &wasm.Expr{Kind: wasm.ExprLocalGet, Type: types.NullRef(types.HeapAny), Data: wasm.LocalGetData{}}
}

func (b *builder) op(op opSchema) (*wasm.Expr, error) {
	var rtt *wasm.Expr
	if op.Dynamic {
		rtt = opaqueRtt()
	}
	switch op.Op {
	case "const":
		return &wasm.Expr{Kind: wasm.ExprConst, Type: types.I32, Data: wasm.ConstData{}}, nil
	case "unreachable":
		return &wasm.Expr{Kind: wasm.ExprUnreachable, Data: wasm.UnreachableData{}}, nil
	case "ref.null":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprRefNull, Type: types.NullRef(heap), Data: wasm.RefNullData{}}, nil
	case "rtt.canon":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprRttCanon, Data: wasm.RttCanonData{Heap: heap}}, nil
	case "rtt.sub":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprRttSub, Data: wasm.RttSubData{Heap: heap, Parent: opaqueRtt()}}, nil
	case "struct.new":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprStructNew, Type: types.Ref(heap), Data: wasm.StructNewData{Heap: heap, Rtt: rtt}}, nil
	case "array.new":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprArrayNew, Type: types.Ref(heap), Data: wasm.ArrayNewData{Heap: heap, Rtt: rtt}}, nil
	case "array.init":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprArrayInit, Type: types.Ref(heap), Data: wasm.ArrayInitData{Heap: heap, Rtt: rtt}}, nil
	case "ref.cast":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprRefCast, Type: types.Ref(heap), Data: wasm.RefCastData{Intended: heap, Rtt: rtt, Ref: castOperand()}}, nil
	case "ref.test":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprRefTest, Type: types.I32, Data: wasm.RefTestData{Intended: heap, Rtt: rtt, Ref: castOperand()}}, nil
	case "br_on_cast":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprBrOnCast, Data: wasm.BrOnCastData{Intended: heap, Rtt: rtt, Ref: castOperand(), Fail: op.Fail}}, nil
	case "struct.get":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		ref := &wasm.Expr{Kind: wasm.ExprLocalGet, Type: types.NullRef(heap), Data: wasm.LocalGetData{Index: op.Local}}
		return &wasm.Expr{Kind: wasm.ExprStructGet, Type: types.I32, Data: wasm.StructGetData{Ref: ref, Field: op.Field}}, nil
	case "struct.set":
		heap, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		ref := &wasm.Expr{Kind: wasm.ExprLocalGet, Type: types.NullRef(heap), Data: wasm.LocalGetData{Index: op.Local}}
		value := &wasm.Expr{Kind: wasm.ExprConst, Type: types.I32, Data: wasm.ConstData{}}
		return &wasm.Expr{Kind: wasm.ExprStructSet, Data: wasm.StructSetData{Ref: ref, Field: op.Field, Value: value}}, nil
	case "call_indirect":
		sig, err := b.heapType(op.Type)
		if err != nil {
			return nil, err
		}
		index := &wasm.Expr{Kind: wasm.ExprConst, Type: types.I32, Data: wasm.ConstData{}}
		return &wasm.Expr{Kind: wasm.ExprCallIndirect, Data: wasm.CallIndirectData{Sig: sig, Index: index}}, nil
	case "local.get":
		vt, err := b.valType(op.Type)
		if err != nil {
			return nil, err
		}
		return &wasm.Expr{Kind: wasm.ExprLocalGet, Type: vt, Data: wasm.LocalGetData{Index: op.Local}}, nil
	case "local.set":
		vt, err := b.valType(op.Type)
		if err != nil {
			return nil, err
		}
		value := &wasm.Expr{Kind: wasm.ExprConst, Type: types.I32, Data: wasm.ConstData{}}
		return &wasm.Expr{Kind: wasm.ExprLocalSet, Type: vt, Data: wasm.LocalSetData{Index: op.Local, Value: value}}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", op.Op)
	}
}
