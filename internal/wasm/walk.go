package wasm

// Children appends the operand expressions of e to out, in operand order.
func Children(e *Expr, out []*Expr) []*Expr {
	push := func(kids ...*Expr) {
		for _, k := range kids {
			if k != nil {
				out = append(out, k)
			}
		}
	}
	switch d := e.Data.(type) {
	case DropData:
		push(d.Value)
	case LocalSetData:
		push(d.Value)
	case CallData:
		push(d.Args...)
	case CallIndirectData:
		push(d.Args...)
		push(d.Index)
	case RttSubData:
		push(d.Parent)
	case StructNewData:
		push(d.Operands...)
		push(d.Rtt)
	case ArrayNewData:
		push(d.Init, d.Size, d.Rtt)
	case ArrayInitData:
		push(d.Values...)
		push(d.Rtt)
	case RefCastData:
		push(d.Ref, d.Rtt)
	case RefTestData:
		push(d.Ref, d.Rtt)
	case BrOnCastData:
		push(d.Ref, d.Rtt)
	case StructGetData:
		push(d.Ref)
	case StructSetData:
		push(d.Ref, d.Value)
	case ArrayGetData:
		push(d.Ref, d.Index)
	case ArraySetData:
		push(d.Ref, d.Index, d.Value)
	case BlockData:
		push(d.Body...)
	case LoopData:
		push(d.Body)
	case IfData:
		push(d.Cond, d.Then, d.Else)
	}
	return out
}

// Walk visits every expression in the tree rooted at e exactly once, in
// post-order. It is iterative so deep bodies cannot overflow the goroutine
// stack.
func Walk(e *Expr, visit func(*Expr)) {
	if e == nil {
		return
	}
	type frame struct {
		expr    *Expr
		emitted bool
	}
	stack := []frame{{expr: e}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.emitted {
			visit(top.expr)
			stack = stack[:len(stack)-1]
			continue
		}
		top.emitted = true
		kids := Children(top.expr, nil)
		// Push in reverse so operands are visited left to right.
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{expr: kids[i]})
		}
	}
}

// WalkModuleCode visits every expression that lives outside function
// bodies: global initializers and element segment offsets and entries.
func WalkModuleCode(m *Module, visit func(*Expr)) {
	for _, g := range m.Globals {
		Walk(g.Init, visit)
	}
	for _, seg := range m.Elems {
		Walk(seg.Offset, visit)
		for _, init := range seg.Init {
			Walk(init, visit)
		}
	}
}
