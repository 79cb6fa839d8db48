package modfile

import (
	"testing"

	"weft/internal/typeorder"
	"weft/internal/types"
)

const fixture = `
name = "demo"

[[types]]
name = "Node"
kind = "struct"
group = "g1"
  [[types.fields]]
  name = "next"
  type = "ref null Edge"

[[types]]
name = "Edge"
kind = "struct"
group = "g1"
  [[types.fields]]
  name = "node"
  type = "ref null Node"

[[types]]
name = "sigMain"
kind = "func"
results = ["i32"]

[[types]]
name = "NodeList"
kind = "array"
elem = "ref null Node"

[[funcs]]
name = "main"
type = "sigMain"
vars = ["ref null NodeList"]
body = [
  { op = "struct.new", type = "Node" },
  { op = "ref.cast", type = "Edge", dynamic = true },
  { op = "const" },
]
`

func TestParseFixture(t *testing.T) {
	m, err := Parse(fixture)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := m.Types.NumDefined(); got != 4 {
		t.Fatalf("defined %d types, want 4", got)
	}
	if len(m.Funcs) != 1 || m.Funcs[0].Name != "main" {
		t.Fatalf("funcs = %v", m.Funcs)
	}

	// The mutually recursive pair shares one group in declaration order.
	var node, edge types.HeapType
	for _, id := range m.Types.DefinedTypes() {
		switch m.Types.Name(id) {
		case "Node":
			node = id
		case "Edge":
			edge = id
		}
	}
	if node == types.NoHeapType || edge == types.NoHeapType {
		t.Fatalf("fixture types not found")
	}
	g := m.Types.Group(node)
	if m.Types.Group(edge) != g {
		t.Fatalf("Node and Edge not grouped together")
	}
	members := m.Types.GroupMembers(g)
	if len(members) != 2 || members[0] != node || members[1] != edge {
		t.Fatalf("group members = %v, want [Node Edge]", members)
	}
}

func TestParsedModuleAnalyzes(t *testing.T) {
	m, err := Parse(fixture)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	indexed := typeorder.OptimizedIndexedHeapTypes(m, typeorder.Options{System: typeorder.Isorecursive})
	// Node (counted), Edge (sibling), sigMain, NodeList (via vars) — the
	// dynamic cast adds nothing but its operand types are basic.
	if len(indexed.Types) != 4 {
		t.Fatalf("indexed %d types, want 4: %v", len(indexed.Types), indexed.Types)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"unknown kind", "[[types]]\nname = \"x\"\nkind = \"union\"\n"},
		{"duplicate type", "[[types]]\nname = \"x\"\nkind = \"struct\"\n[[types]]\nname = \"x\"\nkind = \"struct\"\n"},
		{"unknown field type", "[[types]]\nname = \"x\"\nkind = \"array\"\nelem = \"ref missing\"\n"},
		{"unknown op", "[[types]]\nname = \"s\"\nkind = \"func\"\n[[funcs]]\nname = \"f\"\ntype = \"s\"\nbody = [{ op = \"spin\" }]\n"},
		{"bad value type", "[[types]]\nname = \"x\"\nkind = \"array\"\nelem = \"i13\"\n"},
	}
	for _, tc := range cases {
		if _, err := Parse(tc.text); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestImportedFuncHasNoBody(t *testing.T) {
	m, err := Parse(`
[[types]]
name = "s"
kind = "func"

[[funcs]]
name = "imp"
type = "s"
imported = true
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	f := m.Funcs[0]
	if !f.Imported || f.Body != nil {
		t.Fatalf("import parsed as %+v", f)
	}
}
