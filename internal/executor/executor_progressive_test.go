package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	schema "github.com/unfoldgql/unfold/internal/schema"
)

// The executor re-runs over the raw tree as incremental chunks grow it. These
// tests drive that loop directly: pass N+1 receives pass N's result tree and
// must reuse its maps and resolve its placeholders exactly once.

func TestExecute_MissingFieldYieldsPlaceholder(t *testing.T) {
	// Schema: type Query { a: A }  type A { b: Int c: Int }
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("A"))),
		newObjectType("A",
			schema.NewField("b", "", schema.NamedType("Int")),
			schema.NewField("c", "", schema.NamedType("Int"))),
	)

	res, reg := execute(t, sch, `{ a { b c } }`, nil, map[string]any{
		"a": map[string]any{"b": float64(1)},
	})

	aMap, ok := res.Data.(map[string]any)["a"].(map[string]any)
	if !ok {
		t.Fatalf("a is not an object: %v", res.Data)
	}
	if aMap["b"] != 1 {
		t.Fatalf("b = %v, want 1", aMap["b"])
	}
	ph, ok := aMap["c"].(*Placeholder)
	if !ok {
		t.Fatalf("c is not a placeholder: %T", aMap["c"])
	}
	if _, resolved := ph.Value(); resolved {
		t.Fatal("placeholder resolved before its data arrived")
	}

	pending := reg.Pending()
	if len(pending) != 1 || pending[0].String() != "a.c" {
		t.Fatalf("pending = %v, want [a.c]", pending)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("missing data must not error: %v", res.Errors)
	}
}

func TestExecute_SecondPassResolvesInPlace(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("A"))),
		newObjectType("A",
			schema.NewField("b", "", schema.NamedType("Int")),
			schema.NewField("c", "", schema.NamedType("Int"))),
	)
	exec := NewExecutor(sch)
	doc := mustParseQuery(t, `{ a { b c } }`)
	reg := NewRegistry()

	raw := map[string]any{"a": map[string]any{"b": float64(1)}}
	first, err := exec.Execute(doc, nil, raw, nil, reg)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	aMap := first.Data.(map[string]any)["a"].(map[string]any)
	ph := aMap["c"].(*Placeholder)

	// The deferred chunk arrives: the raw tree grows, the result re-completes.
	raw["a"].(map[string]any)["c"] = float64(2)
	second, err := exec.Execute(doc, nil, raw, first.Data, reg)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if got := second.Data.(map[string]any)["a"].(map[string]any)["c"]; got != 2 {
		t.Fatalf("c = %v, want 2", got)
	}
	if aMap["c"] != 2 {
		t.Fatalf("previous tree not mutated in place: c = %v", aMap["c"])
	}
	v, resolved := ph.Value()
	if !resolved || v != 2 {
		t.Fatalf("placeholder not resolved with 2: (%v, %v)", v, resolved)
	}
	if got, err := ph.Await(context.Background()); err != nil || got != 2 {
		t.Fatalf("Await = (%v, %v), want (2, nil)", got, err)
	}
	if pending := reg.Pending(); len(pending) != 0 {
		t.Fatalf("pending after completion: %v", pending)
	}
}

func TestExecute_MissingObjectPlaceholderCoversSubtree(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("A"))),
		newObjectType("A", schema.NewField("b", "", schema.NamedType("Int"))),
	)
	exec := NewExecutor(sch)
	doc := mustParseQuery(t, `{ a { b } }`)
	reg := NewRegistry()

	first, err := exec.Execute(doc, nil, map[string]any{}, nil, reg)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	root := first.Data.(map[string]any)
	ph, ok := root["a"].(*Placeholder)
	if !ok {
		t.Fatalf("a is not a placeholder: %T", root["a"])
	}

	raw := map[string]any{"a": map[string]any{"b": float64(3)}}
	if _, err := exec.Execute(doc, nil, raw, first.Data, reg); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	// The covering placeholder resolves to the completed object, and the root
	// position now holds that object.
	v, resolved := ph.Value()
	if !resolved {
		t.Fatal("covering placeholder never resolved")
	}
	want := map[string]any{"b": 3}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("placeholder value mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, root["a"]); diff != "" {
		t.Fatalf("root position mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_MissingNonNullFieldIsNotAViolation(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("A"))),
		newObjectType("A",
			schema.NewField("b", "", schema.NonNullType(schema.NamedType("Int")))),
	)

	res, reg := execute(t, sch, `{ a { b } }`, nil, map[string]any{
		"a": map[string]any{},
	})

	if len(res.Errors) != 0 {
		t.Fatalf("missing non-null data must wait, not error: %v", res.Errors)
	}
	aMap := res.Data.(map[string]any)["a"].(map[string]any)
	if _, ok := aMap["b"].(*Placeholder); !ok {
		t.Fatalf("b is not a placeholder: %T", aMap["b"])
	}
	if pending := reg.Pending(); len(pending) != 1 || pending[0].String() != "a.b" {
		t.Fatalf("pending = %v, want [a.b]", pending)
	}
}

func TestExecute_StreamedListGrowsInPlace(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("nums", "", schema.ListType(schema.NamedType("Int")))))
	exec := NewExecutor(sch)
	doc := mustParseQuery(t, `{ nums }`)
	reg := NewRegistry()

	raw := map[string]any{"nums": []any{float64(10)}}
	first, err := exec.Execute(doc, nil, raw, nil, reg)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"nums": []any{10}}, first.Data); diff != "" {
		t.Fatalf("first pass mismatch (-want +got):\n%s", diff)
	}

	raw["nums"] = append(raw["nums"].([]any), float64(20))
	second, err := exec.Execute(doc, nil, raw, first.Data, reg)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	root := second.Data.(map[string]any)
	if diff := cmp.Diff([]any{10, 20}, root["nums"]); diff != "" {
		t.Fatalf("second pass mismatch (-want +got):\n%s", diff)
	}
	// The root object is the same map across passes.
	if diff := cmp.Diff([]any{10, 20}, first.Data.(map[string]any)["nums"]); diff != "" {
		t.Fatalf("previous tree not updated (-want +got):\n%s", diff)
	}
}
