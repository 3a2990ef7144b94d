package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

func collectKeys(g *GroupedFieldSet) []string {
	keys := make([]string, 0, g.Len())
	for _, group := range g.Groups() {
		keys = append(keys, group.ResponseKey)
	}
	return keys
}

func TestCollectFields_ResponseKeyOrder(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("a", "", schema.NamedType("String")),
			schema.NewField("b", "", schema.NamedType("String"))))
	doc := mustParseQuery(t, `{ b first: a a b }`)

	grouped := CollectFields(sch, doc, sch.GetQueryType(), doc.Operations[0].SelectionSet, nil)

	// First-encounter order; repeated keys merge into one group.
	want := []string{"b", "first", "a"}
	if diff := cmp.Diff(want, collectKeys(grouped)); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
	if n := len(grouped.Groups()[0].Fields); n != 2 {
		t.Fatalf("b has %d field nodes, want 2", n)
	}
}

func TestCollectFields_SkipInclude(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("a", "", schema.NamedType("String")),
			schema.NewField("b", "", schema.NamedType("String")),
			schema.NewField("c", "", schema.NamedType("String"))))
	doc := mustParseQuery(t, `query ($yes: Boolean!, $no: Boolean!) {
		a @skip(if: $yes)
		b @include(if: $no)
		c @skip(if: $no) @include(if: $yes)
	}`)

	grouped := CollectFields(sch, doc, sch.GetQueryType(), doc.Operations[0].SelectionSet,
		map[string]any{"yes": true, "no": false})

	if diff := cmp.Diff([]string{"c"}, collectKeys(grouped)); diff != "" {
		t.Fatalf("key mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectFields_FragmentTypeConditions(t *testing.T) {
	node := schema.NewType("Node", schema.TypeKindInterface, "")
	node.AddPossibleType("User")

	user := newObjectType("User",
		schema.NewField("id", "", schema.NamedType("ID")),
		schema.NewField("name", "", schema.NamedType("String")))
	user.AddInterface("Node")

	pet := schema.NewType("Pet", schema.TypeKindUnion, "")
	pet.AddPossibleType("User")

	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("node", "", schema.NamedType("Node"))),
		node, user, pet)

	t.Run("applying interface fragment is expanded", func(t *testing.T) {
		doc := mustParseQuery(t, `{ node { ...F } } fragment F on Node { id }`)
		grouped := CollectFields(sch, doc, user, doc.Operations[0].SelectionSet[0].(*language.Field).SelectionSet, nil)
		if diff := cmp.Diff([]string{"id"}, collectKeys(grouped)); diff != "" {
			t.Fatalf("key mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-applying fragment is dropped", func(t *testing.T) {
		other := newObjectType("Other", schema.NewField("id", "", schema.NamedType("ID")))
		sch.AddType(other)
		doc := mustParseQuery(t, `{ node { ... on Other { id } name } }`)
		grouped := CollectFields(sch, doc, user, doc.Operations[0].SelectionSet[0].(*language.Field).SelectionSet, nil)
		if diff := cmp.Diff([]string{"name"}, collectKeys(grouped)); diff != "" {
			t.Fatalf("key mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("union membership applies", func(t *testing.T) {
		doc := mustParseQuery(t, `{ node { ... on Pet { name } } }`)
		grouped := CollectFields(sch, doc, user, doc.Operations[0].SelectionSet[0].(*language.Field).SelectionSet, nil)
		if diff := cmp.Diff([]string{"name"}, collectKeys(grouped)); diff != "" {
			t.Fatalf("key mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCollectFields_CyclicFragmentsTerminate(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("String"))))
	doc := mustParseQuery(t, `{ ...A }
		fragment A on Query { a ...B }
		fragment B on Query { ...A }`)

	grouped := CollectFields(sch, doc, sch.GetQueryType(), doc.Operations[0].SelectionSet, nil)

	if diff := cmp.Diff([]string{"a"}, collectKeys(grouped)); diff != "" {
		t.Fatalf("key mismatch (-want +got):\n%s", diff)
	}
}
