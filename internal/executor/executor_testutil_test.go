package executor

import (
	"testing"

	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

// execute runs one completion pass with a fresh registry and fails on fatal
// errors.
func execute(t *testing.T, sch *schema.Schema, query string, variables map[string]any, data any) (*Result, *Registry) {
	t.Helper()
	reg := NewRegistry()
	res, err := NewExecutor(sch).Execute(mustParseQuery(t, query), variables, data, nil, reg)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return res, reg
}
