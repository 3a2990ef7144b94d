// Package language is a thin layer over gqlparser's query AST. It exposes the
// AST types the engine traverses plus the few document lookups every caller
// needs.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses a GraphQL executable document (operations + fragments).
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SingleOperation returns the document's only operation definition.
// ok is false when the document has zero or more than one operation.
func SingleOperation(doc *QueryDocument) (op *OperationDefinition, ok bool) {
	if len(doc.Operations) != 1 {
		return nil, false
	}
	return doc.Operations[0], true
}

// FragmentByName resolves a fragment definition in doc, or nil.
func FragmentByName(doc *QueryDocument, name string) *FragmentDefinition {
	return doc.Fragments.ForName(name)
}
