package executor

import (
	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

// Executor drives value completion for one schema. It is stateless and safe
// to share; per-request state lives in the registry and the trees passed in.
type Executor struct {
	schema *schema.Schema
}

func NewExecutor(sch *schema.Schema) *Executor {
	return &Executor{schema: sch}
}

// Schema returns the type graph the executor completes against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// Execute completes the document's root selection set against initialData.
//
// previous is the result tree assembled by an earlier pass (nil on the first
// call). Positions that already hold a Placeholder are reused when their data
// is still missing and resolved exactly once when it has arrived, so
// re-executing over a raw tree grown by incremental patches progressively
// completes the same result object.
//
// Fatal conditions (document shape, variable coercion, a malformed data root)
// return an error; field-level failures are collected in Result.Errors.
func (e *Executor) Execute(
	doc *language.QueryDocument,
	variableValues map[string]any,
	initialData any,
	previous any,
	registry *Registry,
) (*Result, error) {
	op, err := e.operation(doc)
	if err != nil {
		return nil, err
	}

	coerced, err := CoerceVariableValues(e.schema, op, variableValues)
	if err != nil {
		return nil, err
	}

	var rootType *schema.Type
	switch op.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	}
	if rootType == nil {
		return nil, Errorf(KindDocumentShape, nil,
			"schema does not define a root type for %s operations", op.Operation)
	}

	state := &executionState{
		schema:    e.schema,
		document:  doc,
		variables: coerced,
		registry:  registry,
	}

	if initialData == nil {
		return &Result{Data: nil}, nil
	}
	rawMap, ok := initialData.(map[string]any)
	if !ok {
		return nil, Errorf(KindProtocol, nil, "response data must be an object, got %T", initialData)
	}

	grouped := CollectFields(e.schema, doc, rootType, op.SelectionSet, coerced)
	data := state.completeGroupedFields(rootType, grouped, rawMap, previous, Path{})

	return &Result{Data: data, Errors: state.errors}, nil
}

func (e *Executor) operation(doc *language.QueryDocument) (*language.OperationDefinition, error) {
	switch len(doc.Operations) {
	case 0:
		return nil, Errorf(KindDocumentShape, nil, "document contains no operation definition")
	case 1:
	default:
		return nil, Errorf(KindDocumentShape, nil,
			"document contains %d operation definitions, expected exactly one", len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Operation == language.Subscription {
		return nil, Errorf(KindDocumentShape, nil, "subscription operations are not supported")
	}
	return op, nil
}
