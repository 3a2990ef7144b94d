package executor

import (
	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

// GroupedFieldSet maps response keys to the field nodes contributing to them.
// Response keys keep first-encounter order; nodes under one key keep document
// order so their sub-selections merge deterministically later.
type GroupedFieldSet struct {
	groups []FieldGroup
	index  map[string]int
}

// FieldGroup is one response key with its contributing field nodes.
type FieldGroup struct {
	ResponseKey string
	Fields      []*language.Field
}

func newGroupedFieldSet() *GroupedFieldSet {
	return &GroupedFieldSet{index: make(map[string]int)}
}

func (g *GroupedFieldSet) add(responseKey string, field *language.Field) {
	if i, ok := g.index[responseKey]; ok {
		g.groups[i].Fields = append(g.groups[i].Fields, field)
		return
	}
	g.index[responseKey] = len(g.groups)
	g.groups = append(g.groups, FieldGroup{ResponseKey: responseKey, Fields: []*language.Field{field}})
}

// Groups returns the field groups in response-key encounter order.
func (g *GroupedFieldSet) Groups() []FieldGroup { return g.groups }

// Len returns the number of distinct response keys.
func (g *GroupedFieldSet) Len() int { return len(g.groups) }

// CollectFields expands a selection set against objectType into a grouped
// field set, applying @skip/@include and resolving fragment spreads from doc.
// Fragments whose type condition does not apply to objectType are dropped
// entirely; already-visited fragment names are ignored to terminate on cyclic
// fragment graphs.
func CollectFields(
	sch *schema.Schema,
	doc *language.QueryDocument,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	variables map[string]any,
) *GroupedFieldSet {
	grouped := newGroupedFieldSet()
	collectFields(sch, doc, objectType, selectionSet, variables, grouped, map[string]bool{})
	return grouped
}

func collectFields(
	sch *schema.Schema,
	doc *language.QueryDocument,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	variables map[string]any,
	grouped *GroupedFieldSet,
	visitedFragments map[string]bool,
) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(sel.Directives, variables) {
				continue
			}
			responseKey := sel.Alias
			if responseKey == "" {
				responseKey = sel.Name
			}
			grouped.add(responseKey, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(sel.Directives, variables) {
				continue
			}
			if !sch.TypeApplies(sel.TypeCondition, objectType) {
				continue
			}
			collectFields(sch, doc, objectType, sel.SelectionSet, variables, grouped, visitedFragments)

		case *language.FragmentSpread:
			if !shouldIncludeNode(sel.Directives, variables) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragment := language.FragmentByName(doc, sel.Name)
			if fragment == nil {
				continue
			}
			if !sch.TypeApplies(fragment.TypeCondition, objectType) {
				continue
			}
			if !shouldIncludeNode(fragment.Directives, variables) {
				continue
			}
			collectFields(sch, doc, objectType, fragment.SelectionSet, variables, grouped, visitedFragments)
		}
	}
}

// shouldIncludeNode evaluates @skip/@include with literal or variable-bound
// boolean arguments.
func shouldIncludeNode(directives language.DirectiveList, variables map[string]any) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if cond, ok := directiveIfArg(skip, variables); ok && cond {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if cond, ok := directiveIfArg(include, variables); ok && !cond {
			return false
		}
	}
	return true
}

func directiveIfArg(directive *language.Directive, variables map[string]any) (bool, bool) {
	for _, arg := range directive.Arguments {
		if arg.Name == "if" {
			b, ok := valueFromAST(arg.Value, variables).(bool)
			return b, ok
		}
	}
	return false, false
}

// mergeSelectionSets concatenates the sub-selections of all field nodes that
// share one response key.
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}
