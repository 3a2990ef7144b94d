package executor

import (
	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

// missingValue marks a raw position the current data does not provide, as
// opposed to an explicit null. Completion turns it into a Placeholder.
type missingValue struct{}

func isMissing(v any) bool {
	_, ok := v.(missingValue)
	return ok
}

// executionState holds per-request state during one completion pass.
type executionState struct {
	schema    *schema.Schema
	document  *language.QueryDocument
	variables map[string]any
	registry  *Registry
	errors    []*Error
}

func (s *executionState) addError(kind ErrorKind, path Path, format string, args ...any) {
	s.errors = append(s.errors, Errorf(kind, path, format, args...))
}

// ResolveConcreteType maps a runtime value of an abstract type to its
// concrete object type via the __typename discriminator.
func ResolveConcreteType(sch *schema.Schema, abstract *schema.Type, value any) (*schema.Type, *Error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, Errorf(KindAbstractTypeResolution, nil,
			"cannot resolve abstract type %s: value carries no __typename discriminator", abstract.Name)
	}
	raw, ok := m["__typename"]
	if !ok {
		return nil, Errorf(KindAbstractTypeResolution, nil,
			"cannot resolve abstract type %s: value carries no __typename discriminator", abstract.Name)
	}
	name, ok := raw.(string)
	if !ok {
		return nil, Errorf(KindAbstractTypeResolution, nil,
			"cannot resolve abstract type %s: __typename is not a string", abstract.Name)
	}
	concrete := sch.Types[name]
	if concrete == nil {
		return nil, Errorf(KindAbstractTypeResolution, nil,
			"cannot resolve abstract type %s: unknown type %q", abstract.Name, name)
	}
	if concrete.Kind != schema.TypeKindObject {
		return nil, Errorf(KindAbstractTypeResolution, nil,
			"cannot resolve abstract type %s: %q is not an object type", abstract.Name, name)
	}
	if !sch.IsPossibleType(abstract, concrete) {
		return nil, Errorf(KindAbstractTypeResolution, nil,
			"type %q is not a possible type of %s", name, abstract.Name)
	}
	return concrete, nil
}

// completeValue completes a raw value against its declared output type,
// reusing or resolving the value previously held at this position.
func (s *executionState) completeValue(fields []*language.Field, t *schema.TypeRef, raw, existing any, path Path) any {
	if schema.IsNonNull(t) {
		if raw == nil {
			s.addError(KindNonNullViolation, path,
				"cannot return null for non-nullable field %s", path)
			s.resolveExisting(existing, nil)
			return nil
		}
		// Missing data is not a violation: completion yields a placeholder
		// and the violation check reruns when its chunk arrives.
		return s.completeValue(fields, schema.Unwrap(t), raw, existing, path)
	}

	if isMissing(raw) {
		if ph, ok := existing.(*Placeholder); ok {
			return ph
		}
		return s.registry.create(path)
	}

	if raw == nil {
		s.resolveExisting(existing, nil)
		return nil
	}

	if schema.IsList(t) {
		return s.completeListValue(fields, t, raw, existing, path)
	}

	namedType := schema.GetNamedType(t)
	typeObj := s.schema.Types[namedType]
	if typeObj == nil {
		s.addError(KindFieldResolution, path, "unknown type %s", namedType)
		s.resolveExisting(existing, nil)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		return s.completeLeafValue(typeObj, raw, existing, path)
	case schema.TypeKindObject, schema.TypeKindInterface, schema.TypeKindUnion:
		return s.completeObjectValue(fields, typeObj, raw, existing, path)
	default:
		s.addError(KindFieldResolution, path, "cannot complete value of type %s", typeObj.Name)
		s.resolveExisting(existing, nil)
		return nil
	}
}

func (s *executionState) completeListValue(fields []*language.Field, listType *schema.TypeRef, raw, existing any, path Path) any {
	items, ok := raw.([]any)
	if !ok {
		s.addError(KindListShape, path, "expected a list for %s, got %T", path, raw)
		s.resolveExisting(existing, nil)
		return nil
	}

	var existingItems []any
	if prev, ok := existing.([]any); ok {
		existingItems = prev
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		var prev any
		if i < len(existingItems) {
			prev = existingItems[i]
		}
		v := s.completeValue(fields, inner, item, prev, path.Child(i))
		if v == nil && schema.IsNonNull(inner) {
			// A null element of a non-null inner type nulls the whole list.
			s.resolveExisting(existing, nil)
			return nil
		}
		completed[i] = v
	}
	s.resolveExisting(existing, completed)
	return completed
}

func (s *executionState) completeLeafValue(typeObj *schema.Type, raw, existing any, path Path) any {
	v, err := typeObj.ParseLeaf(raw)
	if err != nil {
		s.addError(KindCoercion, path, "%v", err)
		s.resolveExisting(existing, nil)
		return nil
	}
	s.resolveExisting(existing, v)
	return v
}

func (s *executionState) completeObjectValue(fields []*language.Field, typeObj *schema.Type, raw, existing any, path Path) any {
	rawMap, ok := raw.(map[string]any)
	if !ok {
		s.addError(KindFieldResolution, path, "expected an object for %s, got %T", path, raw)
		s.resolveExisting(existing, nil)
		return nil
	}

	concrete := typeObj
	if typeObj.IsAbstract() {
		resolved, rerr := ResolveConcreteType(s.schema, typeObj, raw)
		if rerr != nil {
			rerr.Path = path
			s.errors = append(s.errors, rerr)
			s.resolveExisting(existing, nil)
			return nil
		}
		concrete = resolved
	}

	grouped := CollectFields(s.schema, s.document, concrete, mergeSelectionSets(fields), s.variables)
	return s.completeGroupedFields(concrete, grouped, rawMap, existing, path)
}

// completeGroupedFields completes one object position. When the position held
// a completed map already, fields are written into that same map so callers
// observe it mutate in place; a fresh map resolves any placeholder that
// covered the object.
func (s *executionState) completeGroupedFields(objectType *schema.Type, grouped *GroupedFieldSet, rawMap map[string]any, existing any, path Path) any {
	out, reused := existing.(map[string]any)
	if !reused {
		out = make(map[string]any, grouped.Len())
	}

	for _, group := range grouped.Groups() {
		key := group.ResponseKey
		fieldPath := path.Child(key)
		field := group.Fields[0]

		if field.Name == "__typename" {
			out[key] = objectType.Name
			continue
		}

		fieldDef := objectType.Field(field.Name)
		if fieldDef == nil {
			s.addError(KindFieldResolution, fieldPath,
				"cannot query field %q on type %q", field.Name, objectType.Name)
			continue
		}

		rawVal, present := rawMap[key]
		if !present {
			rawVal = missingValue{}
		}

		completed := s.completeValue(group.Fields, fieldDef.Type, rawVal, out[key], fieldPath)
		if completed == nil && schema.IsNonNull(fieldDef.Type) {
			// Null bubbles to the nearest nullable ancestor: this object.
			s.resolveExisting(existing, nil)
			return nil
		}
		out[key] = completed
	}

	if !reused {
		s.resolveExisting(existing, out)
	}
	return out
}

// resolveExisting fulfills the placeholder previously occupying a position,
// if there was one. Resolution happens exactly once; positions already
// holding plain values are left to their owners.
func (s *executionState) resolveExisting(existing any, value any) {
	if ph, ok := existing.(*Placeholder); ok {
		s.registry.resolve(ph, value)
	}
}
