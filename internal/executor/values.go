package executor

import (
	"strconv"

	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

// CoerceVariableValues coerces the request's variable values against the
// operation's variable definitions. Absent variables take their declared
// default; a non-null variable with neither value nor default fails before
// any per-field coercion runs.
func CoerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if varDef.Type.NonNull {
				return nil, Errorf(KindCoercion, nil,
					"variable $%s of required type %s was not provided", name, varDef.Type.String())
			} else {
				continue
			}
		}
		if val == nil && varDef.Type.NonNull {
			return nil, Errorf(KindCoercion, nil,
				"variable $%s of type %s cannot be null", name, varDef.Type.String())
		}
		cv, err := CoerceValue(sch, typeRefFromAST(varDef.Type), val)
		if err != nil {
			return nil, Errorf(KindCoercion, nil,
				"variable $%s of type %s cannot be coerced: %v", name, varDef.Type.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// CoerceValue coerces a raw value to the given input type. A single non-list
// value supplied for a list type is promoted to a one-element list. Unknown
// fields on an input object are rejected.
func CoerceValue(sch *schema.Schema, targetType *schema.TypeRef, value any) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, Errorf(KindCoercion, nil, "cannot provide null for non-null type %s", targetType)
		}
		return CoerceValue(sch, schema.Unwrap(targetType), value)
	}

	if value == nil {
		return nil, nil
	}

	if schema.IsList(targetType) {
		return coerceListValue(sch, targetType, value)
	}

	namedType := schema.GetNamedType(targetType)
	typeObj := sch.Types[namedType]
	if typeObj == nil {
		return nil, Errorf(KindCoercion, nil, "unknown input type %s", namedType)
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		v, err := typeObj.ParseLeaf(value)
		if err != nil {
			return nil, Errorf(KindCoercion, nil, "%v", err)
		}
		return v, nil
	case schema.TypeKindInputObject:
		return coerceInputObjectValue(sch, typeObj, value)
	default:
		return nil, Errorf(KindCoercion, nil, "type %s cannot be used as input", namedType)
	}
}

func coerceListValue(sch *schema.Schema, listType *schema.TypeRef, value any) (any, error) {
	innerType := schema.Unwrap(listType)
	items, ok := value.([]any)
	if !ok {
		// Singleton promotion: a single value coerces to a one-element list.
		item, err := CoerceValue(sch, innerType, value)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	}
	coerced := make([]any, len(items))
	for i, item := range items {
		cv, err := CoerceValue(sch, innerType, item)
		if err != nil {
			return nil, err
		}
		coerced[i] = cv
	}
	return coerced, nil
}

// coerceInputObjectValue applies per-field coercion against the declared
// input-object type. Fields the type does not declare are rejected rather
// than dropped, so typos surface instead of silently losing data.
func coerceInputObjectValue(sch *schema.Schema, typeObj *schema.Type, value any) (any, error) {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, Errorf(KindCoercion, nil, "expected input object for type %s, got %T", typeObj.Name, value)
	}
	for name := range raw {
		if typeObj.InputField(name) == nil {
			return nil, Errorf(KindCoercion, nil, "field %q is not defined by input type %s", name, typeObj.Name)
		}
	}
	coerced := make(map[string]any, len(raw))
	for _, fieldDef := range typeObj.InputFields {
		fv, present := raw[fieldDef.Name]
		if !present {
			if fieldDef.DefaultValue != nil {
				coerced[fieldDef.Name] = fieldDef.DefaultValue
			} else if schema.IsNonNull(fieldDef.Type) {
				return nil, Errorf(KindCoercion, nil,
					"field %q of required type %s was not provided", fieldDef.Name, fieldDef.Type)
			}
			continue
		}
		cv, err := CoerceValue(sch, fieldDef.Type, fv)
		if err != nil {
			return nil, err
		}
		coerced[fieldDef.Name] = cv
	}
	return coerced, nil
}

// valueFromAST converts an AST value to a runtime value, resolving variable
// references against the coerced variable map.
func valueFromAST(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return variableValues[value.Raw]
	}
	return astValueToGo(value)
}

// astValueToGo converts a literal AST value to its Go representation.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
