// Package introspection builds a client-side schema arena from the JSON
// result of the standard introspection query.
package introspection

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	schema "github.com/unfoldgql/unfold/internal/schema"
)

// BuildClientSchema parses an introspection result into a *schema.Schema.
// It accepts a full response envelope ({"data":{"__schema":...}}), a bare
// data object, or the __schema object itself.
func BuildClientSchema(data []byte) (*schema.Schema, error) {
	root := gjson.ParseBytes(data)
	for _, key := range []string{"data.__schema", "__schema"} {
		if sub := root.Get(key); sub.Exists() {
			root = sub
			break
		}
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("introspection: result carries no __schema object")
	}

	var raw introspectedSchema
	if err := json.Unmarshal([]byte(root.Raw), &raw); err != nil {
		return nil, fmt.Errorf("introspection: %w", err)
	}
	if raw.QueryType == nil || raw.QueryType.Name == "" {
		return nil, fmt.Errorf("introspection: schema has no query type")
	}

	sch := schema.NewSchema(raw.Description)
	sch.SetQueryType(raw.QueryType.Name)
	if raw.MutationType != nil {
		sch.SetMutationType(raw.MutationType.Name)
	}
	if raw.SubscriptionType != nil {
		sch.SetSubscriptionType(raw.SubscriptionType.Name)
	}

	for _, t := range raw.Types {
		if t.Name == "" {
			return nil, fmt.Errorf("introspection: type with empty name")
		}
		if isBuiltinScalar(t.Name) {
			// Builtin scalars keep their parse functions from NewSchema.
			continue
		}
		built, err := buildType(t)
		if err != nil {
			return nil, err
		}
		sch.AddType(built)
	}

	for _, d := range raw.Directives {
		dir := &schema.Directive{
			Name:         d.Name,
			Description:  d.Description,
			Locations:    d.Locations,
			IsRepeatable: d.IsRepeatable,
		}
		for _, a := range d.Args {
			iv, err := buildInputValue(a)
			if err != nil {
				return nil, err
			}
			dir.Arguments = append(dir.Arguments, iv)
		}
		sch.AddDirective(dir)
	}

	return sch, nil
}

func buildType(t introspectedType) (*schema.Type, error) {
	var kind schema.TypeKind
	switch t.Kind {
	case "SCALAR":
		kind = schema.TypeKindScalar
	case "OBJECT":
		kind = schema.TypeKindObject
	case "INTERFACE":
		kind = schema.TypeKindInterface
	case "UNION":
		kind = schema.TypeKindUnion
	case "ENUM":
		kind = schema.TypeKindEnum
	case "INPUT_OBJECT":
		kind = schema.TypeKindInputObject
	default:
		return nil, fmt.Errorf("introspection: type %s has unknown kind %q", t.Name, t.Kind)
	}

	built := schema.NewType(t.Name, kind, t.Description)

	for _, f := range t.Fields {
		ref, err := buildTypeRef(f.Type)
		if err != nil {
			return nil, fmt.Errorf("introspection: field %s.%s: %w", t.Name, f.Name, err)
		}
		fieldDef := schema.NewField(f.Name, f.Description, ref)
		if f.IsDeprecated {
			fieldDef.Deprecate(deref(f.DeprecationReason))
		}
		for _, a := range f.Args {
			iv, err := buildInputValue(a)
			if err != nil {
				return nil, fmt.Errorf("introspection: argument %s.%s(%s): %w", t.Name, f.Name, a.Name, err)
			}
			fieldDef.AddArgument(iv)
		}
		built.AddField(fieldDef)
	}

	for _, i := range t.Interfaces {
		built.AddInterface(i.Name)
	}
	for _, p := range t.PossibleTypes {
		built.AddPossibleType(p.Name)
	}
	for _, ev := range t.EnumValues {
		built.AddEnumValue(&schema.EnumValue{
			Name:              ev.Name,
			Description:       ev.Description,
			IsDeprecated:      ev.IsDeprecated,
			DeprecationReason: deref(ev.DeprecationReason),
		})
	}
	for _, f := range t.InputFields {
		iv, err := buildInputValue(f)
		if err != nil {
			return nil, fmt.Errorf("introspection: input field %s.%s: %w", t.Name, f.Name, err)
		}
		built.AddInputField(iv)
	}

	return built, nil
}

func buildInputValue(v introspectedInputValue) (*schema.InputValue, error) {
	ref, err := buildTypeRef(v.Type)
	if err != nil {
		return nil, err
	}
	iv := &schema.InputValue{
		Name:              v.Name,
		Description:       v.Description,
		Type:              ref,
		IsDeprecated:      v.IsDeprecated,
		DeprecationReason: deref(v.DeprecationReason),
	}
	if v.DefaultValue != nil {
		iv.DefaultValue = parseDefaultLiteral(*v.DefaultValue)
	}
	return iv, nil
}

func buildTypeRef(r *introspectedTypeRef) (*schema.TypeRef, error) {
	if r == nil {
		return nil, fmt.Errorf("missing type reference")
	}
	switch r.Kind {
	case "NON_NULL":
		inner, err := buildTypeRef(r.OfType)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(inner), nil
	case "LIST":
		inner, err := buildTypeRef(r.OfType)
		if err != nil {
			return nil, err
		}
		return schema.ListType(inner), nil
	default:
		if r.Name == "" {
			return nil, fmt.Errorf("type reference of kind %s has no name", r.Kind)
		}
		return schema.NamedType(r.Name), nil
	}
}

// parseDefaultLiteral converts the introspected default-value literal into a
// runtime value. Scalar literals are JSON-compatible; enum literals stay as
// their bare name.
func parseDefaultLiteral(literal string) any {
	var v any
	if err := json.Unmarshal([]byte(literal), &v); err == nil {
		return v
	}
	return literal
}

func isBuiltinScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type introspectedSchema struct {
	Description      string                  `json:"description"`
	QueryType        *introspectedNamedType  `json:"queryType"`
	MutationType     *introspectedNamedType  `json:"mutationType"`
	SubscriptionType *introspectedNamedType  `json:"subscriptionType"`
	Types            []introspectedType      `json:"types"`
	Directives       []introspectedDirective `json:"directives"`
}

type introspectedNamedType struct {
	Name string `json:"name"`
}

type introspectedType struct {
	Kind          string                   `json:"kind"`
	Name          string                   `json:"name"`
	Description   string                   `json:"description"`
	Fields        []introspectedField      `json:"fields"`
	InputFields   []introspectedInputValue `json:"inputFields"`
	Interfaces    []introspectedNamedType  `json:"interfaces"`
	EnumValues    []introspectedEnumValue  `json:"enumValues"`
	PossibleTypes []introspectedNamedType  `json:"possibleTypes"`
}

type introspectedField struct {
	Name              string                   `json:"name"`
	Description       string                   `json:"description"`
	Args              []introspectedInputValue `json:"args"`
	Type              *introspectedTypeRef     `json:"type"`
	IsDeprecated      bool                     `json:"isDeprecated"`
	DeprecationReason *string                  `json:"deprecationReason"`
}

type introspectedInputValue struct {
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Type              *introspectedTypeRef `json:"type"`
	DefaultValue      *string              `json:"defaultValue"`
	IsDeprecated      bool                 `json:"isDeprecated"`
	DeprecationReason *string              `json:"deprecationReason"`
}

type introspectedEnumValue struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type introspectedTypeRef struct {
	Kind   string               `json:"kind"`
	Name   string               `json:"name"`
	OfType *introspectedTypeRef `json:"ofType"`
}

type introspectedDirective struct {
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	Locations    []string                 `json:"locations"`
	Args         []introspectedInputValue `json:"args"`
	IsRepeatable bool                     `json:"isRepeatable"`
}
