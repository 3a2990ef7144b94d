package schema

import "fmt"

// NewSchema creates an empty schema pre-populated with the builtin scalars
// and the @skip/@include directives.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective)
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t in the arena, replacing any type of the same name.
func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	return s
}

// AddDirective registers d, replacing any directive of the same name.
func (s *Schema) AddDirective(d *Directive) *Schema {
	s.Directives[d.Name] = d
	return s
}

// NewType creates a named type of the given kind.
func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type {
	t.Fields = append(t.Fields, f)
	return t
}

func (t *Type) AddInterface(name string) *Type {
	t.Interfaces = append(t.Interfaces, name)
	return t
}

func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}

func (t *Type) AddEnumValue(ev *EnumValue) *Type {
	t.EnumValues = append(t.EnumValues, ev)
	return t
}

func (t *Type) AddInputField(iv *InputValue) *Type {
	t.InputFields = append(t.InputFields, iv)
	return t
}

// SetParseValue installs a custom scalar parse function.
func (t *Type) SetParseValue(fn func(any) (any, error)) *Type {
	t.ParseValue = fn
	return t
}

// NewField creates a field definition.
func NewField(name, description string, typeRef *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typeRef}
}

func (f *Field) AddArgument(iv *InputValue) *Field {
	f.Arguments = append(f.Arguments, iv)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

// ParseLeaf converts a raw wire value into the runtime value for a scalar or
// enum type. Scalars defer to ParseValue (identity when unset); enums check
// declared membership.
func (t *Type) ParseLeaf(raw any) (any, error) {
	switch t.Kind {
	case TypeKindScalar:
		if t.ParseValue == nil {
			return raw, nil
		}
		return t.ParseValue(raw)
	case TypeKindEnum:
		name, ok := raw.(string)
		if !ok {
			return nil, &leafError{typeName: t.Name, raw: raw}
		}
		if !t.HasEnumValue(name) {
			return nil, &leafError{typeName: t.Name, raw: raw}
		}
		return name, nil
	default:
		return nil, &leafError{typeName: t.Name, raw: raw}
	}
}

type leafError struct {
	typeName string
	raw      any
}

func (e *leafError) Error() string {
	return fmt.Sprintf("value %v cannot be represented by type %s", e.raw, e.typeName)
}
