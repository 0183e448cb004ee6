package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"trade-graphql-mcp/internal/registry"
)

// IntrospectionQuery is the standard introspection document with every
// argument inlined. Field arguments are omitted to keep the response small.
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    types {
      kind
      name
      description
      fields(includeDeprecated: true) {
        name
        description
        type { ...TypeRef }
      }
      inputFields {
        name
        description
        type { ...TypeRef }
      }
      enumValues(includeDeprecated: true) { name }
    }
  }
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType { kind name }
    }
  }
}`

// Schema is the decoded __schema object.
type Schema struct {
	QueryType struct {
		Name string `json:"name"`
	} `json:"queryType"`
	Types []SchemaType `json:"types"`
}

// SchemaType is one entry of __schema.types.
type SchemaType struct {
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Fields      []SchemaField   `json:"fields,omitempty"`
	InputFields []SchemaField   `json:"inputFields,omitempty"`
	EnumValues  []SchemaEnumVal `json:"enumValues,omitempty"`
}

// SchemaField is a field or input field with its type reference kept raw.
type SchemaField struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        json.RawMessage `json:"type"`
}

// SchemaEnumVal is an enum value name.
type SchemaEnumVal struct {
	Name string `json:"name"`
}

// Type returns the named type.
func (s *Schema) Type(name string) (SchemaType, bool) {
	for _, t := range s.Types {
		if t.Name == name {
			return t, true
		}
	}
	return SchemaType{}, false
}

// QueryFields returns the field names of the root query type.
func (s *Schema) QueryFields() []string {
	name := s.QueryType.Name
	if name == "" {
		name = "Query"
	}
	t, ok := s.Type(name)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Introspect runs IntrospectionQuery and decodes the schema.
func (c *Client) Introspect(ctx context.Context) (*Schema, error) {
	resp, err := c.Execute(ctx, IntrospectionQuery)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Schema *Schema `json:"__schema"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode introspection result: %w", err)
	}
	if payload.Schema == nil {
		return nil, fmt.Errorf("introspection result has no __schema")
	}
	return payload.Schema, nil
}

// Verification compares the registry with the upstream root query type.
type Verification struct {
	Checked int `json:"checked"`
	// Missing lists resolver keys whose query name the gateway does not expose.
	Missing []MissingResolver `json:"missing"`
}

// MissingResolver names a resolver the gateway does not serve.
type MissingResolver struct {
	Key       string `json:"key"`
	QueryName string `json:"queryName"`
}

// OK reports whether every registered resolver exists upstream.
func (v Verification) OK() bool {
	return len(v.Missing) == 0
}

// VerifyRegistry checks every registered query name against the upstream
// schema.
func (c *Client) VerifyRegistry(ctx context.Context, reg *registry.Registry) (Verification, error) {
	schema, err := c.Introspect(ctx)
	if err != nil {
		return Verification{}, err
	}
	return verify(schema, reg), nil
}

func verify(schema *Schema, reg *registry.Registry) Verification {
	exposed := make(map[string]struct{})
	for _, name := range schema.QueryFields() {
		exposed[name] = struct{}{}
	}

	all := reg.All()
	v := Verification{Checked: len(all), Missing: []MissingResolver{}}
	for _, d := range all {
		if _, ok := exposed[d.QueryName]; !ok {
			v.Missing = append(v.Missing, MissingResolver{Key: d.Key, QueryName: d.QueryName})
		}
	}
	sort.Slice(v.Missing, func(i, j int) bool { return v.Missing[i].Key < v.Missing[j].Key })
	return v
}
