package tools

import (
	"fmt"
	"sort"
	"strings"

	"trade-graphql-mcp/internal/normalize"
	"trade-graphql-mcp/internal/registry"

	"github.com/google/jsonschema-go/jsonschema"
)

type paramDoc struct {
	typ         string
	description string
}

var paramDocs = map[string]paramDoc{
	"year":            {"integer", "Year, e.g. 2024."},
	"month":           {"integer", "Month 1-12."},
	"tradeFlow":       {"string", "Trade direction: 出口 / export / 1, or 進口 / import / 2."},
	"industryKeyword": {"string", "Industry name keyword, e.g. \"電子\", \"機械\"."},
	"hsCode":          {"string", "HS code. Six or more digits match exactly, shorter codes match as a prefix (\"8542\")."},
	"productKeyword":  {"string", "Chinese product name keyword, e.g. \"積體電路\"."},
	"country":         {"string", "Country or area: ISO2 (US), ISO3 (USA), area id (NEW_SOUTHBOUND), English name (Japan) or Chinese name (美國, 東南亞)."},
	"area":            {"string", "Area name keyword, e.g. \"亞洲\", \"歐洲\"."},
	"startDate":       {"string", "First transaction day, YYYY-MM-DD. Strongly recommended."},
	"endDate":         {"string", "Last transaction day, YYYY-MM-DD."},
}

func floatPtr(v float64) *float64 { return &v }

// inputSchema derives the JSON schema of a tool's arguments from its
// profile so the advertised parameters always match the ones applied.
func inputSchema(spec Spec, limits normalize.Limits) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}

	switch spec.Kind {
	case KindListResolvers:
		s.Properties["resolver"] = &jsonschema.Schema{Type: "string", Description: "Resolver key to describe. Omit to list every resolver."}
	case KindIntrospect:
		s.Properties["typeName"] = &jsonschema.Schema{Type: "string", Description: "Return only this type, e.g. trade_yearly_totalFilterInput."}
	case KindRawQuery:
		s.Properties["query"] = &jsonschema.Schema{Type: "string", Description: "GraphQL document with a single query operation and no variables."}
		s.Required = []string{"query"}
	case KindResolver:
		addProfileProperties(s.Properties, spec.Profile, limits)
	}
	return s
}

// Parameters returns the sorted argument names the tool accepts.
func (spec Spec) Parameters() []string {
	props := inputSchema(spec, normalize.DefaultLimits).Properties
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func addProfileProperties(props map[string]*jsonschema.Schema, p normalize.Profile, limits normalize.Limits) {
	for _, b := range p.Bindings {
		for _, name := range []string{b.Param, b.EndParam} {
			if name == "" {
				continue
			}
			doc, ok := paramDocs[name]
			if !ok {
				doc = paramDoc{"string", "Filter on " + b.Field + "."}
			}
			props[name] = &jsonschema.Schema{Type: doc.typ, Description: doc.description}
		}
	}

	props["first"] = &jsonschema.Schema{
		Type:        "integer",
		Description: fmt.Sprintf("Page size, default %d, at most %d.", limits.DefaultPageSize, limits.MaxPageSize),
		Minimum:     floatPtr(1),
		Maximum:     floatPtr(float64(limits.MaxPageSize)),
	}
	if p.Cursor {
		props["after"] = &jsonschema.Schema{Type: "string", Description: "endCursor of the previous page."}
	}
	if p.OrderField != "" || p.FreeOrderBy {
		desc := "Sort direction"
		if p.OrderField != "" {
			desc += " on " + p.OrderField
		}
		props["order"] = &jsonschema.Schema{Type: "string", Enum: []any{"ASC", "DESC"}, Description: desc + "."}
	}
	if p.FreeOrderBy {
		props["orderBy"] = &jsonschema.Schema{Type: "string", Description: "Field to sort on, e.g. TRADE_VALUE_USD_AMT."}
	}
	if p.Projection {
		props["fields"] = &jsonschema.Schema{
			Types:       []string{"array", "string"},
			Items:       &jsonschema.Schema{Type: "string"},
			Description: "Fields to return. Unknown names are ignored.",
		}
		props["groupBy"] = &jsonschema.Schema{
			Types:       []string{"array", "string"},
			Items:       &jsonschema.Schema{Type: "string"},
			Description: "Fields to group by, e.g. [\"COUNTRY_ID\"].",
		}
		props["aggregations"] = &jsonschema.Schema{
			Type:        "array",
			Items:       &jsonschema.Schema{Types: []string{"string", "object"}},
			Description: "\"FIELD,function\" strings, function one of sum, avg, min, max, count; e.g. [\"TRADE_VALUE_USD_AMT,sum\"].",
		}
	}
}

// description joins the summary with the resolver's field list.
func description(spec Spec, desc registry.Descriptor) string {
	if spec.Kind != KindResolver {
		return spec.Summary
	}
	var b strings.Builder
	b.WriteString(spec.Summary)
	b.WriteString("\n\nFields: ")
	b.WriteString(strings.Join(desc.Fields, ", "))
	if len(desc.NumericFields) > 0 {
		b.WriteString("\nNumeric fields: ")
		b.WriteString(strings.Join(desc.NumericFields, ", "))
	}
	return b.String()
}
