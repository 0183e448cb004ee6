// Package querybuilder renders resolver queries for a GraphQL gateway that
// rejects variable definitions. Every argument is inlined as a literal.
package querybuilder

import (
	"strconv"
	"strings"

	"trade-graphql-mcp/internal/registry"
)

// Direction is a sort direction, printed as a bare enum token.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection maps "desc" in any case to Desc and everything else to Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// OrderSpec sorts by a single field. An empty Field means no ordering.
type OrderSpec struct {
	Field     string
	Direction Direction
}

// IsZero reports whether o requests no ordering.
func (o OrderSpec) IsZero() bool {
	return strings.TrimSpace(o.Field) == ""
}

func writeOrder(b *strings.Builder, o OrderSpec) {
	dir := o.Direction
	if dir != Desc {
		dir = Asc
	}
	b.WriteString("{ ")
	b.WriteString(o.Field)
	b.WriteString(": ")
	b.WriteString(string(dir))
	b.WriteString(" }")
}

// Params is the per-request input to Build. Zero values mean "absent":
// First <= 0 and an empty After are omitted, a nil or empty Filter emits no
// filter argument.
type Params struct {
	First        int
	After        string
	Filter       *Filter
	OrderBy      OrderSpec
	Fields       []string
	GroupBy      []string
	Aggregations []Aggregation
}

// Query is a rendered query document plus what was dropped on the way.
type Query struct {
	Text     string
	Resolver registry.Descriptor
	// Args is the rendered argument list without parentheses.
	Args           string
	DroppedFields  []string
	DroppedGroupBy []string
	DroppedOrderBy string
}

// Builder renders queries against a fixed registry.
type Builder struct {
	reg         *registry.Registry
	maxPageSize int
}

// New returns a builder. A positive maxPageSize caps First.
func New(reg *registry.Registry, maxPageSize int) *Builder {
	return &Builder{reg: reg, maxPageSize: maxPageSize}
}

// Registry returns the registry the builder resolves keys against.
func (b *Builder) Registry() *registry.Registry {
	return b.reg
}

// Build renders the query for resolverKey. It fails with
// *registry.UnknownResolverError for an unregistered key and with
// *InvalidAggregationError for an aggregation naming an unsupported function.
// Identical inputs always produce identical text.
func (b *Builder) Build(resolverKey string, p Params) (Query, error) {
	desc, err := b.reg.Lookup(resolverKey)
	if err != nil {
		return Query{}, err
	}

	q := Query{Resolver: desc}

	args := make([]string, 0, 4)
	if first := b.clampFirst(p.First); first > 0 {
		args = append(args, "first: "+strconv.Itoa(first))
	}
	if p.After != "" {
		args = append(args, "after: "+Literal(p.After))
	}
	if !p.Filter.IsEmpty() {
		args = append(args, "filter: "+Literal(p.Filter))
	}
	if !p.OrderBy.IsZero() {
		field := strings.TrimSpace(p.OrderBy.Field)
		if desc.HasField(field) {
			args = append(args, "orderBy: "+Literal(OrderSpec{Field: field, Direction: p.OrderBy.Direction}))
		} else {
			q.DroppedOrderBy = field
		}
	}
	q.Args = strings.Join(args, ", ")

	fields, dropped := selectFields(p.Fields, desc)
	q.DroppedFields = dropped
	if len(fields) == 0 {
		fields = desc.Fields
	}

	var groupBlock string
	if len(p.GroupBy) > 0 {
		groupFields, droppedGroup := selectFields(p.GroupBy, desc)
		q.DroppedGroupBy = droppedGroup
		aggLines, err := aggregationLines(p.Aggregations, desc)
		if err != nil {
			return Query{}, err
		}
		if len(groupFields) > 0 {
			groupBlock = renderGroupBy(groupFields, aggLines)
		}
	} else if _, err := aggregationLines(p.Aggregations, desc); err != nil {
		return Query{}, err
	}

	var sb strings.Builder
	sb.WriteString("query {\n    ")
	sb.WriteString(desc.QueryName)
	if q.Args != "" {
		sb.WriteString("(")
		sb.WriteString(q.Args)
		sb.WriteString(")")
	}
	sb.WriteString(" {\n      items {\n        ")
	sb.WriteString(strings.Join(fields, "\n        "))
	sb.WriteString("\n      }\n      endCursor\n      hasNextPage")
	sb.WriteString(groupBlock)
	sb.WriteString("\n    }\n  }")

	q.Text = sb.String()
	return q, nil
}

func (b *Builder) clampFirst(first int) int {
	if b.maxPageSize > 0 && first > b.maxPageSize {
		return b.maxPageSize
	}
	return first
}

// selectFields keeps the requested names that the resolver exposes, in
// request order and without repeats.
func selectFields(requested []string, desc registry.Descriptor) (kept, dropped []string) {
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if desc.HasField(name) {
			kept = append(kept, name)
		} else {
			dropped = append(dropped, name)
		}
	}
	return kept, dropped
}

func renderGroupBy(fields, aggLines []string) string {
	var sb strings.Builder
	sb.WriteString("\n      groupBy(fields: [")
	sb.WriteString(strings.Join(fields, ", "))
	sb.WriteString("]) {\n        fields {\n          ")
	sb.WriteString(strings.Join(fields, "\n          "))
	sb.WriteString("\n        }\n        aggregations {\n          ")
	sb.WriteString(strings.Join(aggLines, "\n          "))
	sb.WriteString("\n        }\n      }")
	return sb.String()
}
