package normalize

import (
	"fmt"

	"trade-graphql-mcp/internal/querybuilder"
	"trade-graphql-mcp/internal/registry"
)

// RuleKind selects how a parameter becomes a filter clause.
type RuleKind int

const (
	// RuleEq matches exactly. Numeric columns take integer arguments,
	// other columns take text.
	RuleEq RuleKind = iota
	// RuleContains is a substring match with the argument as given.
	RuleContains
	RuleHSCode
	RuleTradeFlow
	// RuleCountry applies ApplyCountry; Field is ignored.
	RuleCountry
	// RuleDateRange reads Param as the start day and EndParam as the end day.
	RuleDateRange
)

// Binding maps one tool parameter onto a resolver column.
type Binding struct {
	Param    string
	EndParam string
	Field    string
	Rule     RuleKind
}

// Profile is the per-tool configuration of the shared rule set.
type Profile struct {
	Resolver string
	Bindings []Binding
	// OrderField is sorted on when the "order" argument is given.
	OrderField string
	// FreeOrderBy accepts an "orderBy" argument naming any resolver field.
	FreeOrderBy bool
	// Projection accepts "fields", "groupBy" and "aggregations".
	Projection bool
	// Cursor accepts "after".
	Cursor bool
}

// Limits bounds the page size.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits matches the gateway's documented paging limits.
var DefaultLimits = Limits{DefaultPageSize: 50, MaxPageSize: 1000}

// PageSize returns min(first or default, max). Missing and non-positive
// requests take the default.
func PageSize(args Args, limits Limits) int {
	size := limits.DefaultPageSize
	if first, ok := args.Int("first"); ok && first > 0 {
		size = first
	}
	if limits.MaxPageSize > 0 && size > limits.MaxPageSize {
		size = limits.MaxPageSize
	}
	return size
}

// Validate checks that every bound column exists on desc. A failure is a
// wiring mistake, not bad user input.
func (p Profile) Validate(desc registry.Descriptor) error {
	for _, b := range p.Bindings {
		if b.Param == "" {
			return fmt.Errorf("profile for %s has a binding without a parameter", p.Resolver)
		}
		if b.Rule == RuleDateRange && b.EndParam == "" {
			return fmt.Errorf("profile for %s: date range %s has no end parameter", p.Resolver, b.Param)
		}
		if b.Rule != RuleCountry && !desc.HasField(b.Field) {
			return fmt.Errorf("profile for %s: parameter %s targets unknown field %q", p.Resolver, b.Param, b.Field)
		}
	}
	if p.OrderField != "" && !desc.HasField(p.OrderField) {
		return fmt.Errorf("profile for %s: unknown order field %q", p.Resolver, p.OrderField)
	}
	return nil
}

// Filter builds the merged filter for args. It returns nil when no
// parameter produced a clause.
func (p Profile) Filter(args Args, desc registry.Descriptor) *querybuilder.Filter {
	f := querybuilder.NewFilter()
	for _, b := range p.Bindings {
		applyBinding(f, b, args, desc)
	}
	if f.IsEmpty() {
		return nil
	}
	return f
}

func applyBinding(f *querybuilder.Filter, b Binding, args Args, desc registry.Descriptor) {
	switch b.Rule {
	case RuleEq:
		if desc.IsNumeric(b.Field) {
			if n, ok := args.Int(b.Param); ok && n != 0 {
				f.Set(b.Field, querybuilder.Eq(n))
			}
			return
		}
		if s, ok := args.String(b.Param); ok {
			f.Set(b.Field, querybuilder.Eq(s))
		}
	case RuleContains:
		if s, ok := args.String(b.Param); ok {
			f.Set(b.Field, querybuilder.Contains(s))
		}
	case RuleHSCode:
		if s, ok := args.String(b.Param); ok {
			if op, ok := HSCode(s); ok {
				f.Set(b.Field, op)
			}
		}
	case RuleTradeFlow:
		if s, ok := args.String(b.Param); ok {
			f.Set(b.Field, querybuilder.Eq(TradeFlow(s)))
		}
	case RuleCountry:
		if s, ok := args.String(b.Param); ok {
			ApplyCountry(f, desc, s)
		}
	case RuleDateRange:
		start, _ := args.String(b.Param)
		end, _ := args.String(b.EndParam)
		if ops := DateRange(start, end); len(ops) > 0 {
			f.Set(b.Field, ops...)
		}
	}
}

// Order returns the sort requested by args.
func (p Profile) Order(args Args) querybuilder.OrderSpec {
	order, _ := args.String("order")
	order = Fold(order)
	if p.FreeOrderBy {
		if field, ok := args.String("orderBy"); ok {
			return querybuilder.OrderSpec{Field: Fold(field), Direction: querybuilder.ParseDirection(order)}
		}
	}
	if p.OrderField != "" && order != "" {
		return querybuilder.OrderSpec{Field: p.OrderField, Direction: querybuilder.ParseDirection(order)}
	}
	return querybuilder.OrderSpec{}
}

// Params builds the complete builder input for args. Only malformed
// aggregation records are errors.
func (p Profile) Params(args Args, desc registry.Descriptor, limits Limits) (querybuilder.Params, error) {
	params := querybuilder.Params{
		First:   PageSize(args, limits),
		Filter:  p.Filter(args, desc),
		OrderBy: p.Order(args),
	}
	if p.Cursor {
		params.After, _ = args.String("after")
	}
	if p.Projection {
		params.Fields = args.Strings("fields")
		params.GroupBy = args.Strings("groupBy")
		aggs, err := Aggregations(args, "aggregations")
		if err != nil {
			return querybuilder.Params{}, err
		}
		params.Aggregations = aggs
	}
	return params, nil
}
