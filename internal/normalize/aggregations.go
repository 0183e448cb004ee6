package normalize

import (
	"fmt"
	"strings"

	"trade-graphql-mcp/internal/querybuilder"
)

// ParseAggregation parses "FIELD,function" (or "FIELD" for sum). An unknown
// function is an *querybuilder.InvalidAggregationError.
func ParseAggregation(spec string) (querybuilder.Aggregation, error) {
	parts := strings.Split(Fold(spec), ",")
	if len(parts) > 2 {
		return querybuilder.Aggregation{}, fmt.Errorf("aggregation %q must have the form FIELD,function", spec)
	}
	agg := querybuilder.Aggregation{Field: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		agg.Function = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	return checkAggregation(agg, spec)
}

// Aggregations reads the named argument, which may hold "FIELD,function"
// strings or {"field": ..., "function": ...} objects.
func Aggregations(args Args, name string) ([]querybuilder.Aggregation, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}

	var items []any
	switch val := v.(type) {
	case string:
		items = []any{val}
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case []any:
		items = val
	default:
		return nil, fmt.Errorf("%s must be a list of \"FIELD,function\" strings", name)
	}

	out := make([]querybuilder.Aggregation, 0, len(items))
	for _, item := range items {
		switch rec := item.(type) {
		case string:
			if Fold(rec) == "" {
				continue
			}
			agg, err := ParseAggregation(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, agg)
		case map[string]any:
			field, _ := rec["field"].(string)
			fn, _ := rec["function"].(string)
			agg, err := checkAggregation(querybuilder.Aggregation{
				Field:    Fold(field),
				Function: strings.ToLower(Fold(fn)),
			}, fmt.Sprintf("%v", rec))
			if err != nil {
				return nil, err
			}
			out = append(out, agg)
		default:
			return nil, fmt.Errorf("%s entries must be strings or objects, got %T", name, item)
		}
	}
	return out, nil
}

func checkAggregation(agg querybuilder.Aggregation, raw string) (querybuilder.Aggregation, error) {
	if agg.Field == "" {
		return querybuilder.Aggregation{}, fmt.Errorf("aggregation %q is missing a field", raw)
	}
	if agg.Function != "" && !querybuilder.IsAggregationFunction(agg.Function) {
		return querybuilder.Aggregation{}, &querybuilder.InvalidAggregationError{Field: agg.Field, Function: agg.Function}
	}
	return agg, nil
}
