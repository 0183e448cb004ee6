package querybuilder

import (
	"fmt"
	"strings"

	"trade-graphql-mcp/internal/registry"
)

// Aggregation functions accepted by the gateway's groupBy block.
const (
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
	AggCount = "count"
)

var aggregationFunctions = map[string]struct{}{
	AggSum:   {},
	AggAvg:   {},
	AggMin:   {},
	AggMax:   {},
	AggCount: {},
}

// Aggregation requests a reduction of Field within each group. An empty
// Function means sum.
type Aggregation struct {
	Field    string
	Function string
}

// InvalidAggregationError reports an aggregation record whose function is
// not one of sum, avg, min, max or count.
type InvalidAggregationError struct {
	Field    string
	Function string
}

func (e *InvalidAggregationError) Error() string {
	return fmt.Sprintf("invalid aggregation function %q for field %q: expected one of sum, avg, min, max, count", e.Function, e.Field)
}

// IsAggregationFunction reports whether fn names a supported reduction.
func IsAggregationFunction(fn string) bool {
	_, ok := aggregationFunctions[fn]
	return ok
}

// aggregationLines renders the entries of an aggregations block. Fields that
// are not numeric on the resolver degrade to a plain count. Duplicates are
// dropped, keeping first occurrence order.
func aggregationLines(aggs []Aggregation, desc registry.Descriptor) ([]string, error) {
	if len(aggs) == 0 {
		return []string{AggCount}, nil
	}

	lines := make([]string, 0, len(aggs))
	seen := make(map[string]struct{}, len(aggs))
	for _, agg := range aggs {
		fn := strings.TrimSpace(agg.Function)
		if fn == "" {
			fn = AggSum
		}
		if !IsAggregationFunction(fn) {
			return nil, &InvalidAggregationError{Field: agg.Field, Function: agg.Function}
		}

		line := AggCount
		if field := strings.TrimSpace(agg.Field); field != "" && desc.IsNumeric(field) {
			line = fn + "(field: " + field + ")"
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return lines, nil
}
