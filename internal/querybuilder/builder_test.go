package querybuilder

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/registry"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	reg, err := registry.New(registry.Builtin()...)
	require.NoError(t, err)
	return New(reg, 1000)
}

func TestBuild_FullDocument(t *testing.T) {
	reg, err := registry.New(registry.Descriptor{
		Key:           "trade_yearly_total",
		QueryName:     "trade_yearly_totals",
		Fields:        []string{"YEAR", "TRADE_FLOW", "TRADE_VALUE_USD_AMT"},
		NumericFields: []string{"YEAR", "TRADE_VALUE_USD_AMT"},
	})
	require.NoError(t, err)
	b := New(reg, 1000)

	q, err := b.Build("trade_yearly_total", Params{
		First:   10,
		Filter:  NewFilter().Set("YEAR", Eq(2024)).Set("TRADE_FLOW", Eq("出口")),
		OrderBy: OrderSpec{Field: "YEAR", Direction: Desc},
	})
	require.NoError(t, err)

	want := "query {\n" +
		"    trade_yearly_totals(first: 10, filter: { TRADE_FLOW: { eq: \"出口\" }, YEAR: { eq: 2024 } }, orderBy: { YEAR: DESC }) {\n" +
		"      items {\n" +
		"        YEAR\n" +
		"        TRADE_FLOW\n" +
		"        TRADE_VALUE_USD_AMT\n" +
		"      }\n" +
		"      endCursor\n" +
		"      hasNextPage\n" +
		"    }\n" +
		"  }"
	assert.Equal(t, want, q.Text)
	assert.Equal(t, `first: 10, filter: { TRADE_FLOW: { eq: "出口" }, YEAR: { eq: 2024 } }, orderBy: { YEAR: DESC }`, q.Args)
}

func TestBuild_GroupByDocument(t *testing.T) {
	reg, err := registry.New(registry.Descriptor{
		Key:           "trade_monthly_by_country",
		QueryName:     "trade_monthly_by_countries",
		Fields:        []string{"YEAR", "COUNTRY_ID", "TRADE_VALUE_USD_AMT"},
		NumericFields: []string{"YEAR", "TRADE_VALUE_USD_AMT"},
	})
	require.NoError(t, err)
	b := New(reg, 1000)

	q, err := b.Build("trade_monthly_by_country", Params{
		Fields:       []string{"COUNTRY_ID"},
		GroupBy:      []string{"YEAR", "COUNTRY_ID"},
		Aggregations: []Aggregation{{Field: "TRADE_VALUE_USD_AMT", Function: "sum"}},
	})
	require.NoError(t, err)

	want := "query {\n" +
		"    trade_monthly_by_countries {\n" +
		"      items {\n" +
		"        COUNTRY_ID\n" +
		"      }\n" +
		"      endCursor\n" +
		"      hasNextPage\n" +
		"      groupBy(fields: [YEAR, COUNTRY_ID]) {\n" +
		"        fields {\n" +
		"          YEAR\n" +
		"          COUNTRY_ID\n" +
		"        }\n" +
		"        aggregations {\n" +
		"          sum(field: TRADE_VALUE_USD_AMT)\n" +
		"        }\n" +
		"      }\n" +
		"    }\n" +
		"  }"
	assert.Equal(t, want, q.Text)
}

func TestBuild_UnknownResolver(t *testing.T) {
	b := testBuilder(t)

	_, err := b.Build("no_such_resolver", Params{})
	require.Error(t, err)

	var unknown *registry.UnknownResolverError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "no_such_resolver", unknown.Key)
	assert.Contains(t, err.Error(), "unknown resolver: no_such_resolver")
	assert.Contains(t, err.Error(), "trade_yearly_total")
}

func TestBuild_FilterLiteral(t *testing.T) {
	b := testBuilder(t)

	q, err := b.Build("trade_yearly_total", Params{Filter: NewFilter().Set("YEAR", Eq(2024))})
	require.NoError(t, err)
	assert.Contains(t, q.Text, "filter: { YEAR: { eq: 2024 } }")
}

func TestBuild_EmptyFilterOmitted(t *testing.T) {
	b := testBuilder(t)

	tests := []struct {
		name   string
		filter *Filter
	}{
		{"nil filter", nil},
		{"empty filter", NewFilter()},
		{"or with only empty branches", NewFilter().SetOr(NewFilter(), nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := b.Build("trade_yearly_total", Params{Filter: tt.filter})
			require.NoError(t, err)
			assert.NotContains(t, q.Text, "filter:")
			assert.NotContains(t, q.Text, "trade_yearly_totals(")
			assert.Empty(t, q.Args)
		})
	}
}

func TestBuild_ArgumentOrder(t *testing.T) {
	b := testBuilder(t)

	q, err := b.Build("trade_monthly_total", Params{
		OrderBy: OrderSpec{Field: "PERIOD_MONTH", Direction: Asc},
		Filter:  NewFilter().Set("YEAR", Eq(2024)),
		After:   "cursor-1",
		First:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, `first: 5, after: "cursor-1", filter: { YEAR: { eq: 2024 } }, orderBy: { PERIOD_MONTH: ASC }`, q.Args)
}

func TestBuild_EnumTokensUnquoted(t *testing.T) {
	b := testBuilder(t)

	q, err := b.Build("trade_yearly_total", Params{
		OrderBy: OrderSpec{Field: "YEAR", Direction: Desc},
		Filter:  NewFilter().Set("INDUSTRY", Contains("DESCRIPTION")),
	})
	require.NoError(t, err)
	assert.Contains(t, q.Text, "orderBy: { YEAR: DESC }")
	assert.NotContains(t, q.Text, `"DESC"`)
	assert.Contains(t, q.Text, `INDUSTRY: { contains: "DESCRIPTION" }`)
}

func TestBuild_UnknownOrderByDropped(t *testing.T) {
	b := testBuilder(t)

	q, err := b.Build("trade_yearly_total", Params{OrderBy: OrderSpec{Field: "NOPE", Direction: Desc}})
	require.NoError(t, err)
	assert.NotContains(t, q.Text, "orderBy")
	assert.Equal(t, "NOPE", q.DroppedOrderBy)
}

func TestBuild_PageSizeClamp(t *testing.T) {
	b := testBuilder(t)

	tests := []struct {
		first int
		want  string
	}{
		{99999, "first: 1000"},
		{1000, "first: 1000"},
		{50, "first: 50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			q, err := b.Build("trade_yearly_total", Params{First: tt.first})
			require.NoError(t, err)
			assert.Contains(t, q.Text, tt.want+")")
		})
	}

	q, err := b.Build("trade_yearly_total", Params{First: 0})
	require.NoError(t, err)
	assert.NotContains(t, q.Text, "first:")
}

func TestBuild_FieldProjection(t *testing.T) {
	b := testBuilder(t)

	q, err := b.Build("trade_yearly_total", Params{Fields: []string{"TRADE_WEIGHT", "BOGUS", "YEAR", "YEAR"}})
	require.NoError(t, err)
	assert.Contains(t, q.Text, "items {\n        TRADE_WEIGHT\n        YEAR\n      }")
	assert.Equal(t, []string{"BOGUS"}, q.DroppedFields)

	q, err = b.Build("trade_yearly_total", Params{Fields: []string{"BOGUS"}})
	require.NoError(t, err)
	for _, f := range q.Resolver.Fields {
		assert.Contains(t, q.Text, "        "+f+"\n")
	}
}

func TestBuild_GroupByDropsUnknownFields(t *testing.T) {
	b := testBuilder(t)

	q, err := b.Build("trade_yearly_total", Params{GroupBy: []string{"YEAR", "MISSING"}})
	require.NoError(t, err)
	assert.Contains(t, q.Text, "groupBy(fields: [YEAR])")
	assert.Equal(t, []string{"MISSING"}, q.DroppedGroupBy)

	q, err = b.Build("trade_yearly_total", Params{GroupBy: []string{"MISSING"}})
	require.NoError(t, err)
	assert.NotContains(t, q.Text, "groupBy")
}

func TestBuild_Aggregations(t *testing.T) {
	b := testBuilder(t)

	tests := []struct {
		name string
		aggs []Aggregation
		want string
	}{
		{
			name: "default count",
			want: "aggregations {\n          count\n        }",
		},
		{
			name: "numeric field",
			aggs: []Aggregation{{Field: "TRADE_VALUE_USD_AMT", Function: "avg"}},
			want: "aggregations {\n          avg(field: TRADE_VALUE_USD_AMT)\n        }",
		},
		{
			name: "function defaults to sum",
			aggs: []Aggregation{{Field: "TRADE_WEIGHT"}},
			want: "aggregations {\n          sum(field: TRADE_WEIGHT)\n        }",
		},
		{
			name: "non numeric field falls back to count",
			aggs: []Aggregation{{Field: "INDUSTRY", Function: "sum"}},
			want: "aggregations {\n          count\n        }",
		},
		{
			name: "duplicates collapse",
			aggs: []Aggregation{
				{Field: "INDUSTRY", Function: "max"},
				{Field: "TRADE_WEIGHT", Function: "max"},
				{Field: "HS_CODE_GROUP", Function: "min"},
				{Field: "TRADE_WEIGHT", Function: "max"},
			},
			want: "aggregations {\n          count\n          max(field: TRADE_WEIGHT)\n        }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := b.Build("trade_yearly_total", Params{GroupBy: []string{"YEAR"}, Aggregations: tt.aggs})
			require.NoError(t, err)
			assert.Contains(t, q.Text, tt.want)
		})
	}
}

func TestBuild_InvalidAggregationFunction(t *testing.T) {
	b := testBuilder(t)

	for _, groupBy := range [][]string{{"YEAR"}, nil} {
		_, err := b.Build("trade_yearly_total", Params{
			GroupBy:      groupBy,
			Aggregations: []Aggregation{{Field: "TRADE_WEIGHT", Function: "median"}},
		})
		require.Error(t, err)
		var invalid *InvalidAggregationError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "median", invalid.Function)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	b := testBuilder(t)

	first := NewFilter().
		Set("YEAR", Eq(2024)).
		Set("TRADE_FLOW", Eq("進口")).
		SetOr(NewFilter().Set("COUNTRY_COMM_ZH", Contains("美")), NewFilter().Set("AREA_NM", Contains("美")))
	second := NewFilter().
		SetOr(NewFilter().Set("COUNTRY_COMM_ZH", Contains("美")), NewFilter().Set("AREA_NM", Contains("美"))).
		Set("TRADE_FLOW", Eq("進口")).
		Set("YEAR", Eq(2024))

	params := func(f *Filter) Params {
		return Params{First: 20, Filter: f, GroupBy: []string{"YEAR"}, Aggregations: []Aggregation{{Field: "TRADE_WEIGHT"}}}
	}

	a, err := b.Build("trade_yearly_by_country", params(first))
	require.NoError(t, err)
	again, err := b.Build("trade_yearly_by_country", params(first))
	require.NoError(t, err)
	c, err := b.Build("trade_yearly_by_country", params(second))
	require.NoError(t, err)

	assert.Equal(t, a.Text, again.Text)
	assert.Equal(t, a.Text, c.Text)
}

func TestBuild_OutputIsInlineQueryDocument(t *testing.T) {
	b := testBuilder(t)

	rangeFilter := NewFilter().
		Set("TXN_DT", Gte("2024-06-01T00:00:00Z"), Lte("2024-06-30T23:59:59Z")).
		Set("HS_CODE", StartsWith("85")).
		Set("COUNTRY_COMM_EN", Contains(`Côte "d'Ivoire"`))

	for _, key := range b.Registry().Keys() {
		t.Run(key, func(t *testing.T) {
			desc, err := b.Registry().Lookup(key)
			require.NoError(t, err)

			q, err := b.Build(key, Params{
				First:        25,
				After:        "abc==",
				Filter:       rangeFilter,
				OrderBy:      OrderSpec{Field: desc.Fields[0], Direction: Desc},
				GroupBy:      desc.Fields[:1],
				Aggregations: []Aggregation{{Field: lastNumeric(desc), Function: "max"}},
			})
			require.NoError(t, err)
			assert.NotContains(t, q.Text, "$")

			analysis, err := gqlrequest.CheckInline(q.Text, gqlrequest.InlinePolicy{})
			require.NoError(t, err)
			assert.Equal(t, []string{desc.QueryName}, analysis.RootFields)
		})
	}
}

func lastNumeric(d registry.Descriptor) string {
	if len(d.NumericFields) == 0 {
		return ""
	}
	return d.NumericFields[len(d.NumericFields)-1]
}

func TestBuild_ConcurrentUse(t *testing.T) {
	b := testBuilder(t)
	want, err := b.Build("trade_monthly_by_country", Params{First: 3})
	require.NoError(t, err)

	done := make(chan string, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			q, err := b.Build("trade_monthly_by_country", Params{First: 3})
			if err != nil {
				done <- err.Error()
				return
			}
			done <- q.Text
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, want.Text, <-done)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input string
		want  Direction
	}{
		{"DESC", Desc},
		{"desc", Desc},
		{" Desc ", Desc},
		{"ASC", Asc},
		{"", Asc},
		{"sideways", Asc},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirection(tt.input))
		})
	}
}

func TestBuild_NoVariablePlaceholders(t *testing.T) {
	b := testBuilder(t)
	q, err := b.Build("UNION_REF_HSCODE", Params{Filter: NewFilter().Set("HS_Code_ZH", Contains("$5 off"))})
	require.NoError(t, err)
	// "$" inside a string literal is data, not a variable reference.
	assert.True(t, strings.Contains(q.Text, `"$5 off"`))
	_, err = gqlrequest.CheckInline(q.Text, gqlrequest.InlinePolicy{})
	require.NoError(t, err)
}
