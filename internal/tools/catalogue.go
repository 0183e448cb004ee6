package tools

import "trade-graphql-mcp/internal/normalize"

// Kind selects the handler a tool runs.
type Kind int

const (
	// KindResolver builds a query for Profile.Resolver from the arguments.
	KindResolver Kind = iota
	KindListResolvers
	KindIntrospect
	KindRawQuery
)

// Spec describes one MCP tool.
type Spec struct {
	Name  string
	Title string
	// Summary is the first paragraph of the tool description; the
	// resolver's field list is appended at registration.
	Summary string
	Kind    Kind
	Profile normalize.Profile
	// Hint is attached to error payloads.
	Hint string
}

const projectionHint = "Check the parameters. When using groupBy or aggregations, make sure every field name exists on the resolver (see list_resolvers)."

var (
	yearEq      = normalize.Binding{Param: "year", Field: "YEAR", Rule: normalize.RuleEq}
	monthEq     = normalize.Binding{Param: "month", Field: "MONTH", Rule: normalize.RuleEq}
	tradeFlow   = normalize.Binding{Param: "tradeFlow", Field: "TRADE_FLOW", Rule: normalize.RuleTradeFlow}
	industryKw  = normalize.Binding{Param: "industryKeyword", Field: "INDUSTRY", Rule: normalize.RuleContains}
	countryRule = normalize.Binding{Param: "country", Rule: normalize.RuleCountry}
	hsCode      = normalize.Binding{Param: "hsCode", Field: "HS_CODE", Rule: normalize.RuleHSCode}
	productKw   = normalize.Binding{Param: "productKeyword", Field: "HS_CODE_ZH", Rule: normalize.RuleContains}
)

func monthly(resolver string, withCountry bool) normalize.Profile {
	b := []normalize.Binding{yearEq, monthEq, tradeFlow, industryKw}
	if withCountry {
		b = append(b, countryRule)
	}
	return normalize.Profile{Resolver: resolver, Bindings: b, OrderField: "PERIOD_MONTH"}
}

func yearly(resolver string, withCountry bool) normalize.Profile {
	b := []normalize.Binding{yearEq, tradeFlow, industryKw}
	if withCountry {
		b = append(b, countryRule)
	}
	return normalize.Profile{Resolver: resolver, Bindings: b, OrderField: "YEAR"}
}

// Catalogue returns every tool the server registers, in registration order.
func Catalogue() []Spec {
	return []Spec{
		{
			Name:    "list_resolvers",
			Title:   "Resolver list",
			Summary: "List the GraphQL resolvers this server can query, with their fields, numeric (aggregatable) fields and filter input types. Pass resolver to describe a single one.",
			Kind:    KindListResolvers,
		},
		{
			Name:  "query_hscode_reference",
			Title: "HS Code reference",
			Summary: "Look up the HS code reference table (UNION_REF_HSCODE): industry classification, HS codes, Chinese product names and units. Small and fast; use it to find codes before querying trade data.\n" +
				"Examples: industryKeyword \"電子\"; hsCode \"847130\" (exact) or \"85\" (prefix); productKeyword \"半導體\".",
			Profile: normalize.Profile{
				Resolver: "UNION_REF_HSCODE",
				Bindings: []normalize.Binding{
					{Param: "industryKeyword", Field: "Industry", Rule: normalize.RuleContains},
					{Param: "hsCode", Field: "HS_Code", Rule: normalize.RuleHSCode},
					{Param: "productKeyword", Field: "HS_Code_ZH", Rule: normalize.RuleContains},
				},
			},
		},
		{
			Name:  "query_country_area_reference",
			Title: "Country/area reference",
			Summary: "Look up the country and area reference table (UNION_REF_COUNTRY_AREA): ISO3 codes, Chinese and English names, and area membership.\n" +
				"Examples: country \"USA\", \"美國\" or \"Japan\"; area \"亞洲\".",
			Profile: normalize.Profile{
				Resolver: "UNION_REF_COUNTRY_AREA",
				Bindings: []normalize.Binding{
					countryRule,
					{Param: "area", Field: "AREA_NM", Rule: normalize.RuleContains},
				},
			},
		},
		{
			Name:  "query_trade_monthly_by_code",
			Title: "Trade monthly by code",
			Summary: "Monthly trade statistics by HS code and country (trade_monthly_by_code_country). The most detailed monthly table; supports field projection, grouping with aggregations, free ordering and cursor paging.\n" +
				"Examples: year 2024, hsCode \"8542\", tradeFlow \"出口\"; groupBy [\"COUNTRY_ID\"] with aggregations [\"TRADE_VALUE_USD_AMT,sum\"].",
			Profile: normalize.Profile{
				Resolver:    "trade_monthly_by_code_country",
				Bindings:    []normalize.Binding{yearEq, monthEq, tradeFlow, hsCode, productKw, countryRule},
				OrderField:  "PERIOD_MONTH",
				FreeOrderBy: true,
				Projection:  true,
				Cursor:      true,
			},
			Hint: projectionHint,
		},
		{
			Name:  "query_trade_monthly_by_group",
			Title: "Trade monthly by group",
			Summary: "Monthly trade statistics by industry group and country, with area membership (trade_monthly_by_group_country). Supports projection, grouping, free ordering and cursor paging.\n" +
				"Examples: year 2024, industryKeyword \"機械\", country \"東南亞\".",
			Profile: normalize.Profile{
				Resolver:    "trade_monthly_by_group_country",
				Bindings:    []normalize.Binding{yearEq, monthEq, tradeFlow, industryKw, countryRule},
				OrderField:  "PERIOD_MONTH",
				FreeOrderBy: true,
				Projection:  true,
				Cursor:      true,
			},
			Hint: projectionHint,
		},
		{
			Name:  "query_trade_transactions",
			Title: "Trade transactions",
			Summary: "Customs transaction detail rows (TXN_MOF_NON_PROTECT_MT). Very large; prefer the monthly and yearly tools and always give a date range. Only this table has daily dates, English product and country names, and exchange rates.\n" +
				"Examples: startDate \"2024-06-01\", endDate \"2024-06-30\", hsCode \"8542\"; country \"US\" with tradeFlow \"出口\".",
			Profile: normalize.Profile{
				Resolver: "TXN_MOF_NON_PROTECT_MT",
				Bindings: []normalize.Binding{
					{Param: "startDate", EndParam: "endDate", Field: "TXN_DT", Rule: normalize.RuleDateRange},
					tradeFlow, hsCode, productKw, countryRule,
				},
				OrderField: "TXN_DT",
				Cursor:     true,
			},
		},
		{
			Name:    "query_trade_yearly_totals",
			Title:   "Trade yearly totals",
			Summary: "Yearly trade totals by industry group, without a country dimension (trade_yearly_total).",
			Profile: yearly("trade_yearly_total", false),
		},
		{
			Name:    "query_trade_monthly_totals",
			Title:   "Trade monthly totals",
			Summary: "Monthly trade totals by industry group, without a country dimension (trade_monthly_total).",
			Profile: monthly("trade_monthly_total", false),
		},
		{
			Name:    "query_trade_monthly_by_countries",
			Title:   "Trade monthly by countries",
			Summary: "Monthly trade by country with area membership (trade_monthly_by_country). country accepts ISO2 codes, area ids such as NEW_SOUTHBOUND, or Chinese names of countries and areas.",
			Profile: monthly("trade_monthly_by_country", true),
		},
		{
			Name:    "query_trade_yearly_by_countries",
			Title:   "Trade yearly by countries",
			Summary: "Yearly trade by country with area membership (trade_yearly_by_country). country accepts ISO2 codes (COUNTRY_ID), area ids (AREA_ID) or Chinese names (COUNTRY_COMM_ZH or AREA_NM).",
			Profile: yearly("trade_yearly_by_country", true),
		},
		{
			Name:    "query_trade_monthly_growth",
			Title:   "Trade monthly growth",
			Summary: "Precomputed monthly growth: year-over-year and month-over-month deltas and rates of trade value (trade_monthly_growth_total).",
			Profile: monthly("trade_monthly_growth_total", false),
		},
		{
			Name:    "query_trade_yearly_growth",
			Title:   "Trade yearly growth",
			Summary: "Precomputed yearly growth of trade value, weight and unit price (trade_yearly_growth_total).",
			Profile: yearly("trade_yearly_growth_total", false),
		},
		{
			Name:    "query_trade_monthly_growth_by_countries",
			Title:   "Trade monthly growth by countries",
			Summary: "Precomputed monthly growth per country for value, weight and unit price (trade_monthly_growth_by_country).",
			Profile: monthly("trade_monthly_growth_by_country", true),
		},
		{
			Name:    "query_trade_monthly_share_by_countries",
			Title:   "Trade monthly share by countries",
			Summary: "Precomputed monthly share of total trade per country by value and weight (trade_monthly_share_by_country).",
			Profile: monthly("trade_monthly_share_by_country", true),
		},
		{
			Name:    "query_trade_yearly_share_by_countries",
			Title:   "Trade yearly share by countries",
			Summary: "Precomputed yearly share of total trade per country by value and weight (trade_yearly_share_by_country).",
			Profile: yearly("trade_yearly_share_by_country", true),
		},
		{
			Name:    "introspect_schema",
			Title:   "Schema introspection",
			Summary: "Run the GraphQL introspection query against the gateway and return its types. Pass typeName to return a single type, for example a filter input type from list_resolvers.",
			Kind:    KindIntrospect,
		},
		{
			Name:  "query_graphql",
			Title: "GraphQL",
			Summary: "Send a hand-written GraphQL query to the gateway. The gateway rejects variables: the document must be a single query operation with every argument written inline, e.g. trade_yearly_totals(first: 10, filter: { YEAR: { eq: 2024 } }).",
			Kind:  KindRawQuery,
			Hint:  "Inline every argument as a literal and send exactly one query operation.",
		},
	}
}
