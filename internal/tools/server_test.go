package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-graphql-mcp/internal/auditlog"
	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/normalize"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/testutil/gatewaytest"
	"trade-graphql-mcp/internal/upstream"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditlog.Entry
}

func (r *recordingAuditor) Record(_ context.Context, e auditlog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAuditor) all() []auditlog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auditlog.Entry(nil), r.entries...)
}

type fixture struct {
	server  *Server
	gateway *gatewaytest.Gateway
	audit   *recordingAuditor
}

func newFixture(t *testing.T, opts ...gatewaytest.Option) fixture {
	t.Helper()
	reg, err := registry.New(registry.Builtin()...)
	require.NoError(t, err)

	gw := gatewaytest.New(t, append([]gatewaytest.Option{gatewaytest.WithRegistry(reg)}, opts...)...)
	client, err := upstream.NewClient(upstream.Config{Endpoint: gw.URL, SubscriptionKey: gw.Key})
	require.NoError(t, err)

	audit := &recordingAuditor{}
	srv, err := New(reg, client, WithAuditor(audit), WithInlinePolicy(gqlrequest.InlinePolicy{MaxDepth: 8}))
	require.NoError(t, err)
	return fixture{server: srv, gateway: gw, audit: audit}
}

func (f fixture) call(t *testing.T, name, args string) *mcp.CallToolResult {
	t.Helper()
	res, err := f.server.Call(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func errorOf(t *testing.T, res *mcp.CallToolResult) errorPayload {
	t.Helper()
	require.True(t, res.IsError)
	var p errorPayload
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &p))
	return p
}

func TestCatalogue(t *testing.T) {
	f := newFixture(t)
	names := f.server.Names()
	assert.Len(t, names, 17)
	assert.Equal(t, "list_resolvers", names[0])
	assert.Contains(t, names, "query_trade_monthly_by_code")
	assert.Contains(t, names, "query_graphql")

	covered := map[string]bool{}
	for _, spec := range f.server.Specs() {
		if spec.Kind == KindResolver {
			covered[spec.Profile.Resolver] = true
		}
	}
	for _, key := range f.server.Registry().Keys() {
		assert.True(t, covered[key], "no tool for resolver %s", key)
	}
}

func TestNew_RejectsBrokenProfiles(t *testing.T) {
	reg, err := registry.New(registry.Builtin()...)
	require.NoError(t, err)
	gw := gatewaytest.New(t)
	client, err := upstream.NewClient(upstream.Config{Endpoint: gw.URL})
	require.NoError(t, err)

	tests := []struct {
		name  string
		specs []Spec
	}{
		{"unknown resolver", []Spec{{Name: "x", Profile: normalize.Profile{Resolver: "nope"}}}},
		{"unknown field", []Spec{{Name: "x", Profile: normalize.Profile{
			Resolver: "trade_yearly_total",
			Bindings: []normalize.Binding{{Param: "month", Field: "MONTH", Rule: normalize.RuleEq}},
		}}}},
		{"duplicate name", []Spec{{Name: "list_resolvers", Kind: KindListResolvers}, {Name: "list_resolvers", Kind: KindListResolvers}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(reg, client, WithSpecs(tt.specs))
			require.Error(t, err)
		})
	}
}

func TestInputSchemas(t *testing.T) {
	f := newFixture(t)
	for _, spec := range f.server.Specs() {
		t.Run(spec.Name, func(t *testing.T) {
			tool := f.server.tool(spec)
			schema, ok := tool.InputSchema.(*jsonschema.Schema)
			require.True(t, ok, "input schema is %T", tool.InputSchema)
			assert.Equal(t, "object", schema.Type)
			assert.NotEmpty(t, tool.Description)

			if spec.Kind == KindRawQuery {
				assert.Equal(t, []string{"query"}, schema.Required)
			}
			if spec.Kind != KindResolver {
				return
			}
			assert.Contains(t, schema.Properties, "first")
			for _, b := range spec.Profile.Bindings {
				assert.Contains(t, schema.Properties, b.Param)
			}
			assert.Equal(t, spec.Profile.Projection, schema.Properties["groupBy"] != nil)
			if spec.Profile.Projection {
				assert.Equal(t, []string{"array", "string"}, schema.Properties["groupBy"].Types)
			}
			first := schema.Properties["first"]
			require.NotNil(t, first.Maximum)
			assert.Equal(t, float64(normalize.DefaultLimits.MaxPageSize), *first.Maximum)
			assert.Equal(t, spec.Profile.FreeOrderBy, schema.Properties["orderBy"] != nil)
			assert.Contains(t, tool.Description, "Fields: ")
		})
	}
}

func TestCall_ResolverTool(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, "query_hscode_reference", `{"hsCode":"85","industryKeyword":"電子"}`)
	require.False(t, res.IsError, resultText(t, res))
	assert.JSONEq(t, `{"data":{"uNION_REF_HSCODEs":{"items":[],"endCursor":null,"hasNextPage":false}}}`, resultText(t, res))

	reqs := f.gateway.Requests()
	require.Len(t, reqs, 1)
	q := reqs[0].Query
	assert.Contains(t, q, `uNION_REF_HSCODEs(first: 50, filter: { HS_Code: { startsWith: "85" }, Industry: { contains: "電子" } })`)
	assert.NotContains(t, q, "$")

	entries := f.audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "query_hscode_reference", entries[0].Tool)
	assert.Equal(t, "UNION_REF_HSCODE", entries[0].Resolver)
	assert.Equal(t, auditlog.StatusOK, entries[0].Status)
	assert.Equal(t, gqlrequest.QueryHash(q), entries[0].QueryHash)
}

func TestCall_Arguments(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		args     string
		contains []string
		excludes []string
	}{
		{
			name:     "page size clamped",
			tool:     "query_trade_yearly_totals",
			args:     `{"first":99999}`,
			contains: []string{"trade_yearly_totals(first: 1000)"},
		},
		{
			name:     "order on fixed field",
			tool:     "query_trade_monthly_totals",
			args:     `{"year":2024,"order":"DESC"}`,
			contains: []string{`orderBy: { PERIOD_MONTH: DESC }`, `YEAR: { eq: 2024 }`},
		},
		{
			name:     "country area id",
			tool:     "query_trade_monthly_by_countries",
			args:     `{"country":"new_southbound","tradeFlow":"export"}`,
			contains: []string{`AREA_ID: { eq: "NEW_SOUTHBOUND" }`, `TRADE_FLOW: { eq: "出口" }`},
		},
		{
			name:     "chinese country name on area resolver",
			tool:     "query_trade_yearly_share_by_countries",
			args:     `{"country":"東南亞"}`,
			contains: []string{`or: [{ COUNTRY_COMM_ZH: { contains: "東南亞" } }, { AREA_NM: { contains: "東南亞" } }]`},
		},
		{
			name:     "transactions date range",
			tool:     "query_trade_transactions",
			args:     `{"startDate":"2024-06-01","endDate":"2024-06-30","hsCode":"8542","order":"ASC"}`,
			contains: []string{`TXN_DT: { gte: "2024-06-01T00:00:00Z", lte: "2024-06-30T23:59:59Z" }`, `HS_CODE: { startsWith: "8542" }`, `orderBy: { TXN_DT: ASC }`},
		},
		{
			name: "projection and grouping",
			tool: "query_trade_monthly_by_code",
			args: `{"year":2024,"fields":["HS_CODE","NOPE"],"groupBy":["COUNTRY_ID"],"aggregations":["TRADE_VALUE_USD_AMT,sum"],"orderBy":"TRADE_VALUE_USD_AMT","order":"desc","after":"abc"}`,
			contains: []string{
				`after: "abc"`,
				`orderBy: { TRADE_VALUE_USD_AMT: DESC }`,
				"groupBy(fields: [COUNTRY_ID])",
				"sum(field: TRADE_VALUE_USD_AMT)",
			},
			excludes: []string{"NOPE"},
		},
		{
			name:     "projection ignored where unsupported",
			tool:     "query_trade_yearly_by_countries",
			args:     `{"groupBy":["COUNTRY_ID"],"orderBy":"TRADE_WEIGHT"}`,
			excludes: []string{"groupBy", "orderBy"},
		},
		{
			name:     "empty arguments",
			tool:     "query_country_area_reference",
			args:     ``,
			contains: []string{"uNION_REF_COUNTRY_AREAs(first: 50) {"},
			excludes: []string{"filter:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.call(t, tt.tool, tt.args)
			require.False(t, res.IsError, resultText(t, res))
			reqs := f.gateway.Requests()
			require.Len(t, reqs, 1)
			for _, s := range tt.contains {
				assert.Contains(t, reqs[0].Query, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, reqs[0].Query, s)
			}
		})
	}
}

func TestCall_UpstreamErrors(t *testing.T) {
	t.Run("graphql errors", func(t *testing.T) {
		f := newFixture(t, gatewaytest.WithResponder(gatewaytest.Errors("Field \"X\" is not defined")))
		p := errorOf(t, f.call(t, "query_trade_yearly_totals", `{"year":2024}`))
		assert.Equal(t, "Trade yearly totals query failed", p.Error)
		assert.Equal(t, `GraphQL Error: Field "X" is not defined`, p.Details)
		assert.Empty(t, p.Hint)

		entries := f.audit.all()
		require.Len(t, entries, 1)
		assert.Equal(t, auditlog.StatusError, entries[0].Status)
		assert.Equal(t, "graphql", entries[0].ErrorKind)
	})

	t.Run("http error", func(t *testing.T) {
		f := newFixture(t, gatewaytest.WithResponder(gatewaytest.Status(http.StatusServiceUnavailable, "maintenance")))
		p := errorOf(t, f.call(t, "query_trade_monthly_by_code", `{}`))
		assert.Equal(t, "Trade monthly by code query failed", p.Error)
		assert.Equal(t, "GraphQL HTTP Error 503: maintenance", p.Details)
		assert.Equal(t, projectionHint, p.Hint)
	})
}

func TestCall_InvalidAggregation(t *testing.T) {
	f := newFixture(t)
	p := errorOf(t, f.call(t, "query_trade_monthly_by_code", `{"groupBy":["YEAR"],"aggregations":["TRADE_WEIGHT,median"]}`))
	assert.Contains(t, p.Details, "median")
	assert.Equal(t, projectionHint, p.Hint)
	assert.Empty(t, f.gateway.Requests())
	assert.Equal(t, "input", f.audit.all()[0].ErrorKind)
}

func TestCall_MalformedArguments(t *testing.T) {
	f := newFixture(t)
	p := errorOf(t, f.call(t, "query_trade_yearly_totals", `[1,2]`))
	assert.Contains(t, p.Details, "JSON object")
	assert.Empty(t, f.gateway.Requests())
}

func TestCall_RawQuery(t *testing.T) {
	f := newFixture(t)

	query := `query { trade_yearly_totals(first: 3, filter: { YEAR: { eq: 2024 } }) { items { YEAR } } }`
	res := f.call(t, "query_graphql", mustJSON(t, map[string]any{"query": query}))
	require.False(t, res.IsError, resultText(t, res))
	reqs := f.gateway.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, query, reqs[0].Query)
	assert.Equal(t, "trade_yearly_totals", f.audit.all()[0].Resolver)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"variables", `query ($y: Int) { trade_yearly_totals(filter: { YEAR: { eq: $y } }) { endCursor } }`, "variable definitions are not supported"},
		{"mutation", `mutation { deleteAll }`, "only query operations"},
		{"two operations", `query A { a } query B { b }`, "multiple operations"},
		{"syntax error", `query {`, "query rejected"},
		{"too deep", `query { a { b { c { d { e { f { g { h { i } } } } } } } } }`, "selection depth"},
		{"missing", ``, "query is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := errorOf(t, f.call(t, "query_graphql", mustJSON(t, map[string]any{"query": tt.query})))
			assert.Equal(t, "GraphQL query failed", p.Error)
			assert.Contains(t, p.Details, tt.want)
		})
	}
	assert.Len(t, f.gateway.Requests(), 1)
}

func TestCall_ListResolvers(t *testing.T) {
	f := newFixture(t)

	var out struct {
		Count     int            `json:"count"`
		Resolvers []resolverInfo `json:"resolvers"`
	}
	res := f.call(t, "list_resolvers", `{}`)
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 14, out.Count)
	assert.Equal(t, "TXN_MOF_NON_PROTECT_MT", out.Resolvers[0].Key)

	res = f.call(t, "list_resolvers", `{"resolver":"trade_yearly_total"}`)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Equal(t, 1, out.Count)
	r := out.Resolvers[0]
	assert.Equal(t, "trade_yearly_totals", r.QueryName)
	assert.Equal(t, "trade_yearly_totalFilterInput", r.FilterInputType)
	assert.Equal(t, []string{"query_trade_yearly_totals"}, r.Tools)

	p := errorOf(t, f.call(t, "list_resolvers", `{"resolver":"missing"}`))
	assert.True(t, strings.HasPrefix(p.Details, "unknown resolver: missing. Available resolvers: "))
	assert.Empty(t, f.gateway.Requests())
}

func TestCall_IntrospectSchema(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, "introspect_schema", `{"typeName":"OrderBy"}`)
	require.False(t, res.IsError, resultText(t, res))
	var typ upstream.SchemaType
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &typ))
	assert.Equal(t, "ENUM", typ.Kind)

	res = f.call(t, "introspect_schema", `{}`)
	require.False(t, res.IsError)
	var schema upstream.Schema
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &schema))
	assert.Contains(t, schema.QueryFields(), "trade_yearly_totals")

	p := errorOf(t, f.call(t, "introspect_schema", `{"typeName":"Nope"}`))
	assert.Equal(t, "Schema introspection query failed", p.Error)
}

func TestCall_UnknownTool(t *testing.T) {
	f := newFixture(t)
	_, err := f.server.Call(context.Background(), "nope", nil)
	require.Error(t, err)
}

func TestRegister_OverMCP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Error(t, f.server.Register(nil))

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "trade-graphql-mcp", Version: "test"}, nil)
	require.NoError(t, f.server.Register(mcpServer))

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	list, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Tools, 17)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "query_trade_yearly_totals",
		Arguments: map[string]any{"year": 2024, "tradeFlow": "進口"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	reqs := f.gateway.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Query, `TRADE_FLOW: { eq: "進口" }, YEAR: { eq: 2024 }`)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
