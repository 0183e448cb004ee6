package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/tools"
	"trade-graphql-mcp/internal/upstream"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	reg, err := registry.New(registry.Builtin()...)
	require.NoError(t, err)
	client, err := upstream.NewClient(upstream.Config{Endpoint: "https://gateway.invalid/graphql"})
	require.NoError(t, err)
	srv, err := tools.New(reg, client)
	require.NoError(t, err)
	c, err := New(srv, Config{})
	require.NoError(t, err)
	return c
}

func TestCatalog_Resolvers(t *testing.T) {
	c := newCatalog(t)

	res := c.Do(context.Background(), `{ resolvers { key queryName filterInputType tools } }`)
	require.Empty(t, res.Errors)

	data := res.Data.(map[string]any)
	resolvers := data["resolvers"].([]any)
	assert.Len(t, resolvers, 14)
	first := resolvers[0].(map[string]any)
	assert.Equal(t, "TXN_MOF_NON_PROTECT_MT", first["key"])
	assert.Equal(t, "tXN_MOF_NON_PROTECT_MTs", first["queryName"])
	assert.Equal(t, "TXN_MOF_NON_PROTECT_MTFilterInput", first["filterInputType"])
	assert.Equal(t, []any{"query_trade_transactions"}, first["tools"])
}

func TestCatalog_ResolverLookup(t *testing.T) {
	c := newCatalog(t)

	res := c.Do(context.Background(), `{ resolver(key: "trade_yearly_total") { numericFields previewQuery(first: 2) } }`)
	require.Empty(t, res.Errors)
	r := res.Data.(map[string]any)["resolver"].(map[string]any)
	assert.Contains(t, r["numericFields"], "YEAR")
	preview := r["previewQuery"].(string)
	assert.True(t, strings.HasPrefix(preview, "query {\n    trade_yearly_totals(first: 2) {"))

	res = c.Do(context.Background(), `{ resolver(key: "missing") { key } }`)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "unknown resolver: missing")
}

func TestCatalog_Tools(t *testing.T) {
	c := newCatalog(t)

	res := c.Do(context.Background(), `{
		tools { name }
		tool(name: "query_trade_monthly_by_code") { title parameters resolverKey resolver { queryName } }
		raw: tool(name: "query_graphql") { resolverKey resolver { key } parameters }
		none: tool(name: "nope") { name }
	}`)
	require.Empty(t, res.Errors)
	data := res.Data.(map[string]any)
	assert.Len(t, data["tools"].([]any), 17)

	tool := data["tool"].(map[string]any)
	assert.Equal(t, "Trade monthly by code", tool["title"])
	assert.Equal(t, "trade_monthly_by_code_country", tool["resolverKey"])
	assert.Equal(t, "trade_monthly_by_code_countries", tool["resolver"].(map[string]any)["queryName"])
	params := tool["parameters"].([]any)
	assert.Contains(t, params, "aggregations")
	assert.Contains(t, params, "hsCode")

	raw := data["raw"].(map[string]any)
	assert.Nil(t, raw["resolverKey"])
	assert.Nil(t, raw["resolver"])
	assert.Equal(t, []any{"query"}, raw["parameters"])
	assert.Nil(t, data["none"])
}

func TestCatalog_HTTP(t *testing.T) {
	c := newCatalog(t)

	body := strings.NewReader(`{"query":"{ tool(name: \"list_resolvers\") { name } }"}`)
	req := httptest.NewRequest(http.MethodPost, "/catalog", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data struct {
			Tool struct {
				Name string `json:"name"`
			} `json:"tool"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "list_resolvers", out.Data.Tool.Name)
}
