// Package gatewaytest runs an in-process stand-in for the APIM GraphQL
// gateway. It enforces the gateway's contract: a subscription key header,
// and a single query operation with every argument inlined.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/registry"
)

// KeyHeader is the header the fake reads the subscription key from.
const KeyHeader = "Ocp-Apim-Subscription-Key"

// Request is one request the gateway accepted for execution.
type Request struct {
	Header   http.Header
	Query    string
	Analysis *gqlrequest.Analysis
}

// Reply is what a Responder wants sent back. A zero Status means 200.
type Reply struct {
	Status int
	Body   any
}

// Responder produces the reply for an accepted request.
type Responder func(Request) Reply

// Gateway is a running fake gateway.
type Gateway struct {
	*httptest.Server
	Key string

	mu         sync.Mutex
	requests   []Request
	rejected   int
	respond    Responder
	queryNames []string
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithResponder replaces the default empty-connection responder.
func WithResponder(r Responder) Option {
	return func(g *Gateway) { g.respond = r }
}

// WithQueryNames sets the root query fields reported by introspection.
func WithQueryNames(names ...string) Option {
	return func(g *Gateway) { g.queryNames = names }
}

// WithRegistry exposes every query name in reg through introspection.
func WithRegistry(reg *registry.Registry) Option {
	return func(g *Gateway) {
		g.queryNames = g.queryNames[:0]
		for _, d := range reg.All() {
			g.queryNames = append(g.queryNames, d.QueryName)
		}
	}
}

// New starts a gateway that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Gateway {
	t.Helper()
	g := &Gateway{Key: "test-subscription-key"}
	for _, opt := range opts {
		opt(g)
	}
	if g.respond == nil {
		g.respond = EmptyConnection
	}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.Close)
	return g
}

// Requests returns the accepted requests in arrival order.
func (g *Gateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.requests))
	copy(out, g.requests)
	return out
}

// Rejected returns how many requests failed the gateway contract.
func (g *Gateway) Rejected() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rejected
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(KeyHeader) != g.Key {
		g.reject(w, http.StatusUnauthorized, map[string]any{
			"statusCode": http.StatusUnauthorized,
			"message":    "Access denied due to missing or invalid subscription key.",
		})
		return
	}

	env, err := gqlrequest.DecodeEnvelope(r)
	if err != nil {
		g.reject(w, http.StatusBadRequest, errorsBody(err.Error()))
		return
	}
	if env.HasVariables() {
		g.reject(w, http.StatusOK, errorsBody("variables are not supported"))
		return
	}
	analysis, err := gqlrequest.CheckInline(env.Query, gqlrequest.InlinePolicy{})
	if err != nil {
		g.reject(w, http.StatusOK, errorsBody(err.Error()))
		return
	}

	req := Request{Header: r.Header.Clone(), Query: env.Query, Analysis: analysis}
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	var reply Reply
	if len(analysis.RootFields) == 1 && analysis.RootFields[0] == "__schema" {
		reply = Reply{Body: map[string]any{"data": g.schema()}}
	} else {
		reply = g.respond(req)
	}
	writeJSON(w, reply.Status, reply.Body)
}

func (g *Gateway) reject(w http.ResponseWriter, status int, body any) {
	g.mu.Lock()
	g.rejected++
	g.mu.Unlock()
	writeJSON(w, status, body)
}

func (g *Gateway) schema() map[string]any {
	fields := make([]map[string]any, 0, len(g.queryNames))
	for _, name := range g.queryNames {
		fields = append(fields, map[string]any{
			"name": name,
			"type": map[string]any{"kind": "OBJECT", "name": name + "Connection"},
		})
	}
	return map[string]any{
		"__schema": map[string]any{
			"queryType": map[string]any{"name": "Query"},
			"types": []map[string]any{
				{"kind": "OBJECT", "name": "Query", "fields": fields},
				{"kind": "ENUM", "name": "OrderBy", "enumValues": []map[string]any{{"name": "ASC"}, {"name": "DESC"}}},
			},
		},
	}
}

// EmptyConnection answers every root field with an empty page.
func EmptyConnection(req Request) Reply {
	data := make(map[string]any, len(req.Analysis.RootFields))
	for _, field := range req.Analysis.RootFields {
		data[field] = map[string]any{"items": []any{}, "endCursor": nil, "hasNextPage": false}
	}
	return Reply{Body: map[string]any{"data": data}}
}

// Errors answers with a GraphQL errors array carrying the given messages.
func Errors(messages ...string) Responder {
	return func(Request) Reply {
		return Reply{Body: errorsBody(messages...)}
	}
}

// Status answers with a bare HTTP status and a plain body.
func Status(status int, body string) Responder {
	return func(Request) Reply {
		return Reply{Status: status, Body: body}
	}
}

func errorsBody(messages ...string) map[string]any {
	errs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, map[string]any{"message": m})
	}
	return map[string]any{"data": nil, "errors": errs}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if status == 0 {
		status = http.StatusOK
	}
	if s, ok := body.(string); ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(s))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
