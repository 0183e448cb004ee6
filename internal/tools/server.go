// Package tools exposes the trade statistics resolvers as MCP tools. Each
// tool turns its arguments into a filter through a normalization profile,
// renders an inline-literal query and returns the gateway's JSON verbatim.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trade-graphql-mcp/internal/auditlog"
	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/normalize"
	"trade-graphql-mcp/internal/observability"
	"trade-graphql-mcp/internal/querybuilder"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/upstream"
)

// Gateway executes queries against the upstream GraphQL API.
type Gateway interface {
	Execute(ctx context.Context, query string) (*upstream.Response, error)
	Introspect(ctx context.Context) (*upstream.Schema, error)
}

// Auditor records finished tool calls.
type Auditor interface {
	Record(ctx context.Context, e auditlog.Entry)
}

// Server holds the tool catalogue and everything a call needs.
type Server struct {
	reg     *registry.Registry
	builder *querybuilder.Builder
	gateway Gateway
	limits  normalize.Limits
	policy  gqlrequest.InlinePolicy
	logger  *logging.Logger
	metrics *observability.ToolMetrics
	auditor Auditor
	tracer  trace.Tracer

	specs  []Spec
	byName map[string]Spec
}

// Option customizes a Server.
type Option func(*Server)

// WithLimits sets the page size limits.
func WithLimits(l normalize.Limits) Option {
	return func(s *Server) { s.limits = l }
}

// WithInlinePolicy sets the policy query_graphql documents must satisfy.
func WithInlinePolicy(p gqlrequest.InlinePolicy) Option {
	return func(s *Server) { s.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the tool call metrics.
func WithMetrics(m *observability.ToolMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithAuditor records every call.
func WithAuditor(a Auditor) Option {
	return func(s *Server) { s.auditor = a }
}

// WithSpecs replaces the catalogue.
func WithSpecs(specs []Spec) Option {
	return func(s *Server) { s.specs = specs }
}

// New validates every tool against reg and returns a server.
func New(reg *registry.Registry, gateway Gateway, opts ...Option) (*Server, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	s := &Server{
		reg:     reg,
		gateway: gateway,
		limits:  normalize.DefaultLimits,
		tracer:  otel.Tracer("trade-graphql-mcp/tools"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.specs == nil {
		s.specs = Catalogue()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.limits.DefaultPageSize <= 0 {
		s.limits.DefaultPageSize = normalize.DefaultLimits.DefaultPageSize
	}
	if s.limits.MaxPageSize <= 0 {
		s.limits.MaxPageSize = normalize.DefaultLimits.MaxPageSize
	}
	s.builder = querybuilder.New(reg, s.limits.MaxPageSize)

	s.byName = make(map[string]Spec, len(s.specs))
	for _, spec := range s.specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("tool without a name")
		}
		if _, dup := s.byName[spec.Name]; dup {
			return nil, fmt.Errorf("tool %s registered twice", spec.Name)
		}
		if spec.Kind == KindResolver {
			desc, err := reg.Lookup(spec.Profile.Resolver)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", spec.Name, err)
			}
			if err := spec.Profile.Validate(desc); err != nil {
				return nil, fmt.Errorf("tool %s: %w", spec.Name, err)
			}
		}
		s.byName[spec.Name] = spec
	}
	return s, nil
}

// Specs returns the catalogue in registration order.
func (s *Server) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Names returns the tool names in registration order.
func (s *Server) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// Registry returns the resolver registry.
func (s *Server) Registry() *registry.Registry {
	return s.reg
}

// Register adds every tool to srv.
func (s *Server) Register(srv *mcp.Server) error {
	if srv == nil {
		return errors.New("mcp server is required")
	}
	for _, spec := range s.specs {
		srv.AddTool(s.tool(spec), func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var raw json.RawMessage
			if req != nil && req.Params != nil {
				raw = req.Params.Arguments
			}
			return s.handle(ctx, spec, raw), nil
		})
	}
	return nil
}

func (s *Server) tool(spec Spec) *mcp.Tool {
	var desc registry.Descriptor
	if spec.Kind == KindResolver {
		desc, _ = s.reg.Lookup(spec.Profile.Resolver)
	}
	return &mcp.Tool{
		Name:        spec.Name,
		Title:       spec.Title,
		Description: description(spec, desc),
		InputSchema: inputSchema(spec, s.limits),
		Annotations: &mcp.ToolAnnotations{
			Title:          spec.Title,
			ReadOnlyHint:   true,
			IdempotentHint: true,
		},
	}
}

// Call runs the named tool with raw JSON arguments.
func (s *Server) Call(ctx context.Context, name string, raw json.RawMessage) (*mcp.CallToolResult, error) {
	spec, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return s.handle(ctx, spec, raw), nil
}

// invocation collects what the audit row needs while a call runs.
type invocation struct {
	resolver  string
	queryHash string
}

func (s *Server) handle(ctx context.Context, spec Spec, raw json.RawMessage) *mcp.CallToolResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "mcp.tool "+spec.Name, trace.WithAttributes(
		attribute.String("mcp.tool", spec.Name),
	))
	defer span.End()

	s.metrics.IncrementActiveCalls(ctx)
	defer s.metrics.DecrementActiveCalls(ctx)

	logger := s.logger.WithTool(spec.Name, spec.Profile.Resolver)
	if id := logging.GetRequestID(ctx); id != "" {
		logger = logger.WithRequestID(id)
	}
	ctx = logging.WithLogger(ctx, logger)

	inv := &invocation{resolver: spec.Profile.Resolver}
	text, err := s.run(ctx, spec, raw, inv)

	duration := time.Since(start)
	kind := errorKind(err)
	if inv.resolver != "" {
		span.SetAttributes(attribute.String("graphql.resolver", inv.resolver))
	}
	if inv.queryHash != "" {
		span.SetAttributes(attribute.String("graphql.query.hash", inv.queryHash))
	}
	s.metrics.RecordCall(ctx, spec.Name, duration, kind)

	status := auditlog.StatusOK
	if err != nil {
		status = auditlog.StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		logger.Warn("tool call failed",
			slog.String("error_kind", kind),
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("tool call completed",
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.Int("result_bytes", len(text)),
		)
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, auditlog.Entry{
			Tool:      spec.Name,
			Resolver:  inv.resolver,
			QueryHash: inv.queryHash,
			Status:    status,
			ErrorKind: kind,
			Duration:  duration,
		})
	}

	if err != nil {
		return errorResult(spec, err)
	}
	return textResult(text)
}

func (s *Server) run(ctx context.Context, spec Spec, raw json.RawMessage, inv *invocation) (string, error) {
	args, err := normalize.DecodeArgs(raw)
	if err != nil {
		return "", &InputError{Err: err}
	}
	switch spec.Kind {
	case KindListResolvers:
		return s.listResolvers(args)
	case KindIntrospect:
		return s.introspect(ctx, args)
	case KindRawQuery:
		return s.rawQuery(ctx, spec, args, inv)
	default:
		return s.resolverQuery(ctx, spec, args, inv)
	}
}

func (s *Server) resolverQuery(ctx context.Context, spec Spec, args normalize.Args, inv *invocation) (string, error) {
	p := spec.Profile
	desc, err := s.reg.Lookup(p.Resolver)
	if err != nil {
		return "", err
	}
	params, err := p.Params(args, desc, s.limits)
	if err != nil {
		return "", &InputError{Err: err}
	}
	q, err := s.builder.Build(p.Resolver, params)
	if err != nil {
		return "", err
	}

	logger := logging.FromContext(ctx)
	if len(q.DroppedFields) > 0 || len(q.DroppedGroupBy) > 0 || q.DroppedOrderBy != "" {
		logger.Warn("ignored unknown fields",
			slog.Any("fields", q.DroppedFields),
			slog.Any("group_by", q.DroppedGroupBy),
			slog.String("order_by", q.DroppedOrderBy),
		)
	}

	return s.execute(ctx, spec, p.Resolver, q.Text, inv)
}

func (s *Server) rawQuery(ctx context.Context, spec Spec, args normalize.Args, inv *invocation) (string, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", &InputError{Err: errors.New("query is required")}
	}
	analysis, err := gqlrequest.CheckInline(query, s.policy)
	if err != nil {
		return "", err
	}
	inv.resolver = strings.Join(analysis.RootFields, ",")
	trace.SpanFromContext(ctx).SetAttributes(observability.GraphQLSpanAttributes(analysis)...)
	return s.execute(ctx, spec, inv.resolver, query, inv)
}

func (s *Server) execute(ctx context.Context, spec Spec, resolver, query string, inv *invocation) (string, error) {
	inv.queryHash = gqlrequest.QueryHash(query)
	s.metrics.RecordQuerySize(ctx, resolver, len(query))
	ctx = gqlrequest.WithCallMeta(ctx, gqlrequest.CallMeta{
		Tool:      spec.Name,
		Resolver:  resolver,
		QueryHash: inv.queryHash,
	})

	resp, err := s.gateway.Execute(ctx, query)
	if err != nil {
		return "", err
	}
	return string(resp.Raw), nil
}

type resolverInfo struct {
	Key              string   `json:"key"`
	QueryName        string   `json:"queryName"`
	Description      string   `json:"description,omitempty"`
	Fields           []string `json:"fields"`
	NumericFields    []string `json:"numericFields"`
	FilterInputType  string   `json:"filterInputType"`
	OrderByInputType string   `json:"orderByInputType"`
	Tools            []string `json:"tools,omitempty"`
}

func (s *Server) listResolvers(args normalize.Args) (string, error) {
	toolsByResolver := make(map[string][]string)
	for _, spec := range s.specs {
		if spec.Kind == KindResolver {
			toolsByResolver[spec.Profile.Resolver] = append(toolsByResolver[spec.Profile.Resolver], spec.Name)
		}
	}

	var descs []registry.Descriptor
	if key, ok := args.String("resolver"); ok {
		d, err := s.reg.Lookup(key)
		if err != nil {
			return "", err
		}
		descs = []registry.Descriptor{d}
	} else {
		descs = s.reg.All()
	}

	out := make([]resolverInfo, 0, len(descs))
	for _, d := range descs {
		names := toolsByResolver[d.Key]
		sort.Strings(names)
		out = append(out, resolverInfo{
			Key:              d.Key,
			QueryName:        d.QueryName,
			Description:      d.Description,
			Fields:           d.Fields,
			NumericFields:    d.NumericFields,
			FilterInputType:  d.FilterInputType,
			OrderByInputType: d.OrderByInputType,
			Tools:            names,
		})
	}
	return marshal(map[string]any{"count": len(out), "resolvers": out})
}

func (s *Server) introspect(ctx context.Context, args normalize.Args) (string, error) {
	schema, err := s.gateway.Introspect(ctx)
	if err != nil {
		return "", err
	}
	name, ok := args.String("typeName")
	if !ok {
		return marshal(schema)
	}
	t, found := schema.Type(name)
	if !found {
		return "", &InputError{Err: fmt.Errorf("type %q not found in the gateway schema", name)}
	}
	return marshal(t)
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
