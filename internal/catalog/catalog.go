// Package catalog serves a read-only GraphQL description of the resolver
// registry and the MCP tool list.
package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"trade-graphql-mcp/internal/normalize"
	"trade-graphql-mcp/internal/querybuilder"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/tools"
)

const defaultPreviewSize = 5

// Catalog is the compiled catalog schema.
type Catalog struct {
	schema  graphql.Schema
	handler *handler.Handler
}

// Config controls the HTTP handler.
type Config struct {
	GraphiQL bool
}

type toolEntry struct {
	spec tools.Spec
}

// New builds the catalog over the tool server's registry and catalogue.
func New(srv *tools.Server, cfg Config) (*Catalog, error) {
	reg := srv.Registry()
	builder := querybuilder.New(reg, normalize.DefaultLimits.MaxPageSize)

	toolsByResolver := map[string][]string{}
	var entries []toolEntry
	for _, spec := range srv.Specs() {
		entries = append(entries, toolEntry{spec: spec})
		if spec.Kind == tools.KindResolver {
			toolsByResolver[spec.Profile.Resolver] = append(toolsByResolver[spec.Profile.Resolver], spec.Name)
		}
	}

	resolverType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Resolver",
		Description: "A gateway resolver the MCP tools can query.",
		Fields: graphql.Fields{
			"key":              &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: descriptorField(func(d registry.Descriptor) any { return d.Key })},
			"queryName":        &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: descriptorField(func(d registry.Descriptor) any { return d.QueryName })},
			"description":      &graphql.Field{Type: graphql.String, Resolve: descriptorField(func(d registry.Descriptor) any { return d.Description })},
			"fields":           &graphql.Field{Type: stringList(), Resolve: descriptorField(func(d registry.Descriptor) any { return d.Fields })},
			"numericFields":    &graphql.Field{Type: stringList(), Resolve: descriptorField(func(d registry.Descriptor) any { return d.NumericFields })},
			"filterInputType":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: descriptorField(func(d registry.Descriptor) any { return d.FilterInputType })},
			"orderByInputType": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: descriptorField(func(d registry.Descriptor) any { return d.OrderByInputType })},
			"tools": &graphql.Field{
				Type: stringList(),
				Resolve: descriptorField(func(d registry.Descriptor) any {
					if names := toolsByResolver[d.Key]; names != nil {
						return names
					}
					return []string{}
				}),
			},
			"previewQuery": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "The unfiltered query the builder sends for this resolver.",
				Args: graphql.FieldConfigArgument{
					"first": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPreviewSize},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					d, ok := p.Source.(registry.Descriptor)
					if !ok {
						return nil, fmt.Errorf("unexpected source %T", p.Source)
					}
					first, _ := p.Args["first"].(int)
					q, err := builder.Build(d.Key, querybuilder.Params{First: first})
					if err != nil {
						return nil, err
					}
					return q.Text, nil
				},
			},
		},
	})

	toolType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Tool",
		Description: "An MCP tool exposed by this server.",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: toolField(func(s tools.Spec) any { return s.Name })},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: toolField(func(s tools.Spec) any { return s.Title })},
			"summary":     &graphql.Field{Type: graphql.String, Resolve: toolField(func(s tools.Spec) any { return s.Summary })},
			"parameters":  &graphql.Field{Type: stringList(), Resolve: toolField(func(s tools.Spec) any { return s.Parameters() })},
			"resolverKey": &graphql.Field{Type: graphql.String, Resolve: toolField(func(s tools.Spec) any { return nullable(s.Profile.Resolver) })},
			"resolver": &graphql.Field{
				Type: resolverType,
				Resolve: toolField(func(s tools.Spec) any {
					if s.Kind != tools.KindResolver {
						return nil
					}
					d, err := reg.Lookup(s.Profile.Resolver)
					if err != nil {
						return nil
					}
					return d
				}),
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"resolvers": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(resolverType))),
				Resolve: func(graphql.ResolveParams) (any, error) {
					return reg.All(), nil
				},
			},
			"resolver": &graphql.Field{
				Type: resolverType,
				Args: graphql.FieldConfigArgument{
					"key": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					key, _ := p.Args["key"].(string)
					return reg.Lookup(key)
				},
			},
			"tools": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(toolType))),
				Resolve: func(graphql.ResolveParams) (any, error) {
					return entries, nil
				},
			},
			"tool": &graphql.Field{
				Type: toolType,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Args["name"].(string)
					for _, e := range entries {
						if e.spec.Name == name {
							return e, nil
						}
					}
					return nil, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog schema: %w", err)
	}

	c := &Catalog{schema: schema}
	c.handler = handler.New(&handler.Config{
		Schema:   &c.schema,
		Pretty:   true,
		GraphiQL: cfg.GraphiQL,
	})
	return c, nil
}

// Schema returns the compiled schema.
func (c *Catalog) Schema() *graphql.Schema {
	return &c.schema
}

// ServeHTTP serves GraphQL over HTTP. Only queries are defined.
func (c *Catalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ContextHandler(r.Context(), w, r)
}

// Do executes a catalog query in process.
func (c *Catalog) Do(ctx context.Context, query string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:        c.schema,
		RequestString: query,
		Context:       ctx,
	})
}

func stringList() graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))
}

func descriptorField(get func(registry.Descriptor) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		d, ok := p.Source.(registry.Descriptor)
		if !ok {
			return nil, fmt.Errorf("unexpected source %T", p.Source)
		}
		return get(d), nil
	}
}

func toolField(get func(tools.Spec) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		e, ok := p.Source.(toolEntry)
		if !ok {
			return nil, fmt.Errorf("unexpected source %T", p.Source)
		}
		return get(e.spec), nil
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
