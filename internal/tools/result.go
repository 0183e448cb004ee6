package tools

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/querybuilder"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/upstream"
)

// InputError is an argument the tool could not use.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// errorPayload is the text of an IsError result.
type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Hint    string `json:"hint,omitempty"`
}

// errorKind labels err for metrics, spans and audit rows.
func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var (
		inputErr    *InputError
		aggErr      *querybuilder.InvalidAggregationError
		resolverErr *registry.UnknownResolverError
		policyErr   *gqlrequest.PolicyError
	)
	switch {
	case errors.As(err, &aggErr), errors.As(err, &inputErr):
		return "input"
	case errors.As(err, &resolverErr):
		return "resolver"
	case errors.As(err, &policyErr):
		return "policy"
	}
	return upstream.ErrorKind(err)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(spec Spec, err error) *mcp.CallToolResult {
	payload := errorPayload{
		Error:   spec.Title + " query failed",
		Details: err.Error(),
		Hint:    spec.Hint,
	}
	b, mErr := json.Marshal(payload)
	if mErr != nil {
		b = []byte(`{"error":"` + spec.Name + ` failed"}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: true,
	}
}
