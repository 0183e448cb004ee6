package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 2048

// HTTPError is a non-2xx response from the gateway.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GraphQL HTTP Error %d", e.StatusCode)
	}
	return fmt.Sprintf("GraphQL HTTP Error %d: %s", e.StatusCode, e.Body)
}

// ErrorDetail is one entry of a GraphQL errors array.
type ErrorDetail struct {
	Message    string          `json:"message"`
	Path       []any           `json:"path,omitempty"`
	Locations  []Location      `json:"locations,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
}

// Location is a position in the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Code returns extensions.code, if present.
func (d ErrorDetail) Code() string {
	if len(d.Extensions) == 0 {
		return ""
	}
	var ext struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(d.Extensions, &ext); err != nil {
		return ""
	}
	return ext.Code
}

// GraphQLError is a response whose errors array is not empty.
type GraphQLError struct {
	Details []ErrorDetail
}

func (e *GraphQLError) Error() string {
	return "GraphQL Error: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the message of every error entry.
func (e *GraphQLError) Messages() []string {
	out := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		out = append(out, d.Message)
	}
	return out
}

// ErrorKind classifies err for metrics and audit rows.
func ErrorKind(err error) string {
	var httpErr *HTTPError
	var gqlErr *GraphQLError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &gqlErr):
		return "graphql"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	}
	return "transport"
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
