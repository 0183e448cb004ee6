package gqlrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Envelope is a GraphQL-over-HTTP request body. The trade gateway only
// accepts Query; OperationName and variables are captured so they can be
// rejected.
type Envelope struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName,omitempty"`
	VariablesRaw  json.RawMessage `json:"variables,omitempty"`
}

// HasVariables reports whether the envelope carries a non-null variables map.
func (e Envelope) HasVariables() bool {
	trimmed := bytes.TrimSpace(e.VariablesRaw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte("{}"))
}

// EncodeQuery builds the POST body for an inline-literal query.
func EncodeQuery(query string) ([]byte, error) {
	body, err := json.Marshal(Envelope{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GraphQL request: %w", err)
	}
	return body, nil
}

// DecodeEnvelope extracts the GraphQL payload from a POST request and rewinds
// the body so downstream handlers can read it again.
func DecodeEnvelope(r *http.Request) (Envelope, error) {
	if r == nil {
		return Envelope{}, fmt.Errorf("request is nil")
	}
	if r.Method != http.MethodPost {
		return Envelope{}, fmt.Errorf("GraphQL requests must use POST, got %s", r.Method)
	}
	if r.Body == nil {
		return Envelope{}, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return Envelope{}, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	contentType := r.Header.Get("Content-Type")
	mediaType, _, parseErr := mime.ParseMediaType(contentType)
	if parseErr != nil || mediaType == "" {
		mediaType = strings.TrimSpace(contentType)
	}

	if mediaType == "application/graphql" {
		return Envelope{Query: string(body)}, nil
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}, nil
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
