package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"trade-graphql-mcp/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenAuthMiddleware(t *testing.T) {
	mw, err := AdminTokenAuthMiddleware(AdminTokenAuthConfig{Token: " secret-token "})
	require.NoError(t, err)

	var seen AuthContext
	var authenticated bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, authenticated = AuthFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{defaultAdminTokenHeader: "wrong-token"}, http.StatusUnauthorized},
		{"prefix of token", map[string]string{defaultAdminTokenHeader: "secret"}, http.StatusUnauthorized},
		{"admin header", map[string]string{defaultAdminTokenHeader: "secret-token"}, http.StatusNoContent},
		{"bearer header", map[string]string{"Authorization": "Bearer secret-token"}, http.StatusNoContent},
		{"basic header", map[string]string{"Authorization": "Basic secret-token"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticated = false
			req := httptest.NewRequest(http.MethodPost, "/admin/verify-resolvers", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
				assert.False(t, authenticated)
				return
			}
			require.True(t, authenticated)
			assert.Equal(t, "admin_token", seen.Subject)
			assert.Equal(t, "admin_token", seen.Claims["auth_method"])
		})
	}
}

func TestAdminTokenAuthMiddleware_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	mw, err := AdminTokenAuthMiddleware(AdminTokenAuthConfig{Token: "secret-token", HeaderName: "X-Ops-Token"})
	require.NoError(t, err)
	handler := LoggingMiddleware(bufferLogger(&buf))(mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/admin/verify-resolvers", nil)
	req.Header.Set(defaultAdminTokenHeader, "secret-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), `"reason":"missing_token"`)

	req = httptest.NewRequest(http.MethodPost, "/admin/verify-resolvers", nil)
	req.Header.Set("X-Ops-Token", "secret-token")
	rec = httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, req.WithContext(logging.WithLogger(req.Context(), logging.Discard())))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminTokenAuthMiddleware_RequiresTokenConfig(t *testing.T) {
	_, err := AdminTokenAuthMiddleware(AdminTokenAuthConfig{Token: "   "})
	assert.Error(t, err)
}
