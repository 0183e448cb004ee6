package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(t *testing.T, cfg CORSConfig, method, origin string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := CORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/mcp", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, called
}

var inspectorCORS = CORSConfig{
	Enabled:        true,
	AllowedOrigins: []string{"https://inspector.example.com", " "},
	AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	AllowedHeaders: []string{"Content-Type", "Authorization", "Mcp-Session-Id", "Mcp-Protocol-Version"},
	MaxAge:         3600,
}

func TestCORSMiddleware_Disabled(t *testing.T) {
	rec, called := corsRequest(t, CORSConfig{Enabled: false}, http.MethodPost, "https://inspector.example.com")
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	rec, called := corsRequest(t, inspectorCORS, http.MethodPost, "https://inspector.example.com")

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://inspector.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	assert.Equal(t, "Mcp-Session-Id", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	rec, called := corsRequest(t, inspectorCORS, http.MethodOptions, "https://inspector.example.com")

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization, Mcp-Session-Id, Mcp-Protocol-Version", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	rec, called := corsRequest(t, inspectorCORS, http.MethodPost, "https://evil.example.com")
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec, called = corsRequest(t, inspectorCORS, http.MethodOptions, "https://evil.example.com")
	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSMiddleware_OriginAbsent(t *testing.T) {
	rec, called := corsRequest(t, inspectorCORS, http.MethodOptions, "")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_WildcardDropsCredentials(t *testing.T) {
	cfg := CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"https://inspector.example.com", "*"},
		AllowCredentials: true,
	}
	rec, _ := corsRequest(t, cfg, http.MethodPost, "https://anything.example.com")

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Vary"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_Credentials(t *testing.T) {
	cfg := inspectorCORS
	cfg.AllowCredentials = true
	rec, _ := corsRequest(t, cfg, http.MethodPost, "https://inspector.example.com")
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_ExposeHeaders(t *testing.T) {
	tests := []struct {
		name   string
		expose []string
		want   string
	}{
		{"session header added", []string{"X-Request-ID"}, "X-Request-ID, Mcp-Session-Id"},
		{"session header kept once", []string{"mcp-session-id", "X-Request-ID"}, "mcp-session-id, X-Request-ID"},
		{"empty", nil, "Mcp-Session-Id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := inspectorCORS
			cfg.ExposeHeaders = tt.expose
			rec, _ := corsRequest(t, cfg, http.MethodPost, "https://inspector.example.com")
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}
