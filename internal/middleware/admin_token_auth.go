package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/observability"
)

const defaultAdminTokenHeader = "X-Admin-Token"

// AdminTokenAuthConfig controls shared-token authentication for the admin API.
type AdminTokenAuthConfig struct {
	Token string
	// HeaderName defaults to X-Admin-Token. "Authorization: Bearer <token>"
	// is accepted as well.
	HeaderName string
	Metrics    *observability.SecurityMetrics
}

// AdminTokenAuthMiddleware compares the presented token with the configured
// one in constant time.
func AdminTokenAuthMiddleware(cfg AdminTokenAuthConfig) (func(http.Handler) http.Handler, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("admin auth token is required")
	}
	headerName := strings.TrimSpace(cfg.HeaderName)
	if headerName == "" {
		headerName = defaultAdminTokenHeader
	}
	expected := sha256.Sum256([]byte(token))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get(headerName))
			if provided == "" {
				provided = bearerToken(r.Header.Get("Authorization"))
			}

			reason := ""
			switch {
			case provided == "":
				reason = "missing_token"
			case !tokenMatches(provided, expected):
				reason = "invalid_token"
			}
			cfg.Metrics.RecordAuthDecision(r.Context(), r.URL.Path, observability.AuthMethodAdminToken, reason)

			if reason != "" {
				logging.FromContext(r.Context()).Warn("admin authentication rejected",
					slog.String("reason", reason),
					slog.String("endpoint", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := WithAuthContext(r.Context(), AuthContext{
				Subject: observability.AuthMethodAdminToken,
				Issuer:  observability.AuthMethodAdminToken,
				Claims: map[string]interface{}{
					"auth_method": observability.AuthMethodAdminToken,
				},
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

func tokenMatches(provided string, expected [sha256.Size]byte) bool {
	digest := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(digest[:], expected[:]) == 1
}
