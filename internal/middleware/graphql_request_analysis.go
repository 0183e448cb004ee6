package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/observability"

	"go.opentelemetry.io/otel/trace"
)

// GraphQLRequestAnalysisMiddleware analyzes catalog GraphQL requests once,
// tags the request logger and span with the operation shape, and rejects
// documents that are not queries or that nest deeper than maxDepth.
// Requests without a document (the GraphiQL page) pass through untouched.
func GraphQLRequestAnalysisMiddleware(maxDepth int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var env gqlrequest.Envelope
			switch r.Method {
			case http.MethodGet:
				q := r.URL.Query()
				env = gqlrequest.Envelope{Query: q.Get("query"), OperationName: q.Get("operationName")}
			case http.MethodPost:
				decoded, err := gqlrequest.DecodeEnvelope(r)
				if err != nil {
					// Let the GraphQL handler report the malformed body.
					next.ServeHTTP(w, r)
					return
				}
				env = decoded
			}
			if env.Query == "" {
				next.ServeHTTP(w, r)
				return
			}

			analysis := gqlrequest.AnalyzeEnvelope(env)
			ctx := r.Context()
			trace.SpanFromContext(ctx).SetAttributes(observability.GraphQLSpanAttributes(analysis)...)
			logger := logging.FromContext(ctx)
			if fields := observability.GraphQLLogFields(ctx, analysis); len(fields) > 0 {
				logger = logger.WithFields(fields...)
				ctx = logging.WithLogger(ctx, logger)
			}

			if analysis.Err() == nil {
				var reason string
				switch {
				case analysis.OperationType != "query":
					reason = fmt.Sprintf("only query operations are supported, got %s", analysis.OperationType)
				case maxDepth > 0 && analysis.SelectionDepth > maxDepth:
					reason = fmt.Sprintf("selection depth %d exceeds the limit of %d", analysis.SelectionDepth, maxDepth)
				}
				if reason != "" {
					logger.Warn("catalog request rejected", slog.String("reason", reason))
					writeGraphQLError(w, http.StatusBadRequest, reason)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeGraphQLError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"message": message}},
	})
}
