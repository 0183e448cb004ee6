package gqlrequest

import "context"

type callMetaContextKey struct{}

// CallMeta identifies the tool call an upstream query belongs to. The
// upstream client uses it for log fields, span attributes and metric labels.
type CallMeta struct {
	Tool      string
	Resolver  string
	QueryHash string
}

// WithCallMeta stores call metadata in context.
func WithCallMeta(ctx context.Context, meta CallMeta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callMetaContextKey{}, meta)
}

// CallMetaFromContext retrieves call metadata from context.
func CallMetaFromContext(ctx context.Context) (CallMeta, bool) {
	if ctx == nil {
		return CallMeta{}, false
	}
	meta, ok := ctx.Value(callMetaContextKey{}).(CallMeta)
	return meta, ok
}
