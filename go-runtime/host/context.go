package host

import (
	"context"
)

type contextKey struct{}

// ContextWithBridge returns a context carrying the Bridge.
func ContextWithBridge(ctx context.Context, b Bridge) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the Bridge carried by ctx.
//
// It panics if the context does not carry one, which only happens when a
// handler is called outside of a task invocation.
func FromContext(ctx context.Context) Bridge {
	b, ok := ctx.Value(contextKey{}).(Bridge)
	if !ok {
		panic("no host bridge in context")
	}
	return b
}
