// ABOUTME: Context plumbing for per-request tool state
// ABOUTME: The engine injects the active thread key; thread-scoped tools read it
package tools

import "context"

// threadKeyKey is an unexported context key for zero-allocation type safety.
type threadKeyKey struct{}

// ContextWithThreadKey stores the active thread key in the context. The
// orchestration loop sets this before dispatching tool calls so
// thread-scoped tools (document retrieval) operate on the right thread.
func ContextWithThreadKey(ctx context.Context, threadKey string) context.Context {
	return context.WithValue(ctx, threadKeyKey{}, threadKey)
}

// ThreadKeyFromContext retrieves the active thread key, or "" if unset.
func ThreadKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(threadKeyKey{}).(string)
	return key
}
