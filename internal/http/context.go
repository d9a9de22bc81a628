package http

import (
	"context"
)

type contextKey string

const entryIDContextKey contextKey = "entry_id"

// ContextWithEntryID injects the schedule entry identifier resolved from the
// request path.
func ContextWithEntryID(ctx context.Context, entryID string) context.Context {
	return context.WithValue(ctx, entryIDContextKey, entryID)
}

// EntryIDFromContext extracts an entry identifier previously associated with
// the context.
func EntryIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(entryIDContextKey).(string)
	return id, ok
}
