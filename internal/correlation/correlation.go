// Package correlation propagates a job-scoped correlation ID through
// context.Context so that every log line emitted while processing one
// scheduler job (a refresh or translation run for one sid) can be grepped
// together. This pipeline has no inbound HTTP request to tag, so the ID is
// minted by the scheduler when it dispatches a job instead of by a request
// handler.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const idKey contextKey = "correlation_id"

// FromContext retrieves the correlation ID, or "" if none was set.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(idKey).(string); ok {
		return id
	}
	return ""
}

// WithID attaches an explicit correlation ID to the context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// NewJobContext attaches a freshly minted correlation ID, used by the
// scheduler when it dispatches a Refresher or Orchestrator job.
func NewJobContext(ctx context.Context) context.Context {
	return WithID(ctx, uuid.New().String())
}
