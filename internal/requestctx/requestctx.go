// Package requestctx carries request provenance (id and client address) through
// context so that audit records written deep in the domain can point back at the
// HTTP request or background job that caused them.
package requestctx

import "context"

type ctxKey struct{}

type Meta struct {
	RequestID string
	ClientIP  string
}

func With(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, ctxKey{}, meta)
}

func From(ctx context.Context) Meta {
	meta, _ := ctx.Value(ctxKey{}).(Meta)
	return meta
}

// ForJob tags ctx with a synthetic request id for background work.
func ForJob(ctx context.Context, jobType, runID string) context.Context {
	id := "job:" + jobType
	if runID != "" {
		id += ":" + runID
	}
	return With(ctx, Meta{RequestID: id})
}
