package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"hrportal/internal/platform/logger"
	"hrportal/internal/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an id (reusing a sane inbound X-Request-ID), records
// the client IP and attaches a request-scoped logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := requestctx.With(r.Context(), requestctx.Meta{RequestID: id, ClientIP: clientIPKey(r)})
		ctx = logger.WithFields(ctx, map[string]any{"requestId": id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.From(ctx).RequestID
}
