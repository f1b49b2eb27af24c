package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrportal/internal/domain/auth"
	"hrportal/internal/platform/logger"
)

// Auth resolves a bearer token into the request's UserContext. Requests without a
// valid token pass through anonymous; RequireAuth rejects them later.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				logger.FromContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				next.ServeHTTP(w, r)
				return
			}

			user := claims.User()
			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			ctx = logger.WithFields(ctx, map[string]any{"userId": user.UserID, "role": user.RoleName})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser places user in ctx the same way Auth does.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
