package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

const actorHeader = "X-Actor"

type contextKey string

const ctxActor contextKey = "actor"

// Actor lifts the optional X-Actor header into the request context so
// mutations can be attributed in the audit trail.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxActor, actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the attributed actor, or nil when absent.
func ActorFromContext(ctx context.Context) *string {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxActor).(string); ok && v != "" {
		return &v
	}
	return nil
}
