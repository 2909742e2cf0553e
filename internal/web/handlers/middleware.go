package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/foodbridge/internal/lifecycle"
	"github.com/jredh-dev/foodbridge/internal/metrics"
	"github.com/jredh-dev/foodbridge/internal/token"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ActorContextKey stores the resolved (userId, role) pair in request context.
	ActorContextKey contextKey = "actor"
)

// AuthMiddleware requires a valid bearer token and attaches the resolved
// actor to the request context. 401 on a missing or invalid credential.
func AuthMiddleware(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				jsonError(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				jsonError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			actor := lifecycle.Actor{UserID: claims.UserID, Role: claims.Role}
			ctx := context.WithValue(r.Context(), ActorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts a route group to the given roles. MUST be used
// after AuthMiddleware so the actor is already in context.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				jsonError(w, "forbidden", http.StatusForbidden)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			jsonError(w, "forbidden", http.StatusForbidden)
		})
	}
}

// ActorFromContext extracts the authenticated actor from request context.
func ActorFromContext(ctx context.Context) (lifecycle.Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(lifecycle.Actor)
	return actor, ok
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records per-route request counts and durations.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		metrics.RequestCount.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.RequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
