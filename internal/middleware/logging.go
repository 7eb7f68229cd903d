package middleware

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/daycare-ai/backend/pkg/logger"
)

// RequestLogger attaches base, tagged with the chi request id, to the
// request context. Install it after chimiddleware.RequestID.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := base
			if id := chimiddleware.GetReqID(ctx); id != "" {
				l = l.With("request_id", id)
			}
			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, l)))
		})
	}
}
