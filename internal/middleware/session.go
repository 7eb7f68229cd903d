// Package middleware provides HTTP middleware for the daycare API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
	"github.com/zhouzirui/daycare-ai/backend/pkg/logger"
	"github.com/zhouzirui/daycare-ai/backend/pkg/utils"
)

// Headers set by the upstream auth proxy.
const (
	UserIDHeader   = "X-User-Id"
	UserRoleHeader = "X-User-Role"
	UserNameHeader = "X-User-Name"
)

type contextKey int

const sessionKey contextKey = iota

// Session places the proxy-resolved identity on the request context and
// tags the request logger with it. Requests without a user id stay anonymous.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		session := &identity.Session{
			UserID:   userID,
			Role:     identity.ParseRole(r.Header.Get(UserRoleHeader)),
			UserName: strings.TrimSpace(r.Header.Get(UserNameHeader)),
		}
		ctx := WithSession(r.Context(), session)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", session.UserID, "role", session.Role.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the request session, or nil when anonymous.
func SessionFromContext(ctx context.Context) *identity.Session {
	if s, ok := ctx.Value(sessionKey).(*identity.Session); ok {
		return s
	}
	return nil
}

// RequireRoles rejects anonymous requests with 401 and sessions holding
// none of roles with 403.
func RequireRoles(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if !session.Authenticated() {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
		})
	}
}
