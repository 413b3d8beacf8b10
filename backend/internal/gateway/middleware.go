package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"schooladmin/backend/internal/auth"
	"schooladmin/backend/internal/gateway/util"
	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/shared"
)

// AdminChecker confirms that a token with the admin role still belongs to an admin
type AdminChecker interface {
	IsAdminUser(ctx context.Context, claims *auth.CustomClaims) bool
}

// AuthMiddleware verifies the bearer token and injects its claims into the
// request context.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Verify signature and expiry
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// 3. Inject claims into context
			next.ServeHTTP(w, r.WithContext(util.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin lets through admins and promoted students. It must run after
// AuthMiddleware.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := util.ClaimsFromContext(r.Context())
			if claims == nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !checker.IsAdminUser(r.Context(), claims) {
				util.WriteJSONError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole restricts a route group to tokens carrying one of roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := util.ClaimsFromContext(r.Context())
			if claims == nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !shared.OneOf(claims.Role, roles) {
				util.WriteJSONError(w, http.StatusForbidden, "You do not have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff restricts a route group to staff tokens
func RequireStaff() func(http.Handler) http.Handler {
	return RequireRole(shared.RoleStaff)
}

// RequestLogger writes one zerolog event per request
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := logger.Info()
			if status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
