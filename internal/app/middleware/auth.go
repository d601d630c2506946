package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/core/ports"
	"github.com/thushan/lmsgate/internal/util"
)

const (
	DetailNotAuthenticated = "Not authenticated"
	DetailAccessProhibited = "Access prohibited"

	PrincipalKey contextKey = constants.ContextPrincipalKey
)

// GetPrincipal returns the caller attached by RequireRole
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok
}

// BearerToken extracts the token from an Authorization header, the scheme
// is matched case-insensitively
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireRole admits callers whose key carries at least the required role.
// Unknown callers get 401, known callers without the role get 403.
func RequireRole(authenticator ports.Authenticator, required domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := GetLogger(r.Context())

			principal, ok := authenticator.Authenticate(BearerToken(r.Header.Get(constants.HeaderAuthorization)))
			if !ok {
				log.Warn("Rejected unauthenticated request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				w.Header().Set(constants.HeaderWWWAuthenticate, "Bearer")
				util.WriteDetail(w, http.StatusUnauthorized, DetailNotAuthenticated)
				return
			}

			if !principal.Role.Allows(required) {
				log.Warn("Rejected request lacking role",
					"path", r.URL.Path,
					"principal", principal.Name,
					"role", principal.Role,
					"required", required)
				util.WriteDetail(w, http.StatusForbidden, DetailAccessProhibited)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
