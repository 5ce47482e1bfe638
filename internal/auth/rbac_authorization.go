package auth

import (
	"net/http"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/Lap-DevOps/Organizational-Chart/pkg/logger"
)

// RBACAuthorization gates routes on the principal's role. It must run after AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: baseHandler}
}

// Allowed reports whether principal holds one of roles.
func Allowed(principal *internal.Principal, roles ...user.Role) bool {
	role, ok := user.ParseRole(principal.Role)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, roles ...user.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := internal.PrincipalFromContext(r.Context())
		if !ok {
			ra.WriteAppError(w, r, internal.ErrMissingToken)
			return
		}

		if !Allowed(principal, roles...) {
			logger.From(r.Context()).WarnContext(r.Context(), "access denied: insufficient role",
				"role", principal.Role,
				"required_roles", roles)
			ra.WriteAppError(w, r, internal.ErrInsufficientRole)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

// RequireDirectoryReader admits roles allowed to browse the user directory.
func (ra *RBACAuthorization) RequireDirectoryReader() func(http.Handler) http.Handler {
	return ra.RequireRoles(user.RoleAdmin, user.RoleHR)
}
