package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type ServiceAPI interface {
	Register(ctx context.Context, payload RegistrationPayload) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// Register handles POST /api/v1/user/. Anonymous callers may register Employee and
// Guest users; Admin and HR require an Admin principal.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegistrationPayload
	if appErr := h.DecodeJSON(r, &payload); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	if appErr := authorizeRoleAssignment(r, payload); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	u, err := h.Service.Register(r.Context(), payload)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/user/"+u.PublicID.String())
	h.WriteJSON(w, http.StatusCreated, u.ToResponse())
}

// ListUsers handles GET /api/v1/user/?limit=&offset=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := ClampPage(queryInt(r, "limit", DefaultListLimit), queryInt(r, "offset", 0))

	users, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp := UsersResponse{Users: make([]UserResponse, 0, len(users)), Limit: limit, Offset: offset}
	for _, u := range users {
		resp.Users = append(resp.Users, u.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /api/v1/user/{publicID}. Admin and HR may read anyone;
// other roles only themselves.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		h.WriteAppError(w, r, internal.ErrUserNotFound)
		return
	}

	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}
	if role, _ := ParseRole(principal.Role); role != RoleAdmin && role != RoleHR && principal.PublicID != publicID.String() {
		h.WriteAppError(w, r, internal.ErrInsufficientRole)
		return
	}

	u, err := h.Service.GetByPublicID(r.Context(), publicID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// GetCurrentUser handles GET /api/v1/users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// authorizeRoleAssignment lets only an Admin principal register Admin or HR users.
// Unparseable roles are left to ValidateRegistration.
func authorizeRoleAssignment(r *http.Request, payload RegistrationPayload) *internal.AppError {
	raw, _ := payload[FieldRole].(string)
	role, ok := ParseRole(raw)
	if !ok || !role.Elevated() {
		return nil
	}
	if principal, ok := internal.PrincipalFromContext(r.Context()); ok {
		if callerRole, _ := ParseRole(principal.Role); callerRole == RoleAdmin {
			return nil
		}
	}
	return internal.ErrInsufficientRole.WithMessage("Only an Admin may register Admin or HR users")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
