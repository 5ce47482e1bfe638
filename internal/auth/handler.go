package auth

import (
	"net/http"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/transport"
	"github.com/Lap-DevOps/Organizational-Chart/pkg/logger"
)

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

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	if appErr := dto.Validate(); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so this only
// confirms the presented token is valid.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware requires a valid access token and puts its principal on the context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, r, internal.ErrMissingToken)
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), claims.Principal())
		ctx = logger.With(ctx, "user_public_id", claims.PublicID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthMiddleware attaches the principal when a bearer token is sent and lets
// anonymous requests through. A token that fails validation is still rejected.
func (h *Handler) OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.ExtractTokenFromHeader(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		h.AuthMiddleware(next).ServeHTTP(w, r)
	})
}
