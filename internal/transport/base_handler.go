package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/pkg/logger"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a plain error envelope for failures that have no AppError.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Warn("http error", "status", status, "message", message)
	h.WriteJSON(w, status, internal.Response{Error: &internal.AppError{
		Type:       errorTypeFor(status),
		Code:       internal.ErrorCode(strings.ReplaceAll(strings.ToUpper(http.StatusText(status)), " ", "_")),
		Message:    message,
		StatusCode: status,
	}})
}

// WriteAppError renders err as the standard error envelope. Errors that are not
// AppErrors become a generic 500 and are logged with their cause.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("internal server error", err)
	}

	lg := logger.From(r.Context())
	if appErr.Type == internal.ErrorTypeInternal {
		lg.Error("request failed", "code", appErr.Code, "error", err)
	} else {
		lg.Info("request rejected", "code", appErr.Code, "detail", appErr.GetDetailedMessage())
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst. Numbers are kept as json.Number.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *internal.AppError {
	if r.Body == nil {
		return internal.NewValidationError("request body is required", internal.ErrCodeInvalidBody)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return internal.NewValidationError("request body is required", internal.ErrCodeInvalidBody)
		}
		return internal.NewValidationError(fmt.Sprintf("invalid request body: %v", err), internal.ErrCodeInvalidBody)
	}
	return nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

func errorTypeFor(status int) internal.ErrorType {
	switch {
	case status == http.StatusNotFound:
		return internal.ErrorTypeNotFound
	case status == http.StatusUnauthorized:
		return internal.ErrorTypeUnauthorized
	case status == http.StatusForbidden:
		return internal.ErrorTypeForbidden
	case status == http.StatusConflict:
		return internal.ErrorTypeConflict
	case status >= 500:
		return internal.ErrorTypeInternal
	default:
		return internal.ErrorTypeValidation
	}
}
