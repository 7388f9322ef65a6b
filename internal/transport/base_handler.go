package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
	// ExposeErrors adds the cause of internal errors to responses. Never enable in production.
	ExposeErrors bool
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

// MessageResponse is the envelope used by mutating endpoints.
type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DataResponse is the envelope used by listing endpoints.
type DataResponse struct {
	Data  interface{} `json:"data"`
	Count *int64      `json:"count,omitempty"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response for failures that have no AppError behind them.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteAppError(w, &internal.AppError{
		Type:       errorTypeForStatus(status),
		Code:       internal.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))),
		Message:    message,
		StatusCode: status,
	})
}

// WriteAppError renders an AppError using its status code.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *internal.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", appErr.StatusCode, "code", appErr.Code, "error", appErr.Error())
	} else {
		h.Logger.Warn("http error", "status", appErr.StatusCode, "code", appErr.Code, "message", appErr.Message)
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps service errors to HTTP responses. Anything that is not an AppError is a 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		h.WriteAppError(w, appErr)
		return
	}

	internalErr := internal.NewInternalError("Internal server error", err)
	if h.ExposeErrors {
		internalErr = internalErr.WithDetails(map[string]string{"cause": err.Error()})
	}
	h.WriteAppError(w, internalErr)
}

// DecodeJSON decodes the request body into dst, rejecting malformed payloads.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return internal.ErrInvalidRequestBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.ErrInvalidRequestBody.WithCause(err)
	}
	return nil
}

// PathID parses a positive integer URL parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.ErrInvalidID.WithMessage("invalid " + name + ": " + raw)
	}
	return id, nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}

	return strings.TrimSpace(authHeader[7:])
}

func errorTypeForStatus(status int) internal.ErrorType {
	switch {
	case status == http.StatusUnauthorized:
		return internal.ErrorTypeUnauthorized
	case status == http.StatusForbidden:
		return internal.ErrorTypeForbidden
	case status == http.StatusNotFound:
		return internal.ErrorTypeNotFound
	case status == http.StatusConflict:
		return internal.ErrorTypeConflict
	case status >= http.StatusInternalServerError:
		return internal.ErrorTypeInternal
	default:
		return internal.ErrorTypeValidation
	}
}
