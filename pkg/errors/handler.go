package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the wire shape of a handled error.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler converts errors into HTTP responses and logs them.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler. With debug set, internal
// causes are included in responses.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the HTTP response for err.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	requestID := r.Header.Get("X-Request-ID")

	status := http.StatusInternalServerError
	resp := ErrorResponse{
		Error:     true,
		Type:      string(ErrorTypeInternal),
		Message:   "internal server error",
		RequestID: requestID,
	}

	if appErr := GetAppError(err); appErr != nil {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		resp.Type = string(appErr.Type)
		resp.Message = appErr.Message
		resp.Code = appErr.Code
		resp.Details = appErr.Details
	} else if h.debug {
		resp.Message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
