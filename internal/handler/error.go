package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/middleware"
)

// ErrorCodeToHTTPStatus maps domain error codes onto HTTP statuses.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ESCHEMA, domain.EINTERNAL:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error envelope. Fields is populated for
// field-level validation failures so forms can highlight inputs.
type errorBody struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse writes a JSON error response from a domain error.
// Internal errors are logged with their full chain and hidden from the
// client; validation and reference errors pass their message through so
// the UI can show something actionable.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("code", code),
			slog.String("op", domain.ErrorOp(err)),
			slog.String("error", err.Error()))
	} else {
		logger.Debug("request rejected",
			slog.String("code", code),
			slog.String("error", err.Error()))
	}

	writeJSON(w, status, errorBody{
		Success: false,
		Code:    code,
		Message: domain.ErrorMessage(err),
		Fields:  domain.GetValidationFields(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// JSONResponse writes a success payload.
func JSONResponse(w http.ResponseWriter, status int, body any) {
	writeJSON(w, status, body)
}
