package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// apiResponse is the envelope every API answer is wrapped in.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	// Code is a machine readable reason on some failures.
	Code string `json:"code,omitempty"`
}

// apiError is a failure already mapped to an HTTP status.
type apiError struct {
	Status  int
	Message string
	Code    string
}

func (e *apiError) Error() string { return e.Message }

func badRequest(msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Message: msg}
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, apiResponse{Success: true, Data: data, Message: msg})
}

// writeError maps err to a status and writes the failure envelope. Server
// errors are logged and their detail is kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
	}
	writeJSON(w, ae.Status, apiResponse{Success: false, Message: ae.Message, Code: ae.Code})
}

func toAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return &apiError{Status: http.StatusNotFound, Message: err.Error(), Code: "NOT_FOUND"}
	case errors.Is(err, core.ErrCategoryHasItems):
		return &apiError{
			Status:  http.StatusBadRequest,
			Message: "Category has items. Please specify what to do with them.",
			Code:    "CATEGORY_HAS_ITEMS",
		}
	case errors.Is(err, core.ErrDefaultCategory):
		return &apiError{Status: http.StatusBadRequest, Message: err.Error(), Code: "DEFAULT_CATEGORY"}
	case errors.Is(err, core.ErrDuplicateCategory):
		return &apiError{Status: http.StatusConflict, Message: err.Error(), Code: "DUPLICATE_CATEGORY"}
	case errors.Is(err, core.ErrTypeMismatch):
		return &apiError{Status: http.StatusBadRequest, Message: err.Error(), Code: "TYPE_MISMATCH"}
	case isValidation(err):
		return badRequest(err.Error())
	default:
		return &apiError{Status: http.StatusInternalServerError, Message: "Internal server error"}
	}
}

var validationErrors = []error{
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidCategoryType,
	core.ErrInvalidItemType,
	core.ErrInvalidRepeat,
	core.ErrInvalidPeriodKind,
	services.ErrInvalidDeletePolicy,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
