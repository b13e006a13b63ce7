package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lotta/internal/model"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, status int, code, message string) {
	_ = WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// WriteValidationError writes a 400 with VALIDATION_ERROR code
func WriteValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// handleError maps ledger errors to HTTP responses. Internal details are
// logged, not returned.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *model.ValidationError
	var nf *model.NotFoundError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Error())
	case errors.As(err, &nf):
		WriteError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", nf.Error())
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
