// Package handlers implements the HTTP endpoints of the replacement API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/pubconcept/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps an error's code to an HTTP status and writes
// {"error": ErrorResponse} plus any extra top-level fields. Server-side
// failures are masked.
func writeAppError(w http.ResponseWriter, err error, extra map[string]interface{}) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code), Message: err.Error()}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		resp = ErrorResponse{Code: string(errors.ErrCodeInternal), Message: "internal server error"}
	}

	body := map[string]interface{}{"error": resp}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

//Personal.AI order the ending
