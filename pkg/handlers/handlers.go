// Package handlers provides JSON response helpers shared by HTTP handlers.
// Every response body uses the same envelope so clients can branch on success.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the response body written by every API endpoint.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondData writes a successful envelope carrying data and an optional message.
func RespondData(w http.ResponseWriter, status int, message string, data any) {
	RespondJSON(w, status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondError logs err and writes a failed envelope. Server faults keep
// their detail in the error field while the message stays generic.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	env := Envelope{Success: false}

	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "error", err)
		env.Message = http.StatusText(status)
		env.Error = err.Error()
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
		env.Message = err.Error()
	}

	RespondJSON(w, status, env)
}

// RespondValidation writes a 400 envelope listing field-level messages.
func RespondValidation(w http.ResponseWriter, logger *slog.Logger, message string, errs []string) {
	logger.Warn("validation failed", "errors", errs)
	RespondJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}
