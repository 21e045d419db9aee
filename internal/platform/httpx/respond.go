// Package httpx provides the uniform JSON response envelope used by all
// API handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body shape shared by every endpoint.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Meta    any          `json:"meta,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError carries a single field-level validation issue.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON sends a raw JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK sends a success envelope.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// OKMessage sends a success envelope with a message and no data.
func OKMessage(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: true, Message: message})
}

// Paginated sends a success envelope with list data and pagination metadata.
func Paginated(w http.ResponseWriter, data, meta any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Meta: meta})
}

// Fail sends an error envelope.
func Fail(w http.ResponseWriter, status int, message string, fields ...FieldError) {
	JSON(w, status, Envelope{Success: false, Message: message, Errors: fields})
}

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
