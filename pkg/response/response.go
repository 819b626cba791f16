// Package response writes the JSON envelope every endpoint returns.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every JSON response. Error carries the underlying
// cause of a failure next to the stable Message.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Write sends body with the given status code and returns the status actually
// written. A body that cannot be encoded is replaced by a 500 envelope.
func Write(w http.ResponseWriter, status int, body Envelope) int {
	body.Status = status
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(Envelope{
			Status:  status,
			Message: "Failed to encode response",
			Error:   err.Error(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(b, '\n')) //nolint:errcheck
	return status
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	Write(w, http.StatusOK, Envelope{Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusCreated, Envelope{Message: message, Data: data})
}

// Message sends a 200 with only a message.
func Message(w http.ResponseWriter, message string) {
	Write(w, http.StatusOK, Envelope{Message: message})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Message: message})
}

// ErrorWithCause sends a JSON error response carrying the cause string.
func ErrorWithCause(w http.ResponseWriter, status int, message, cause string) {
	Write(w, status, Envelope{Message: message, Error: cause})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, http.StatusUnprocessableEntity, Envelope{
		Message: "Validation failed",
		Errors:  errs,
	})
}

func Unauthorized(w http.ResponseWriter, cause string) {
	ErrorWithCause(w, http.StatusUnauthorized, "Unauthorized", cause)
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, "Too Many Requests")
}
