// Package response writes JSON bodies for HTTP handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is returned by confirmation-only endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorResponse{Detail: detail})
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageResponse{Message: msg})
}

// NoContent writes 204 without a body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Validation writes field errors as a 400.
func Validation(w http.ResponseWriter, errs map[string][]string) {
	JSON(w, http.StatusBadRequest, errs)
}

// NotFound writes the standard 404 body.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found.")
}

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON body of at most MaxBodyBytes into v. On failure it
// writes the error response and returns false.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
			return false
		}
		Error(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}
