// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client (the
// QR code endpoint is the only exception). Rather than repeating the same
// three lines (set header, set status, encode JSON) in every handler, we
// centralise them here, together with the mapping from domain errors to
// HTTP status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aanand-mishra/degree-registry/internal/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a degree, a list, a verdict…).
// Error responses always look like:
//
//	{ "status": "error", "code": "validation", "error": "field course is required" }
//
// Code is a stable machine-readable kind; Error is for humans.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

// Status string constants — use these instead of raw string literals so
// a typo is caught by the compiler rather than silently sending "eroor".
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error codes sent in Response.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeValidation         = "validation"
	CodeDuplicatePrincipal = "duplicate_principal"
	CodeDuplicateIdentity  = "duplicate_identity"
	CodeUnknownUniversity  = "unknown_university"
	CodeNotFound           = "not_found"
	CodeMalformed          = "malformed"
	CodeInternal           = "internal"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
// Use this for request decoding problems.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Code:   CodeBadRequest,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// FromError maps a service error to an HTTP status and envelope.
//
//	ErrValidation          → 400 validation
//	ErrDuplicatePrincipal  → 409 duplicate_principal
//	ErrDuplicateIdentity   → 409 duplicate_identity
//	ErrUnknownUniversity   → 404 unknown_university
//	ErrNotFound            → 404 not_found
//	ErrMalformed           → 422 malformed
//	anything else          → 500 internal (message hidden from the client)
//
// ─────────────────────────────────────────────────────────────────────────────
func FromError(err error) (int, Response) {
	status, code := http.StatusInternalServerError, CodeInternal
	msg := "internal server error"

	switch {
	case errors.Is(err, types.ErrValidation):
		status, code, msg = http.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, types.ErrDuplicatePrincipal):
		status, code, msg = http.StatusConflict, CodeDuplicatePrincipal, types.ErrDuplicatePrincipal.Error()
	case errors.Is(err, types.ErrDuplicateIdentity):
		status, code, msg = http.StatusConflict, CodeDuplicateIdentity, types.ErrDuplicateIdentity.Error()
	case errors.Is(err, types.ErrUnknownUniversity):
		status, code, msg = http.StatusNotFound, CodeUnknownUniversity, err.Error()
	case errors.Is(err, types.ErrNotFound):
		status, code, msg = http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, types.ErrMalformed):
		status, code, msg = http.StatusUnprocessableEntity, CodeMalformed, err.Error()
	}

	return status, Response{Status: StatusError, Code: code, Error: msg}
}

// WriteError is WriteJSON(FromError(err)).
func WriteError(w http.ResponseWriter, err error) error {
	status, body := FromError(err)
	return WriteJSON(w, status, body)
}
