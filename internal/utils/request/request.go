// Package request holds the request-side twin of package response.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps JSON request bodies. documentRef is only a reference,
// so legitimate bodies are tiny.
const maxBodyBytes = 1 << 20

// ErrEmptyBody is returned when the client sent no body at all.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes the request body into v. Unknown fields are rejected
// so a misspelt key ("cgpa " or "graduationYear") fails loudly instead of
// silently becoming a zero value.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}
