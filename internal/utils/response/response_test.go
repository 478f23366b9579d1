package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/degree-registry/internal/types"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", types.NewValidationError("field course is required"), http.StatusBadRequest, CodeValidation},
		{"duplicate principal", types.ErrDuplicatePrincipal, http.StatusConflict, CodeDuplicatePrincipal},
		{"duplicate identity", fmt.Errorf("wrap: %w", types.ErrDuplicateIdentity), http.StatusConflict, CodeDuplicateIdentity},
		{"unknown university", fmt.Errorf("university x: %w", types.ErrUnknownUniversity), http.StatusNotFound, CodeUnknownUniversity},
		{"not found", fmt.Errorf("no degree: %w", types.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"malformed", fmt.Errorf("checksum mismatch: %w", types.ErrMalformed), http.StatusUnprocessableEntity, CodeMalformed},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := FromError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, StatusError, body.Status)
		})
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	_, body := FromError(errors.New("sqlite: database is locked"))
	assert.NotContains(t, body.Error, "sqlite")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, types.ErrDuplicatePrincipal))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeDuplicatePrincipal, body.Code)
}
