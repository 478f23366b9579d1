// Package university contains the HTTP handlers for the University resource.
//
// Handlers follow the closure / factory pattern: each exported function
// receives its dependencies once at startup and returns the
// http.HandlerFunc that serves every request.
//
//	router.HandleFunc("POST /api/universities", university.New(registry))
package university

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/degree-registry/internal/registry"
	"github.com/aanand-mishra/degree-registry/internal/types"
	"github.com/aanand-mishra/degree-registry/internal/utils/request"
	"github.com/aanand-mishra/degree-registry/internal/utils/response"
)

// Registry is the part of the registry service these handlers use.
type Registry interface {
	RegisterUniversity(ctx context.Context, name, principalAddress string) (types.University, error)
	GetUniversity(ctx context.Context, id string) (types.University, error)
	ListUniversities(ctx context.Context) ([]types.University, error)
	SetUniversityAuthorization(ctx context.Context, id string, authorized bool) (types.University, error)
}

// AuthorizationRequest is the body of PUT /api/universities/{id}/authorization.
// A pointer distinguishes "false" from "missing".
type AuthorizationRequest struct {
	Authorized *bool `json:"authorized"`
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/universities
//
// Request body (JSON):
//
//	{ "name": "BPUT", "principal_address": "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM" }
//
// Success response (201 Created): the University, with authorized=true.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	409 Conflict     — principal address already registered
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("registering a university")

		var req registry.UniversityRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		u, err := reg.RegisterUniversity(r.Context(), req.Name, req.PrincipalAddress)
		if err != nil {
			slog.Error("error registering university", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, u)
	}
}

// GetList handles GET /api/universities
// Returns universities in registration order; [] when there are none.
func GetList(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all universities")

		universities, err := reg.ListUniversities(r.Context())
		if err != nil {
			slog.Error("error getting universities", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, universities)
	}
}

// GetByID handles GET /api/universities/{id}
func GetByID(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a university", slog.String("id", id))

		u, err := reg.GetUniversity(r.Context(), id)
		if err != nil {
			slog.Error("error getting university",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, u)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// SetAuthorization handles PUT /api/universities/{id}/authorization
//
// Request body (JSON):
//
//	{ "authorized": false }
//
// Degrees already issued by the university are not modified; their next
// verification reports the new flag.
// ─────────────────────────────────────────────────────────────────────────────
func SetAuthorization(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("changing university authorization", slog.String("id", id))

		var req AuthorizationRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if req.Authorized == nil {
			response.WriteError(w, types.NewValidationError("field authorized is required"))
			return
		}

		u, err := reg.SetUniversityAuthorization(r.Context(), id, *req.Authorized)
		if err != nil {
			slog.Error("error changing university authorization",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, u)
	}
}
