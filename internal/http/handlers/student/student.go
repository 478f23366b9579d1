// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a service.
// To inject dependencies we use a factory function that:
//  1. Accepts dependencies (the registry)
//  2. Returns a function with the exact signature the router needs
//
//	router.HandleFunc("POST /api/students", student.New(registry))
//
// New(registry) is called ONCE at startup; the returned func is called on
// EVERY incoming request.
//
// Students have no update or delete endpoint: their wallet address is
// copied into every degree minted for them.
package student

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
	RegisterStudent(ctx context.Context, name, walletAddress, nationalID string) (types.Student, error)
	GetStudent(ctx context.Context, id string) (types.Student, error)
	GetStudentByWallet(ctx context.Context, wallet string) (types.Student, error)
	ListStudents(ctx context.Context) ([]types.Student, error)
	CheckNationalID(ctx context.Context, name, nationalID string) (types.NationalIDCheck, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Registers a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Asha", "wallet_address": "ST2...", "national_id": "123456789012" }
//
// Success response (201 Created): the Student.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	409 Conflict     — wallet address or national id already registered
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("registering a student")

		var req registry.StudentRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		st, err := reg.RegisterStudent(r.Context(), req.Name, req.WalletAddress, req.NationalID)
		if err != nil {
			slog.Error("error registering student", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", st.ID))
		response.WriteJSON(w, http.StatusCreated, st)
	}
}

// GetByID handles GET /api/students/{id}
func GetByID(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		st, err := reg.GetStudent(r.Context(), id)
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, st)
	}
}

// GetByWallet handles GET /api/students/wallet/{wallet}
func GetByWallet(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := r.PathValue("wallet")
		slog.Info("getting a student by wallet", slog.String("wallet", wallet))

		st, err := reg.GetStudentByWallet(r.Context(), wallet)
		if err != nil {
			slog.Error("error getting student",
				slog.String("wallet", wallet),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, st)
	}
}

// GetList handles GET /api/students
// Returns an empty array [] (not null) when there are no students.
func GetList(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := reg.ListStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// VerifyNationalID handles POST /api/students/verify-national-id
//
// Request body (JSON):
//
//	{ "name": "Asha", "national_id": "123456789012" }
//
// Success response (200 OK): { "verified": true|false, ... }. A badly
// formatted id is still a 200 with verified=false.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or a missing field
//
// ─────────────────────────────────────────────────────────────────────────────
func VerifyNationalID(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("checking a national id")

		var req registry.NationalIDRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		check, err := reg.CheckNationalID(r.Context(), req.Name, req.NationalID)
		if err != nil {
			slog.Error("error checking national id", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, check)
	}
}
