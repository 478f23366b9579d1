// Package degree contains the HTTP handlers for minting, listing and
// verifying degree credentials.
package degree

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/degree-registry/internal/minting"
	"github.com/aanand-mishra/degree-registry/internal/payload"
	"github.com/aanand-mishra/degree-registry/internal/types"
	"github.com/aanand-mishra/degree-registry/internal/utils/request"
	"github.com/aanand-mishra/degree-registry/internal/utils/response"
)

// Minter is the part of the minting service these handlers use.
type Minter interface {
	Mint(ctx context.Context, req minting.Request) (types.Degree, error)
	GetDegree(ctx context.Context, credentialID string) (types.Degree, error)
	ListDegrees(ctx context.Context) ([]types.Degree, error)
	ListDegreesByStudent(ctx context.Context, studentID string) ([]types.Degree, error)
	ListDegreesByWallet(ctx context.Context, wallet string) ([]types.Degree, error)
}

// Verifier is the verification service.
type Verifier interface {
	Verify(ctx context.Context, idOrPayload string) (types.VerificationResult, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Mint handles POST /api/degrees/mint
//
// Request body (JSON):
//
//	{
//	  "student_id": "…", "course": "B.Tech CS", "graduation_year": 2024,
//	  "university_id": "…", "cgpa": 8.5, "document_ref": "ipfs://…"
//	}
//
// student_name and student_wallet_address may replace student_id.
//
// Success response (201 Created): the Degree including credential_id and payload.
//
// Error responses:
//
//	400 Bad Request  — malformed JSON or failed validation
//	404 Not Found    — unknown university
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Mint(m Minter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("minting a degree")

		var req minting.Request
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		d, err := m.Mint(r.Context(), req)
		if err != nil {
			slog.Error("error minting degree", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, d)
	}
}

// GetList handles GET /api/degrees
func GetList(m Minter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all degrees")
		writeDegrees(w, "all")(m.ListDegrees(r.Context()))
	}
}

// GetByStudent handles GET /api/degrees/student/{studentId}
func GetByStudent(m Minter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := r.PathValue("studentId")
		slog.Info("getting degrees for student", slog.String("student_id", studentID))
		writeDegrees(w, studentID)(m.ListDegreesByStudent(r.Context(), studentID))
	}
}

// GetByWallet handles GET /api/degrees/wallet/{wallet}
func GetByWallet(m Minter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := r.PathValue("wallet")
		slog.Info("getting degrees for wallet", slog.String("wallet", wallet))
		writeDegrees(w, wallet)(m.ListDegreesByWallet(r.Context(), wallet))
	}
}

func writeDegrees(w http.ResponseWriter, filter string) func([]types.Degree, error) {
	return func(degrees []types.Degree, err error) {
		if err != nil {
			slog.Error("error getting degrees",
				slog.String("filter", filter),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, degrees)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Verify handles GET /api/degrees/verify/{id}
// {id} is either a raw credential id or a full payload ("<id>.<checksum>").
//
// Success response (200 OK):
//
//	{
//	  "credential_id": "…", "student_name": "Asha", "course": "B.Tech CS",
//	  "university": "BPUT", "graduation_year": 2024,
//	  "verified": true, "university_authorized": true, …
//	}
//
// Error responses:
//
//	404 Not Found            — no degree with this id
//	422 Unprocessable Entity — payload failed its checksum
//
// ─────────────────────────────────────────────────────────────────────────────
func Verify(v Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verify(w, r, v, r.PathValue("id"))
	}
}

// VerifyPayload handles GET /api/degrees/verify?payload=…
// This is the form a QR scanner produces.
func VerifyPayload(v Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Query().Get("payload")
		if p == "" {
			response.WriteError(w, types.NewValidationError("query parameter payload is required"))
			return
		}
		verify(w, r, v, p)
	}
}

func verify(w http.ResponseWriter, r *http.Request, v Verifier, input string) {
	slog.Info("verifying a degree", slog.String("input", input))

	result, err := v.Verify(r.Context(), input)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) && !errors.Is(err, types.ErrMalformed) {
			slog.Error("error verifying degree",
				slog.String("input", input),
				slog.String("error", err.Error()))
		}
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// QRCode handles GET /api/degrees/qrcode/{id}
// Responds with a PNG encoding the degree's payload.
func QRCode(m Minter, size int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("rendering degree qr code", slog.String("credential_id", id))

		d, err := m.GetDegree(r.Context(), id)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		png, err := payload.QRCode(d.Payload, size)
		if err != nil {
			slog.Error("error rendering qr code",
				slog.String("credential_id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(png); err != nil {
			slog.Error("error writing qr code",
				slog.String("credential_id", id),
				slog.String("error", err.Error()))
		}
	}
}
