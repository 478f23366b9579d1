// Package verification answers "is this credential genuine, and is its
// issuer still in good standing?".
//
// The service holds no state. Every verdict is computed from the
// credential store and the registry at query time, and the two axes are
// reported separately:
//
//	Verified             — the stored record is internally consistent
//	UniversityAuthorized — the issuer's current authorization flag
//
// Revoking a university therefore never requires rewriting the degrees it
// issued.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/degree-registry/internal/metrics"
	"github.com/aanand-mishra/degree-registry/internal/payload"
	"github.com/aanand-mishra/degree-registry/internal/types"
)

// Stores is the read-only view the verifier needs.
type Stores interface {
	GetDegree(ctx context.Context, credentialID string) (types.Degree, error)
	GetUniversityByID(ctx context.Context, id string) (types.University, error)
}

// Service implements Verify.
type Service struct {
	store   Stores
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New creates a verification service.
func New(store Stores, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{store: store, metrics: m, log: log}
}

// Verify accepts either a raw credential id or a scanned payload.
//
// Errors: types.ErrMalformed when a payload fails its checksum (checked
// before any lookup), types.ErrNotFound when no degree has the id.
func (s *Service) Verify(ctx context.Context, idOrPayload string) (types.VerificationResult, error) {
	credentialID := strings.TrimSpace(idOrPayload)

	if payload.IsPayload(credentialID) {
		id, err := payload.Decode(credentialID)
		if err != nil {
			s.record(metrics.ResultMalformed)
			return types.VerificationResult{}, err
		}
		credentialID = id
	}
	if credentialID == "" {
		s.record(metrics.ResultNotFound)
		return types.VerificationResult{}, fmt.Errorf("empty credential id: %w", types.ErrNotFound)
	}

	degree, err := s.store.GetDegree(ctx, credentialID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.record(metrics.ResultNotFound)
			return types.VerificationResult{}, err
		}
		s.record(metrics.ResultStoreError)
		return types.VerificationResult{}, fmt.Errorf("verify: load degree: %w", err)
	}

	universityName := degree.UniversityName
	authorized := false

	uni, err := s.store.GetUniversityByID(ctx, degree.UniversityID)
	switch {
	case err == nil:
		universityName = uni.Name
		authorized = uni.Authorized
	case errors.Is(err, types.ErrNotFound):
		// An issuer that no longer exists cannot be authorized.
		s.log.Warn("issuing university missing",
			slog.String("credential_id", degree.CredentialID),
			slog.String("university_id", degree.UniversityID))
	default:
		s.record(metrics.ResultStoreError)
		return types.VerificationResult{}, fmt.Errorf("verify: load university: %w", err)
	}

	result := types.VerificationResult{
		CredentialID:         degree.CredentialID,
		StudentName:          degree.StudentName,
		StudentWalletAddress: degree.StudentWalletAddress,
		Course:               degree.Course,
		University:           universityName,
		GraduationYear:       degree.GraduationYear,
		MintedAt:             degree.MintedAt,
		Verified:             consistent(degree),
		UniversityAuthorized: authorized,
	}

	switch {
	case !result.Verified:
		s.record(metrics.ResultTampered)
		s.log.Warn("stored payload does not match credential",
			slog.String("credential_id", degree.CredentialID))
	case !result.UniversityAuthorized:
		s.record(metrics.ResultRevoked)
	default:
		s.record(metrics.ResultValid)
	}

	return result, nil
}

// consistent reports whether the stored payload decodes back to the
// degree's own credential id.
func consistent(d types.Degree) bool {
	id, err := payload.Decode(d.Payload)
	return err == nil && id == d.CredentialID
}

func (s *Service) record(result string) {
	s.metrics.Verifications.WithLabelValues(result).Inc()
}
