// Package minting issues degree credentials.
//
// A mint validates the request, resolves the student and the issuing
// university through the registry stores, allocates a fresh credential
// id, derives the verification payload and persists the degree in one
// write. Nothing is written when any step before the write fails.
package minting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/degree-registry/internal/metrics"
	"github.com/aanand-mishra/degree-registry/internal/payload"
	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/types"
	"github.com/aanand-mishra/degree-registry/internal/validate"
)

// Graduation year bounds: [MinGraduationYear, current year + MaxYearsAhead].
const (
	MinGraduationYear = 2000
	MaxYearsAhead     = 10
)

// maxAllocAttempts bounds credential id allocation. A UUIDv4 collision is
// practically impossible; the loop only guards against a broken generator.
const maxAllocAttempts = 3

// Request is a mint request. Either StudentID, or both StudentName and
// StudentWalletAddress, must be present.
type Request struct {
	StudentID            string   `json:"student_id"`
	StudentName          string   `json:"student_name" validate:"required_without=StudentID"`
	StudentWalletAddress string   `json:"student_wallet_address" validate:"required_without=StudentID"`
	Course               string   `json:"course" validate:"required"`
	GraduationYear       int      `json:"graduation_year"`
	UniversityID         string   `json:"university_id" validate:"required"`
	SGPA                 *float64 `json:"sgpa,omitempty" validate:"omitempty,gte=0,lte=10"`
	CGPA                 *float64 `json:"cgpa,omitempty" validate:"omitempty,gte=0,lte=10"`
	DocumentRef          string   `json:"document_ref,omitempty"`
}

// Anchor is an optional external capability invoked after a degree has
// been persisted (for example, submitting a record to a ledger). Its
// result never affects the mint outcome or later verification.
type Anchor interface {
	AnchorDegree(ctx context.Context, d types.Degree) error
}

// Stores is the subset of storage the minting service touches.
type Stores interface {
	storage.UniversityStore
	storage.StudentStore
	storage.DegreeStore
}

// Service implements Mint and the degree read APIs.
type Service struct {
	store   Stores
	anchor  Anchor
	metrics *metrics.Metrics
	log     *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option customises a Service.
type Option func(*Service)

// WithAnchor registers a post-mint anchor.
func WithAnchor(a Anchor) Option {
	return func(s *Service) { s.anchor = a }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides credential id allocation (tests).
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a minting service. Without WithAnchor, degrees are only
// persisted locally.
func New(store Stores, m *metrics.Metrics, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.anchor == nil {
		s.log.Info("post-mint anchoring disabled: no anchor configured")
	}
	return s
}

// Mint validates req and persists a new degree. Errors:
//   - *types.ValidationError (errors.Is ErrValidation) for bad input or
//     an unknown student id
//   - types.ErrUnknownUniversity when req.UniversityID does not resolve
//
// The university's authorization flag is not consulted here; it is a
// live property evaluated at verification time.
func (s *Service) Mint(ctx context.Context, req Request) (types.Degree, error) {
	req = normalise(req)

	if err := s.validate(req); err != nil {
		s.reject("validation", err)
		return types.Degree{}, err
	}

	req, err := s.resolveStudent(ctx, req)
	if err != nil {
		s.reject("validation", err)
		return types.Degree{}, err
	}

	uni, err := s.store.GetUniversityByID(ctx, req.UniversityID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.reject("unknown_university", err)
			return types.Degree{}, fmt.Errorf("university %s: %w", req.UniversityID, types.ErrUnknownUniversity)
		}
		return types.Degree{}, fmt.Errorf("mint: resolve university: %w", err)
	}

	degree := types.Degree{
		StudentID:            req.StudentID,
		StudentName:          req.StudentName,
		StudentWalletAddress: req.StudentWalletAddress,
		Course:               req.Course,
		GraduationYear:       req.GraduationYear,
		UniversityID:         uni.ID,
		UniversityName:       uni.Name,
		SGPA:                 req.SGPA,
		CGPA:                 req.CGPA,
		DocumentRef:          req.DocumentRef,
		MintedAt:             s.now().UTC().Truncate(time.Microsecond),
	}

	degree, err = s.save(ctx, degree)
	if err != nil {
		return types.Degree{}, err
	}

	s.metrics.DegreesMinted.Inc()
	s.log.Info("degree minted",
		slog.String("credential_id", degree.CredentialID),
		slog.String("university_id", degree.UniversityID),
		slog.String("course", degree.Course))

	s.runAnchor(ctx, degree)
	return degree, nil
}

// save allocates a credential id, derives the payload and writes the
// degree, retrying allocation only when the id is already taken.
func (s *Service) save(ctx context.Context, d types.Degree) (types.Degree, error) {
	for attempt := 1; attempt <= maxAllocAttempts; attempt++ {
		d.CredentialID = s.newID()
		d.Payload = payload.Encode(d.CredentialID)

		err := s.store.SaveDegree(ctx, d)
		if err == nil {
			return d, nil
		}
		if errors.Is(err, storage.ErrCredentialExists) {
			s.log.Warn("credential id collision, allocating a new one",
				slog.String("credential_id", d.CredentialID),
				slog.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, types.ErrUnknownUniversity) {
			return types.Degree{}, fmt.Errorf("university %s: %w", d.UniversityID, types.ErrUnknownUniversity)
		}
		return types.Degree{}, fmt.Errorf("mint: save degree: %w", err)
	}
	return types.Degree{}, fmt.Errorf("mint: could not allocate a unique credential id after %d attempts", maxAllocAttempts)
}

func (s *Service) runAnchor(ctx context.Context, d types.Degree) {
	if s.anchor == nil {
		return
	}
	if err := s.anchor.AnchorDegree(ctx, d); err != nil {
		s.metrics.AnchorFailures.Inc()
		s.log.Error("anchoring degree failed",
			slog.String("credential_id", d.CredentialID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) validate(req Request) error {
	var fields []string

	if err := validate.Struct(req); err != nil {
		var verr *types.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		fields = append(fields, verr.Fields...)
	}

	maxYear := s.now().Year() + MaxYearsAhead
	if req.GraduationYear < MinGraduationYear || req.GraduationYear > maxYear {
		fields = append(fields, fmt.Sprintf("field graduation_year must be between %d and %d",
			MinGraduationYear, maxYear))
	}

	if len(fields) > 0 {
		return types.NewValidationError(fields...)
	}
	return nil
}

// resolveStudent fills the student fields from the registry.
//
// With a StudentID the student must exist; missing name or wallet are
// copied from the record and a different name or wallet is rejected.
// Without a StudentID, a registered wallet contributes its StudentID and
// the name must match the registered one.
func (s *Service) resolveStudent(ctx context.Context, req Request) (Request, error) {
	if req.StudentID == "" {
		st, err := s.store.GetStudentByWallet(ctx, req.StudentWalletAddress)
		switch {
		case err == nil:
			if req.StudentName != st.Name {
				return req, types.NewValidationError("field student_name does not match the student registered with this wallet")
			}
			req.StudentID = st.ID
		case !errors.Is(err, types.ErrNotFound):
			return req, fmt.Errorf("mint: resolve student wallet: %w", err)
		}
		return req, nil
	}

	st, err := s.store.GetStudentByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return req, types.NewValidationError(fmt.Sprintf("field student_id: unknown student %s", req.StudentID))
		}
		return req, fmt.Errorf("mint: resolve student: %w", err)
	}

	if req.StudentWalletAddress != "" && req.StudentWalletAddress != st.WalletAddress {
		return req, types.NewValidationError("field student_wallet_address does not match the registered student")
	}
	if req.StudentName != "" && req.StudentName != st.Name {
		return req, types.NewValidationError("field student_name does not match the registered student")
	}
	if req.StudentName == "" {
		req.StudentName = st.Name
	}
	req.StudentWalletAddress = st.WalletAddress
	return req, nil
}

func (s *Service) reject(reason string, err error) {
	s.metrics.MintRejected.WithLabelValues(reason).Inc()
	s.log.Info("mint rejected",
		slog.String("reason", reason),
		slog.String("error", err.Error()))
}

func normalise(req Request) Request {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.StudentWalletAddress = strings.TrimSpace(req.StudentWalletAddress)
	req.Course = strings.TrimSpace(req.Course)
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	req.DocumentRef = strings.TrimSpace(req.DocumentRef)
	return req
}

// GetDegree returns types.ErrNotFound for an unknown credential id.
func (s *Service) GetDegree(ctx context.Context, credentialID string) (types.Degree, error) {
	return s.store.GetDegree(ctx, credentialID)
}

// ListDegrees returns every degree in mint order.
func (s *Service) ListDegrees(ctx context.Context) ([]types.Degree, error) {
	return s.store.GetDegrees(ctx)
}

func (s *Service) ListDegreesByStudent(ctx context.Context, studentID string) ([]types.Degree, error) {
	return s.store.GetDegreesByStudentID(ctx, studentID)
}

func (s *Service) ListDegreesByWallet(ctx context.Context, wallet string) ([]types.Degree, error) {
	return s.store.GetDegreesByWallet(ctx, wallet)
}
