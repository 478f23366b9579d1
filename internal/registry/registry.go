// Package registry owns University and Student records.
//
// The service validates input, assigns identifiers and timestamps, and
// delegates uniqueness to the storage layer, which enforces it atomically
// with the insert. The service never checks "does this key exist?" before
// inserting: that would be a check-then-insert race.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/degree-registry/internal/metrics"
	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/types"
	"github.com/aanand-mishra/degree-registry/internal/validate"
)

// UniversityRequest is the input of RegisterUniversity.
type UniversityRequest struct {
	Name             string `json:"name" validate:"required"`
	PrincipalAddress string `json:"principal_address" validate:"required"`
}

// StudentRequest is the input of RegisterStudent.
//
// NationalID is a 12-digit numeric identifier (Aadhaar format).
type StudentRequest struct {
	Name          string `json:"name" validate:"required"`
	WalletAddress string `json:"wallet_address" validate:"required"`
	NationalID    string `json:"national_id" validate:"required,len=12,number"`
}

// NationalIDRequest is the input of CheckNationalID.
type NationalIDRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"national_id" validate:"required"`
}

// nationalIDFormat carries the same national id rule as StudentRequest.
type nationalIDFormat struct {
	NationalID string `json:"national_id" validate:"len=12,number"`
}

// Service implements the Registry operations.
type Service struct {
	universities storage.UniversityStore
	students     storage.StudentStore
	metrics      *metrics.Metrics
	log          *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides identifier allocation (tests).
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a registry service.
func New(universities storage.UniversityStore, students storage.StudentStore, m *metrics.Metrics, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		universities: universities,
		students:     students,
		metrics:      m,
		log:          log,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUniversity creates an authorized university. It fails with
// types.ErrDuplicatePrincipal if principalAddress is already registered.
func (s *Service) RegisterUniversity(ctx context.Context, name, principalAddress string) (types.University, error) {
	req := UniversityRequest{
		Name:             strings.TrimSpace(name),
		PrincipalAddress: strings.TrimSpace(principalAddress),
	}
	if err := validate.Struct(req); err != nil {
		return types.University{}, err
	}

	u := types.University{
		ID:               s.newID(),
		Name:             req.Name,
		PrincipalAddress: req.PrincipalAddress,
		Authorized:       true,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.universities.CreateUniversity(ctx, u); err != nil {
		if errors.Is(err, types.ErrDuplicatePrincipal) {
			s.metrics.RegistrationConflicts.WithLabelValues("principal").Inc()
			return types.University{}, types.ErrDuplicatePrincipal
		}
		return types.University{}, fmt.Errorf("register university: %w", err)
	}

	s.metrics.UniversitiesRegistered.Inc()
	s.log.Info("university registered",
		slog.String("id", u.ID),
		slog.String("principal_address", u.PrincipalAddress))
	return u, nil
}

// RegisterStudent creates a student. It fails with
// types.ErrDuplicateIdentity if the wallet or the national id is taken.
func (s *Service) RegisterStudent(ctx context.Context, name, walletAddress, nationalID string) (types.Student, error) {
	req := StudentRequest{
		Name:          strings.TrimSpace(name),
		WalletAddress: strings.TrimSpace(walletAddress),
		NationalID:    strings.TrimSpace(nationalID),
	}
	if err := validate.Struct(req); err != nil {
		return types.Student{}, err
	}

	st := types.Student{
		ID:            s.newID(),
		Name:          req.Name,
		WalletAddress: req.WalletAddress,
		NationalID:    req.NationalID,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.students.CreateStudent(ctx, st); err != nil {
		if errors.Is(err, types.ErrDuplicateIdentity) {
			s.metrics.RegistrationConflicts.WithLabelValues("identity").Inc()
			return types.Student{}, types.ErrDuplicateIdentity
		}
		return types.Student{}, fmt.Errorf("register student: %w", err)
	}

	s.metrics.StudentsRegistered.Inc()
	s.log.Info("student registered", slog.String("id", st.ID))
	return st, nil
}

// GetUniversity returns types.ErrNotFound for an unknown id.
func (s *Service) GetUniversity(ctx context.Context, id string) (types.University, error) {
	return s.universities.GetUniversityByID(ctx, id)
}

// ListUniversities returns universities in registration order.
func (s *Service) ListUniversities(ctx context.Context) ([]types.University, error) {
	return s.universities.GetUniversities(ctx)
}

// SetUniversityAuthorization is the governance hook: it revokes or
// restores a university's authorization. Degrees already issued are not
// touched; verification reads the new flag on the next query.
func (s *Service) SetUniversityAuthorization(ctx context.Context, id string, authorized bool) (types.University, error) {
	u, err := s.universities.SetUniversityAuthorized(ctx, id, authorized)
	if err != nil {
		return types.University{}, err
	}

	s.metrics.AuthorizationChanges.WithLabelValues(strconv.FormatBool(authorized)).Inc()
	s.log.Info("university authorization changed",
		slog.String("id", id),
		slog.Bool("authorized", authorized))
	return u, nil
}

func (s *Service) GetStudent(ctx context.Context, id string) (types.Student, error) {
	return s.students.GetStudentByID(ctx, id)
}

func (s *Service) GetStudentByWallet(ctx context.Context, wallet string) (types.Student, error) {
	return s.students.GetStudentByWallet(ctx, wallet)
}

func (s *Service) ListStudents(ctx context.Context) ([]types.Student, error) {
	return s.students.GetStudents(ctx)
}

// CheckNationalID checks that nationalID has the 12-digit format required
// at registration. A missing name or id is a validation error; a badly
// formatted id is reported as Verified=false.
func (s *Service) CheckNationalID(_ context.Context, name, nationalID string) (types.NationalIDCheck, error) {
	req := NationalIDRequest{
		Name:       strings.TrimSpace(name),
		NationalID: strings.TrimSpace(nationalID),
	}
	if err := validate.Struct(req); err != nil {
		return types.NationalIDCheck{}, err
	}

	if err := validate.Struct(nationalIDFormat{NationalID: req.NationalID}); err != nil {
		s.log.Info("national id check failed", slog.String("error", err.Error()))
		return types.NationalIDCheck{Verified: false, Message: "invalid national id"}, nil
	}

	return types.NationalIDCheck{
		Verified:   true,
		Name:       req.Name,
		NationalID: req.NationalID,
		Message:    "national id format verified",
	}, nil
}
