// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Services (registry, minting, verification) should not know or care
// which database they are talking to. By depending only on these
// interfaces:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero service changes.
//
//   - Writing tests = use the in-memory backend (storage/memory).
//     No database file needed for service and handler tests.
//
// UNIQUENESS CONTRACT
// ───────────────────
// Every Create/Save method must enforce its unique keys atomically with
// the insert. A caller never does "look up, then insert": two concurrent
// registrations with the same key must result in exactly one success and
// one duplicate error.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/degree-registry/internal/types"
)

// ErrCredentialExists is returned by SaveDegree when the credential id is
// already taken. The minting service reacts by allocating a fresh id.
var ErrCredentialExists = errors.New("credential id already exists")

// UniversityStore persists University records (part of the Registry).
type UniversityStore interface {
	// CreateUniversity inserts u. Returns types.ErrDuplicatePrincipal if
	// u.PrincipalAddress is already registered.
	CreateUniversity(ctx context.Context, u types.University) error

	// GetUniversityByID returns types.ErrNotFound if there is no such id.
	GetUniversityByID(ctx context.Context, id string) (types.University, error)

	// GetUniversities returns all universities in insertion order.
	// Returns an empty slice (not nil) if there are none.
	GetUniversities(ctx context.Context) ([]types.University, error)

	// SetUniversityAuthorized changes the only mutable university field
	// and returns the updated record.
	SetUniversityAuthorized(ctx context.Context, id string, authorized bool) (types.University, error)
}

// StudentStore persists Student records (part of the Registry).
type StudentStore interface {
	// CreateStudent inserts s. Returns types.ErrDuplicateIdentity if the
	// wallet address or the national id is already registered.
	CreateStudent(ctx context.Context, s types.Student) error

	GetStudentByID(ctx context.Context, id string) (types.Student, error)
	GetStudentByWallet(ctx context.Context, wallet string) (types.Student, error)
	GetStudents(ctx context.Context) ([]types.Student, error)
}

// DegreeStore is the Credential Store. Degrees are append-only: there is
// no update or delete method on purpose.
type DegreeStore interface {
	// SaveDegree inserts d as a single all-or-nothing write.
	// Returns ErrCredentialExists if d.CredentialID is taken.
	SaveDegree(ctx context.Context, d types.Degree) error

	// GetDegree returns types.ErrNotFound if no degree has this id.
	GetDegree(ctx context.Context, credentialID string) (types.Degree, error)

	// GetDegrees returns all degrees in insertion order.
	GetDegrees(ctx context.Context) ([]types.Degree, error)

	GetDegreesByStudentID(ctx context.Context, studentID string) ([]types.Degree, error)
	GetDegreesByWallet(ctx context.Context, wallet string) ([]types.Degree, error)
}

// Storage is everything the application needs from a backend.
type Storage interface {
	UniversityStore
	StudentStore
	DegreeStore

	// Ping reports whether the backend is reachable (used by /api/health).
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
