// Package memory provides an in-process implementation of storage.Storage.
// It is used by tests and by the "memory" storage driver for demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/types"
)

// InMemory keeps every table as a slice (insertion order) plus index maps
// for the unique keys. All unique checks happen under the write lock,
// together with the insert.
type InMemory struct {
	mu sync.RWMutex

	universities []types.University
	uniByID      map[string]int
	uniByAddr    map[string]int

	students      []types.Student
	studentByID   map[string]int
	studentWallet map[string]int
	studentNatlID map[string]int

	degrees    []types.Degree
	degreeByID map[string]int
}

var _ storage.Storage = (*InMemory)(nil)

// New creates an empty in-memory store.
func New() *InMemory {
	return &InMemory{
		uniByID:       make(map[string]int),
		uniByAddr:     make(map[string]int),
		studentByID:   make(map[string]int),
		studentWallet: make(map[string]int),
		studentNatlID: make(map[string]int),
		degreeByID:    make(map[string]int),
	}
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) Close() error { return nil }

func (s *InMemory) CreateUniversity(_ context.Context, u types.University) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.uniByAddr[u.PrincipalAddress]; exists {
		return types.ErrDuplicatePrincipal
	}
	if _, exists := s.uniByID[u.ID]; exists {
		return fmt.Errorf("university id %s already exists: %w", u.ID, types.ErrDuplicatePrincipal)
	}
	idx := len(s.universities)
	s.universities = append(s.universities, u)
	s.uniByID[u.ID] = idx
	s.uniByAddr[u.PrincipalAddress] = idx
	return nil
}

func (s *InMemory) GetUniversityByID(_ context.Context, id string) (types.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.uniByID[id]; ok {
		return s.universities[idx], nil
	}
	return types.University{}, fmt.Errorf("no university found with id %s: %w", id, types.ErrNotFound)
}

func (s *InMemory) GetUniversities(context.Context) ([]types.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.University, len(s.universities))
	copy(out, s.universities)
	return out, nil
}

func (s *InMemory) SetUniversityAuthorized(_ context.Context, id string, authorized bool) (types.University, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.uniByID[id]
	if !ok {
		return types.University{}, fmt.Errorf("no university found with id %s: %w", id, types.ErrNotFound)
	}
	s.universities[idx].Authorized = authorized
	return s.universities[idx], nil
}

func (s *InMemory) CreateStudent(_ context.Context, st types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.studentWallet[st.WalletAddress]; exists {
		return types.ErrDuplicateIdentity
	}
	if _, exists := s.studentNatlID[st.NationalID]; exists {
		return types.ErrDuplicateIdentity
	}
	if _, exists := s.studentByID[st.ID]; exists {
		return fmt.Errorf("student id %s already exists: %w", st.ID, types.ErrDuplicateIdentity)
	}
	idx := len(s.students)
	s.students = append(s.students, st)
	s.studentByID[st.ID] = idx
	s.studentWallet[st.WalletAddress] = idx
	s.studentNatlID[st.NationalID] = idx
	return nil
}

func (s *InMemory) GetStudentByID(_ context.Context, id string) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.studentByID[id]; ok {
		return s.students[idx], nil
	}
	return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, types.ErrNotFound)
}

func (s *InMemory) GetStudentByWallet(_ context.Context, wallet string) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.studentWallet[wallet]; ok {
		return s.students[idx], nil
	}
	return types.Student{}, fmt.Errorf("no student found with wallet %s: %w", wallet, types.ErrNotFound)
}

func (s *InMemory) GetStudents(context.Context) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Student, len(s.students))
	copy(out, s.students)
	return out, nil
}

// SaveDegree stores a copy of d. The optional grade pointers are cloned so
// a caller mutating its own value cannot change the stored record.
func (s *InMemory) SaveDegree(_ context.Context, d types.Degree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.degreeByID[d.CredentialID]; exists {
		return storage.ErrCredentialExists
	}
	if _, ok := s.uniByID[d.UniversityID]; !ok {
		return types.ErrUnknownUniversity
	}
	s.degreeByID[d.CredentialID] = len(s.degrees)
	s.degrees = append(s.degrees, cloneDegree(d))
	return nil
}

func (s *InMemory) GetDegree(_ context.Context, credentialID string) (types.Degree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.degreeByID[credentialID]; ok {
		return cloneDegree(s.degrees[idx]), nil
	}
	return types.Degree{}, fmt.Errorf("no degree found with credential id %s: %w", credentialID, types.ErrNotFound)
}

func (s *InMemory) GetDegrees(context.Context) ([]types.Degree, error) {
	return s.filterDegrees(func(types.Degree) bool { return true }), nil
}

func (s *InMemory) GetDegreesByStudentID(_ context.Context, studentID string) ([]types.Degree, error) {
	return s.filterDegrees(func(d types.Degree) bool { return d.StudentID == studentID }), nil
}

func (s *InMemory) GetDegreesByWallet(_ context.Context, wallet string) ([]types.Degree, error) {
	return s.filterDegrees(func(d types.Degree) bool { return d.StudentWalletAddress == wallet }), nil
}

func (s *InMemory) filterDegrees(keep func(types.Degree) bool) []types.Degree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Degree, 0)
	for _, d := range s.degrees {
		if keep(d) {
			out = append(out, cloneDegree(d))
		}
	}
	return out
}

func cloneDegree(d types.Degree) types.Degree {
	if d.SGPA != nil {
		v := *d.SGPA
		d.SGPA = &v
	}
	if d.CGPA != nil {
		v := *d.CGPA
		d.CGPA = &v
	}
	return d
}
