// Package storagetest is a contract test suite run against every
// storage.Storage implementation.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/types"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.Storage

// Run executes the whole contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("University", func(t *testing.T) { universityContract(t, newStore) })
	t.Run("Student", func(t *testing.T) { studentContract(t, newStore) })
	t.Run("Degree", func(t *testing.T) { degreeContract(t, newStore) })
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// University builds a valid university with a random id.
func University(principal string) types.University {
	return types.University{
		ID:               uuid.NewString(),
		Name:             "University " + principal,
		PrincipalAddress: principal,
		Authorized:       true,
		CreatedAt:        now(),
	}
}

// Student builds a valid student with a random id.
func Student(wallet, nationalID string) types.Student {
	return types.Student{
		ID:            uuid.NewString(),
		Name:          "Student " + wallet,
		WalletAddress: wallet,
		NationalID:    nationalID,
		CreatedAt:     now(),
	}
}

// Degree builds a degree issued by uni to wallet.
func Degree(uni types.University, studentID, wallet string) types.Degree {
	cgpa := 8.5
	id := uuid.NewString()
	return types.Degree{
		CredentialID:         id,
		StudentID:            studentID,
		StudentName:          "Asha",
		StudentWalletAddress: wallet,
		Course:               "B.Tech CS",
		GraduationYear:       2024,
		UniversityID:         uni.ID,
		UniversityName:       uni.Name,
		CGPA:                 &cgpa,
		DocumentRef:          "ipfs://cert-" + id,
		MintedAt:             now(),
		Payload:              id + ".00000000",
	}
}

// AssertSameDegree compares two degrees field by field, using
// time.Equal for the timestamp.
func AssertSameDegree(t *testing.T, want, got types.Degree) {
	t.Helper()
	assert.True(t, want.MintedAt.Equal(got.MintedAt), "minted_at: want %v, got %v", want.MintedAt, got.MintedAt)
	want.MintedAt, got.MintedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}

func universityContract(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		u := University("ST1")
		require.NoError(t, s.CreateUniversity(ctx, u))

		got, err := s.GetUniversityByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Name, got.Name)
		assert.Equal(t, u.PrincipalAddress, got.PrincipalAddress)
		assert.True(t, got.Authorized)
		assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("duplicate principal rejected, first unaffected", func(t *testing.T) {
		s := newStore(t)
		first := University("ST1")
		require.NoError(t, s.CreateUniversity(ctx, first))

		second := University("ST1")
		second.Name = "Impostor"
		err := s.CreateUniversity(ctx, second)
		require.ErrorIs(t, err, types.ErrDuplicatePrincipal)

		got, err := s.GetUniversityByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Name, got.Name)

		_, err = s.GetUniversityByID(ctx, second.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)

		all, err := s.GetUniversities(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("principal match is case sensitive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateUniversity(ctx, University("st1abc")))
		require.NoError(t, s.CreateUniversity(ctx, University("ST1ABC")))
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		s := newStore(t)
		empty, err := s.GetUniversities(ctx)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		var ids []string
		for i := 0; i < 5; i++ {
			u := University(fmt.Sprintf("ST%d", 5-i))
			require.NoError(t, s.CreateUniversity(ctx, u))
			ids = append(ids, u.ID)
		}

		all, err := s.GetUniversities(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, u := range all {
			assert.Equal(t, ids[i], u.ID)
		}
	})

	t.Run("set authorized", func(t *testing.T) {
		s := newStore(t)
		u := University("ST1")
		require.NoError(t, s.CreateUniversity(ctx, u))

		got, err := s.SetUniversityAuthorized(ctx, u.ID, false)
		require.NoError(t, err)
		assert.False(t, got.Authorized)

		reread, err := s.GetUniversityByID(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, reread.Authorized)

		_, err = s.SetUniversityAuthorized(ctx, uuid.NewString(), false)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("get unknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetUniversityByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("concurrent duplicate principal, exactly one wins", func(t *testing.T) {
		s := newStore(t)
		const workers = 16

		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			dups      atomic.Int32
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.CreateUniversity(ctx, University("ST-RACE"))
				switch {
				case err == nil:
					successes.Add(1)
				case assert.ErrorIs(t, err, types.ErrDuplicatePrincipal):
					dups.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, successes.Load())
		assert.EqualValues(t, workers-1, dups.Load())
	})
}

func studentContract(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create and lookups", func(t *testing.T) {
		s := newStore(t)
		st := Student("ST2", "123456789012")
		require.NoError(t, s.CreateStudent(ctx, st))

		byID, err := s.GetStudentByID(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, st.WalletAddress, byID.WalletAddress)
		assert.Equal(t, st.NationalID, byID.NationalID)

		byWallet, err := s.GetStudentByWallet(ctx, "ST2")
		require.NoError(t, err)
		assert.Equal(t, st.ID, byWallet.ID)

		_, err = s.GetStudentByWallet(ctx, "nope")
		assert.ErrorIs(t, err, types.ErrNotFound)

		_, err = s.GetStudentByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("duplicate wallet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateStudent(ctx, Student("ST2", "123456789012")))
		err := s.CreateStudent(ctx, Student("ST2", "999999999999"))
		assert.ErrorIs(t, err, types.ErrDuplicateIdentity)
	})

	t.Run("duplicate national id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateStudent(ctx, Student("ST2", "123456789012")))
		err := s.CreateStudent(ctx, Student("ST3", "123456789012"))
		assert.ErrorIs(t, err, types.ErrDuplicateIdentity)

		all, err := s.GetStudents(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "ST2", all[0].WalletAddress)
	})

	t.Run("concurrent duplicate national id, exactly one wins", func(t *testing.T) {
		s := newStore(t)
		const workers = 16

		var (
			wg        sync.WaitGroup
			successes atomic.Int32
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.CreateStudent(ctx, Student(fmt.Sprintf("W%d", i), "111122223333"))
				if err == nil {
					successes.Add(1)
					return
				}
				assert.ErrorIs(t, err, types.ErrDuplicateIdentity)
			}(i)
		}
		wg.Wait()

		assert.EqualValues(t, 1, successes.Load())
	})
}

func degreeContract(t *testing.T, newStore Factory) {
	ctx := context.Background()

	setup := func(t *testing.T) (storage.Storage, types.University) {
		s := newStore(t)
		u := University("ST1")
		require.NoError(t, s.CreateUniversity(ctx, u))
		return s, u
	}

	t.Run("get after save returns identical record", func(t *testing.T) {
		s, u := setup(t)
		d := Degree(u, "student-1", "ST2")
		sgpa := 0.0
		d.SGPA = &sgpa
		require.NoError(t, s.SaveDegree(ctx, d))

		got, err := s.GetDegree(ctx, d.CredentialID)
		require.NoError(t, err)
		AssertSameDegree(t, d, got)
	})

	t.Run("optional fields stay empty", func(t *testing.T) {
		s, u := setup(t)
		d := Degree(u, "", "ST2")
		d.CGPA = nil
		d.DocumentRef = ""
		require.NoError(t, s.SaveDegree(ctx, d))

		got, err := s.GetDegree(ctx, d.CredentialID)
		require.NoError(t, err)
		assert.Nil(t, got.SGPA)
		assert.Nil(t, got.CGPA)
		assert.Empty(t, got.DocumentRef)
	})

	t.Run("credential id is never reused", func(t *testing.T) {
		s, u := setup(t)
		d := Degree(u, "student-1", "ST2")
		require.NoError(t, s.SaveDegree(ctx, d))

		again := Degree(u, "student-2", "ST9")
		again.CredentialID = d.CredentialID
		err := s.SaveDegree(ctx, again)
		require.ErrorIs(t, err, storage.ErrCredentialExists)

		got, err := s.GetDegree(ctx, d.CredentialID)
		require.NoError(t, err)
		AssertSameDegree(t, d, got)
	})

	t.Run("unknown university rejected", func(t *testing.T) {
		s, _ := setup(t)
		d := Degree(University("ghost"), "student-1", "ST2")
		err := s.SaveDegree(ctx, d)
		require.ErrorIs(t, err, types.ErrUnknownUniversity)

		_, err = s.GetDegree(ctx, d.CredentialID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("lists and filters keep insertion order", func(t *testing.T) {
		s, u := setup(t)

		a1 := Degree(u, "student-a", "WA")
		b1 := Degree(u, "student-b", "WB")
		a2 := Degree(u, "student-a", "WA")
		for _, d := range []types.Degree{a1, b1, a2} {
			require.NoError(t, s.SaveDegree(ctx, d))
		}

		all, err := s.GetDegrees(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, a1.CredentialID, all[0].CredentialID)
		assert.Equal(t, b1.CredentialID, all[1].CredentialID)
		assert.Equal(t, a2.CredentialID, all[2].CredentialID)

		byStudent, err := s.GetDegreesByStudentID(ctx, "student-a")
		require.NoError(t, err)
		require.Len(t, byStudent, 2)
		assert.Equal(t, a1.CredentialID, byStudent[0].CredentialID)
		assert.Equal(t, a2.CredentialID, byStudent[1].CredentialID)

		byWallet, err := s.GetDegreesByWallet(ctx, "WB")
		require.NoError(t, err)
		require.Len(t, byWallet, 1)
		assert.Equal(t, b1.CredentialID, byWallet[0].CredentialID)

		none, err := s.GetDegreesByWallet(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("get unknown", func(t *testing.T) {
		s, _ := setup(t)
		_, err := s.GetDegree(ctx, uuid.NewString())
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		s, _ := setup(t)
		assert.NoError(t, s.Ping(ctx))
	})
}
