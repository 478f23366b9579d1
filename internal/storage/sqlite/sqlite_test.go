package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/degree-registry/internal/config"
	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/storage/storagetest"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return openTemp(t)
	})
}

func TestNew_UsesStoragePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "from-config.db")
	s, err := New(&config.Config{StoragePath: path})
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
}

// Degrees survive a restart: the record read from a reopened file is the
// one that was written.
func TestDegreesPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")

	s, err := Open(path)
	require.NoError(t, err)

	u := storagetest.University("ST1")
	require.NoError(t, s.CreateUniversity(ctx, u))
	d := storagetest.Degree(u, "student-1", "ST2")
	require.NoError(t, s.SaveDegree(ctx, d))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetDegree(ctx, d.CredentialID)
	require.NoError(t, err)
	storagetest.AssertSameDegree(t, d, got)
}
