// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is fast enough for a credential registry and trivial to set up.
//
// UNIQUENESS
// ──────────
// Every unique key (principal address, wallet address, national id,
// credential id) is a UNIQUE column. The engine checks the constraint
// inside the INSERT itself, so two concurrent registrations with the same
// key can never both succeed. We translate the driver's constraint error
// into the matching domain error in mapInsertError.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/degree-registry/internal/config"
	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/types"

	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// Schema notes:
//   - seq is an AUTOINCREMENT rowid used only for insertion ordering.
//   - id / credential_id are the public identifiers (UUID strings).
//   - degrees has no UPDATE or DELETE path anywhere in this package.
const schema = `
	CREATE TABLE IF NOT EXISTS universities (
		seq               INTEGER PRIMARY KEY AUTOINCREMENT,
		id                TEXT      NOT NULL UNIQUE,
		name              TEXT      NOT NULL,
		principal_address TEXT      NOT NULL UNIQUE,
		authorized        INTEGER   NOT NULL DEFAULT 1,
		created_at        TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS students (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		id             TEXT      NOT NULL UNIQUE,
		name           TEXT      NOT NULL,
		wallet_address TEXT      NOT NULL UNIQUE,
		national_id    TEXT      NOT NULL UNIQUE,
		created_at     TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS degrees (
		seq                    INTEGER PRIMARY KEY AUTOINCREMENT,
		credential_id          TEXT      NOT NULL UNIQUE,
		student_id             TEXT      NOT NULL,
		student_name           TEXT      NOT NULL,
		student_wallet_address TEXT      NOT NULL,
		course                 TEXT      NOT NULL,
		graduation_year        INTEGER   NOT NULL,
		university_id          TEXT      NOT NULL REFERENCES universities(id),
		university_name        TEXT      NOT NULL,
		sgpa                   REAL,
		cgpa                   REAL,
		document_ref           TEXT      NOT NULL,
		minted_at              TIMESTAMP NOT NULL,
		payload                TEXT      NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_degrees_student_id ON degrees(student_id);
	CREATE INDEX IF NOT EXISTS idx_degrees_wallet ON degrees(student_wallet_address);
`

// New opens the SQLite database at cfg.StoragePath, creates the tables if
// they do not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.StoragePath)
}

// Open is New without the config indirection (used by tests).
//
// The DSN turns on WAL so readers are not blocked by a writer, a busy
// timeout so concurrent writers wait instead of failing with SQLITE_BUSY,
// and foreign keys so a degree cannot reference a missing university.
func Open(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite.New: create storage dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Universities
// ─────────────────────────────────────────────────────────────────────────────

func (s *SQLite) CreateUniversity(ctx context.Context, u types.University) error {
	_, err := s.Db.ExecContext(ctx,
		"INSERT INTO universities (id, name, principal_address, authorized, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Name, u.PrincipalAddress, u.Authorized, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateUniversity: exec: %w", mapInsertError(err, types.ErrDuplicatePrincipal))
	}
	return nil
}

const universityColumns = "id, name, principal_address, authorized, created_at"

func scanUniversity(row interface{ Scan(...any) error }) (types.University, error) {
	var u types.University
	err := row.Scan(&u.ID, &u.Name, &u.PrincipalAddress, &u.Authorized, &u.CreatedAt)
	return u, err
}

func (s *SQLite) GetUniversityByID(ctx context.Context, id string) (types.University, error) {
	row := s.Db.QueryRowContext(ctx,
		"SELECT "+universityColumns+" FROM universities WHERE id = ? LIMIT 1", id)

	u, err := scanUniversity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.University{}, fmt.Errorf("no university found with id %s: %w", id, types.ErrNotFound)
		}
		return types.University{}, fmt.Errorf("GetUniversityByID: scan: %w", err)
	}
	return u, nil
}

func (s *SQLite) GetUniversities(ctx context.Context) ([]types.University, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT "+universityColumns+" FROM universities ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("GetUniversities: query: %w", err)
	}
	defer rows.Close()

	universities := make([]types.University, 0)
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, fmt.Errorf("GetUniversities: scan row: %w", err)
		}
		universities = append(universities, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetUniversities: rows iteration: %w", err)
	}
	return universities, nil
}

func (s *SQLite) SetUniversityAuthorized(ctx context.Context, id string, authorized bool) (types.University, error) {
	res, err := s.Db.ExecContext(ctx,
		"UPDATE universities SET authorized = ? WHERE id = ?", authorized, id)
	if err != nil {
		return types.University{}, fmt.Errorf("SetUniversityAuthorized: exec: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return types.University{}, fmt.Errorf("SetUniversityAuthorized: rows affected: %w", err)
	}
	if n == 0 {
		return types.University{}, fmt.Errorf("no university found with id %s: %w", id, types.ErrNotFound)
	}

	// Re-fetch the record so we return exactly what is stored in the DB.
	return s.GetUniversityByID(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

func (s *SQLite) CreateStudent(ctx context.Context, st types.Student) error {
	_, err := s.Db.ExecContext(ctx,
		"INSERT INTO students (id, name, wallet_address, national_id, created_at) VALUES (?, ?, ?, ?, ?)",
		st.ID, st.Name, st.WalletAddress, st.NationalID, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateStudent: exec: %w", mapInsertError(err, types.ErrDuplicateIdentity))
	}
	return nil
}

const studentColumns = "id, name, wallet_address, national_id, created_at"

func scanStudent(row interface{ Scan(...any) error }) (types.Student, error) {
	var st types.Student
	err := row.Scan(&st.ID, &st.Name, &st.WalletAddress, &st.NationalID, &st.CreatedAt)
	return st, err
}

func (s *SQLite) getStudentWhere(ctx context.Context, column, value string) (types.Student, error) {
	row := s.Db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE "+column+" = ? LIMIT 1", value)

	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with %s %s: %w", column, value, types.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudent: scan: %w", err)
	}
	return st, nil
}

func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	return s.getStudentWhere(ctx, "id", id)
}

func (s *SQLite) GetStudentByWallet(ctx context.Context, wallet string) (types.Student, error) {
	return s.getStudentWhere(ctx, "wallet_address", wallet)
}

func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT "+studentColumns+" FROM students ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}
	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Degrees
// ─────────────────────────────────────────────────────────────────────────────

// SaveDegree is a single INSERT, so the record is either fully visible
// or not visible at all.
func (s *SQLite) SaveDegree(ctx context.Context, d types.Degree) error {
	_, err := s.Db.ExecContext(ctx, `
		INSERT INTO degrees (
			credential_id, student_id, student_name, student_wallet_address,
			course, graduation_year, university_id, university_name,
			sgpa, cgpa, document_ref, minted_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.CredentialID, d.StudentID, d.StudentName, d.StudentWalletAddress,
		d.Course, d.GraduationYear, d.UniversityID, d.UniversityName,
		nullFloat(d.SGPA), nullFloat(d.CGPA), d.DocumentRef, d.MintedAt, d.Payload,
	)
	if err != nil {
		return fmt.Errorf("SaveDegree: exec: %w", mapInsertError(err, storage.ErrCredentialExists))
	}
	return nil
}

const degreeColumns = `credential_id, student_id, student_name, student_wallet_address,
	course, graduation_year, university_id, university_name,
	sgpa, cgpa, document_ref, minted_at, payload`

func scanDegree(row interface{ Scan(...any) error }) (types.Degree, error) {
	var (
		d          types.Degree
		sgpa, cgpa sql.NullFloat64
	)
	err := row.Scan(
		&d.CredentialID, &d.StudentID, &d.StudentName, &d.StudentWalletAddress,
		&d.Course, &d.GraduationYear, &d.UniversityID, &d.UniversityName,
		&sgpa, &cgpa, &d.DocumentRef, &d.MintedAt, &d.Payload,
	)
	if err != nil {
		return types.Degree{}, err
	}
	d.SGPA = floatPtr(sgpa)
	d.CGPA = floatPtr(cgpa)
	return d, nil
}

func (s *SQLite) GetDegree(ctx context.Context, credentialID string) (types.Degree, error) {
	row := s.Db.QueryRowContext(ctx,
		"SELECT "+degreeColumns+" FROM degrees WHERE credential_id = ? LIMIT 1", credentialID)

	d, err := scanDegree(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Degree{}, fmt.Errorf("no degree found with credential id %s: %w", credentialID, types.ErrNotFound)
		}
		return types.Degree{}, fmt.Errorf("GetDegree: scan: %w", err)
	}
	return d, nil
}

func (s *SQLite) GetDegrees(ctx context.Context) ([]types.Degree, error) {
	return s.queryDegrees(ctx, "SELECT "+degreeColumns+" FROM degrees ORDER BY seq")
}

func (s *SQLite) GetDegreesByStudentID(ctx context.Context, studentID string) ([]types.Degree, error) {
	return s.queryDegrees(ctx,
		"SELECT "+degreeColumns+" FROM degrees WHERE student_id = ? ORDER BY seq", studentID)
}

func (s *SQLite) GetDegreesByWallet(ctx context.Context, wallet string) ([]types.Degree, error) {
	return s.queryDegrees(ctx,
		"SELECT "+degreeColumns+" FROM degrees WHERE student_wallet_address = ? ORDER BY seq", wallet)
}

func (s *SQLite) queryDegrees(ctx context.Context, query string, args ...any) ([]types.Degree, error) {
	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetDegrees: query: %w", err)
	}
	defer rows.Close()

	degrees := make([]types.Degree, 0)
	for rows.Next() {
		d, err := scanDegree(rows)
		if err != nil {
			return nil, fmt.Errorf("GetDegrees: scan row: %w", err)
		}
		degrees = append(degrees, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetDegrees: rows iteration: %w", err)
	}
	return degrees, nil
}

// mapInsertError turns a UNIQUE violation into dup and a foreign key
// violation into types.ErrUnknownUniversity. Anything else is returned
// unchanged.
func mapInsertError(err error, dup error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return dup
	case sqlite3.ErrConstraintForeignKey:
		return types.ErrUnknownUniversity
	}
	return err
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
