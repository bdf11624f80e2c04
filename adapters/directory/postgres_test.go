package directory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

const (
	selectProfileQuery = `(?s)^SELECT\s+id,\s*wallet_identity,.*FROM\s+profiles\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+wallet_identity\s*=\s*\$2\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+1$`
	insertProfileQuery = `(?s)^INSERT\s+INTO\s+profiles\s*\(collection,\s*wallet_identity,.*\)\s*VALUES\s*\(\$1,.*\$8\)\s*RETURNING\s+id$`
	updateProfileQuery = `(?s)^UPDATE\s+profiles\s+SET\s+name\s*=\s*\$1,.*WHERE\s+id\s*=\s*\$7\s+AND\s+collection\s*=\s*\$8$`
)

var profileColumns = []string{
	"id", "wallet_identity", "name", "email", "project", "description",
	"social_handle", "code_hosting_handle", "created_at",
}

func newDirectoryWithMock(t *testing.T) (*PostgresDirectory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresDirectory(db, "hh-2025").(*PostgresDirectory), mock
}

func TestPostgresDirectory_FindByWallet(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f := testFields()

	mock.ExpectQuery(selectProfileQuery).
		WithArgs("hh-2025", "Wk1").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"rec-1", "Wk1", f.Name, f.Email, f.Project, f.Description, f.SocialHandle, f.CodeHostingHandle, created,
		))

	p, err := d.FindByWallet(context.Background(), "Wk1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", p.ID)
	assert.Equal(t, f, p.ProfileFields)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectory_FindByWallet_NotFound(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	mock.ExpectQuery(selectProfileQuery).
		WithArgs("hh-2025", "Wk1").
		WillReturnError(sql.ErrNoRows)

	_, err := d.FindByWallet(context.Background(), "Wk1")
	assert.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestPostgresDirectory_FindByWallet_DBError(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	mock.ExpectQuery(selectProfileQuery).
		WithArgs("hh-2025", "Wk1").
		WillReturnError(errors.New("db down"))

	_, err := d.FindByWallet(context.Background(), "Wk1")
	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.ErrorContains(t, err, "db down")
}

func TestPostgresDirectory_Create(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	f := testFields()
	mock.ExpectQuery(insertProfileQuery).
		WithArgs("hh-2025", "Wk1", f.Name, f.Email, f.Project, f.Description, f.SocialHandle, f.CodeHostingHandle).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-9"))

	id, err := d.Create(context.Background(), "Wk1", f)
	require.NoError(t, err)
	assert.Equal(t, "rec-9", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectory_Create_UniqueViolation(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	mock.ExpectQuery(insertProfileQuery).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "profiles_collection_wallet_idx"`))

	_, err := d.Create(context.Background(), "Wk1", testFields())
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestPostgresDirectory_Update(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	f := testFields()
	mock.ExpectExec(updateProfileQuery).
		WithArgs(f.Name, f.Email, f.Project, f.Description, f.SocialHandle, f.CodeHostingHandle, "rec-1", "hh-2025").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Update(context.Background(), "rec-1", f))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectory_Update_Missing(t *testing.T) {
	d, mock := newDirectoryWithMock(t)
	mock.ExpectExec(updateProfileQuery).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, d.Update(context.Background(), "rec-x", testFields()), core.ErrProfileNotFound)
}

func TestRunMigrations_UsesSeam(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, RunMigrations(context.Background(), nil), "migration error: boom")
}

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	_, err := d.FindByWallet(ctx, "Wk1")
	require.ErrorIs(t, err, core.ErrProfileNotFound)

	f := testFields()
	id, err := d.Create(ctx, "Wk1", f)
	require.NoError(t, err)

	_, err = d.Create(ctx, "Wk1", f)
	assert.Error(t, err, "a second record for one wallet is refused")

	f.Project = "Renamed"
	require.NoError(t, d.Update(ctx, id, f))

	p, err := d.FindByWallet(ctx, "Wk1")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Renamed", p.Project)

	assert.ErrorIs(t, d.Update(ctx, "missing", f), core.ErrProfileNotFound)
}
