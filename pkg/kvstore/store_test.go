package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/invoice-studio/pkg/config"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the get/set/has contract shared by every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	has, err := s.Has(ctx, "isPro")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.Get(ctx, "isPro")
	assert.True(t, ierr.IsNotFound(err))

	require.NoError(t, s.Set(ctx, "isPro", "true"))
	require.NoError(t, s.Set(ctx, "template", "modern-blue"))
	require.NoError(t, s.Set(ctx, "template", "dark-mode"))

	has, err = s.Has(ctx, "isPro")
	require.NoError(t, err)
	assert.True(t, has)

	v, err := s.Get(ctx, "template")
	require.NoError(t, err)
	assert.Equal(t, "dark-mode", v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(context.Background(), "isPro")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))

	_, err := NewFileStore(path)
	assert.True(t, ierr.IsValidation(err))
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "test:")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	raw, err := mr.Get("test:template")
	require.NoError(t, err)
	assert.Equal(t, "dark-mode", raw)
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", "")
	assert.True(t, ierr.IsValidation(err))
}

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStoreFromDB(db, "plan_kv")
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "plan_kv"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureSchema(ctx))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM "plan_kv" WHERE key = $1)`)).
		WithArgs("isPro").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	has, err := s.Has(ctx, "isPro")
	require.NoError(t, err)
	assert.False(t, has)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "plan_kv" WHERE key = $1`)).
		WithArgs("isPro").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = s.Get(ctx, "isPro")
	assert.True(t, ierr.IsNotFound(err))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "plan_kv" (key, value, updated_at)`)).
		WithArgs("isPro", "true").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Set(ctx, "isPro", "true"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "plan_kv" WHERE key = $1`)).
		WithArgs("isPro").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("true"))
	v, err := s.Get(ctx, "isPro")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStoreFromDB(db, "")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "entitlement_kv"`)).
		WillReturnError(assert.AnError)

	err = s.Set(context.Background(), "isPro", "true")
	assert.True(t, ierr.Is(err, ierr.ErrDatabase))
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), config.StoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(context.Background(), config.StoreConfig{Type: "file", FilePath: filepath.Join(t.TempDir(), "kv.yaml")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(context.Background(), config.StoreConfig{Type: "etcd"})
	assert.True(t, ierr.IsValidation(err))
}
