package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/employee-directory/internal/config"
)

func TestOpenBackendMemory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}
	backend, err := OpenBackend(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, config.BackendMemory, backend.Name)
	assert.NoError(t, backend.Store.Ping(context.Background()))
}

func TestOpenBackendRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Store: config.StoreConfig{Backend: config.BackendRedis},
		Redis: config.RedisConfig{Addr: mr.Addr()},
	}
	backend, err := OpenBackend(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.Store.Set(ctx, "employees", []byte("[]")))
	got, err := mr.Get("employees")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestOpenBackendSQLite(t *testing.T) {
	cfg := &config.Config{
		Store:  config.StoreConfig{Backend: config.BackendSQLite},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "employees.db")},
	}
	ctx := context.Background()
	backend, err := OpenBackend(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, backend.Store.Set(ctx, "employees", []byte(`[{"name":"Bob"}]`)))
	require.NoError(t, backend.Close())

	reopened, err := OpenBackend(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()
	val, found, err := reopened.Store.Get(ctx, "employees")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"name":"Bob"}]`, string(val))
}

func TestOpenBackendPostgresRequiresDSN(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendPostgres}}
	_, err := OpenBackend(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestOpenBackendUnknown(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "etcd"}}
	_, err := OpenBackend(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRunMigrations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_second.sql"), []byte("SELECT 2"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_first.sql"), []byte("SELECT 1"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("SELECT 2").WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, RunMigrations(context.Background(), mock, dir, zaptest.NewLogger(t)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("CREATE NONSENSE"), 0o600))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec("CREATE NONSENSE").WillReturnError(errors.New("syntax error"))

	err = RunMigrations(context.Background(), mock, dir, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_bad.sql")
}

func TestRunMigrationsBundledSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	dir := filepath.Join("..", "..", "migrations")
	require.NoError(t, RunMigrations(context.Background(), mock, dir, zaptest.NewLogger(t)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
