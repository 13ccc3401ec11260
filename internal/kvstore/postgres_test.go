package kvstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresMock(t *testing.T) (*Postgres, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	closer := func() { sqlxDB.Close() }
	return NewPostgres(sqlxDB), mock, closer
}

func TestPostgresGet(t *testing.T) {
	s, mock, close := setupPostgresMock(t)
	defer close()
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_entries WHERE entry_key = $1")).
		WithArgs("theme").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("true"))

	v, ok, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_entries WHERE entry_key = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetUpserts(t *testing.T) {
	s, mock, close := setupPostgresMock(t)
	defer close()

	mock.ExpectExec("INSERT INTO kv_entries .* ON CONFLICT \\(entry_key\\) DO UPDATE").
		WithArgs("gymQuota:g1", `{"monto":15000}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "gymQuota:g1", `{"monto":15000}`))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKeysAndRemoveMany(t *testing.T) {
	s, mock, close := setupPostgresMock(t)
	defer close()
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT entry_key FROM kv_entries ORDER BY entry_key")).
		WillReturnRows(sqlmock.NewRows([]string{"entry_key"}).AddRow("session").AddRow("usersDB"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session", "usersDB"}, keys)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv_entries WHERE entry_key = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.RemoveMany(ctx, keys))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEnsureSchema(t *testing.T) {
	s, mock, close := setupPostgresMock(t)
	defer close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
