package persistence

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestApplyMigrationsInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(true)

	fsys := fstest.MapFS{
		"002_history.sql": {Data: []byte("CREATE TABLE issue_history (id int)")},
		"001_init.sql":    {Data: []byte("CREATE TABLE users (id int)")},
		"README.md":       {Data: []byte("not a migration")},
	}

	mock.ExpectExec("CREATE TABLE users").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE TABLE issue_history").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, applyMigrations(context.Background(), mock, fsys, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsStopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE users (id int)")},
		"002_more.sql": {Data: []byte("CREATE TABLE issues (id int)")},
	}
	mock.ExpectExec("CREATE TABLE users").WillReturnError(errors.New("syntax error"))

	err = applyMigrations(context.Background(), mock, fsys, zap.NewNop())
	assert.ErrorContains(t, err, "001_init.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-exist", zap.NewNop()))
}
