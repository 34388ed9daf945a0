package database

import (
	"context"
	"errors"
	"testing"

	"franchise-leads/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_ExecAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE one`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX two`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	client := &PostgresClient{DB: db}
	require.NoError(t, client.ExecAll(context.Background(), "CREATE TABLE one", "CREATE INDEX two"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_ExecAllRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE one`).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	client := &PostgresClient{DB: db}
	err = client.ExecAll(context.Background(), "CREATE TABLE one\n(id TEXT)", "CREATE INDEX two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREATE TABLE one")
	assert.NotContains(t, err.Error(), "(id TEXT)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	client := &PostgresClient{DB: db}
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed")
}

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}
