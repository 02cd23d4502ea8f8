package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	backend := NewRedisBackend(db)
	ctx := context.Background()

	mock.ExpectGet("daylogs::alice").SetErr(redis.Nil)
	logs, err := backend.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, logs)

	b, err := encode(sampleLogs())
	require.NoError(t, err)
	mock.ExpectGet("daylogs::alice").SetVal(string(b))
	logs, err = backend.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "2024-01-01", logs[0].Date.String())

	mock.ExpectGet("daylogs::alice").SetErr(errors.New("connection refused"))
	_, err = backend.Load(ctx, "alice")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	backend := NewRedisBackend(db)
	ctx := context.Background()

	b, err := encode(sampleLogs())
	require.NoError(t, err)
	mock.ExpectSet("daylogs::alice", b, 0).SetVal("OK")
	require.NoError(t, backend.Save(ctx, "alice", sampleLogs()))

	mock.ExpectDel("daylogs::alice").SetVal(1)
	require.NoError(t, backend.Save(ctx, "alice", nil))

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "redis", backend.Name())
}
