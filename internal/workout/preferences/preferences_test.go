package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_AllowPartial(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	store := NewRedisStore(db, true)

	mock.ExpectGet(allowPartialKey).SetErr(redis.Nil)
	allow, err := store.AllowPartial(ctx)
	require.NoError(t, err)
	assert.True(t, allow)

	mock.ExpectGet(allowPartialKey).SetVal("false")
	allow, err = store.AllowPartial(ctx)
	require.NoError(t, err)
	assert.False(t, allow)

	mock.ExpectGet(allowPartialKey).SetVal("maybe")
	_, err = store.AllowPartial(ctx)
	require.Error(t, err)

	mock.ExpectGet(allowPartialKey).SetErr(errors.New("connection refused"))
	_, err = store.AllowPartial(ctx)
	require.EqualError(t, err, "get allow partial: connection refused")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetAllowPartial(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	store := NewRedisStore(db, false)

	mock.ExpectSet(allowPartialKey, "true", 0).SetVal("OK")
	require.NoError(t, store.SetAllowPartial(ctx, true))

	mock.ExpectSet(allowPartialKey, "false", 0).SetErr(errors.New("read only"))
	require.EqualError(t, store.SetAllowPartial(ctx, false), "set allow partial: read only")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(false)

	allow, err := store.AllowPartial(ctx)
	require.NoError(t, err)
	assert.False(t, allow)

	require.NoError(t, store.SetAllowPartial(ctx, true))
	allow, err = store.AllowPartial(ctx)
	require.NoError(t, err)
	assert.True(t, allow)
}
