package testing

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// GetRedisClient connects to a real redis instance. Host defaults to
// ABTRACKER_TEST_REDIS_HOST (or localhost) when empty, and the password is
// taken from ABTRACKER_TEST_REDIS_PASS. The client is closed on test cleanup.
func GetRedisClient(t *testing.T, host, port string) *redis.Client {
	t.Helper()

	if host == "" {
		host = os.Getenv("ABTRACKER_TEST_REDIS_HOST")
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	t.Logf("using redis: [%s:%s]", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: os.Getenv("ABTRACKER_TEST_REDIS_PASS"),
		DB:       0, // use default DB
	})
	t.Cleanup(func() {
		if err := rdb.Close(); err != nil {
			t.Logf("close redis client: %s", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pingRes, err := rdb.Ping(ctx).Result()
	require.NoError(t, err)
	t.Logf("redis ping res: %s", pingRes)

	return rdb
}
