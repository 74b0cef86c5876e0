package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/2beens/abtracker/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
)

const allowPartialKey = "abtracker:prefs:allow_partial_sessions"

// Store is the policy source consulted when a session is submitted.
type Store interface {
	AllowPartial(ctx context.Context) (bool, error)
	SetAllowPartial(ctx context.Context, allow bool) error
}

// RedisStore keeps the single user's preferences in redis.
// A missing key means the configured default.
type RedisStore struct {
	redisClient         *redis.Client
	defaultAllowPartial bool
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisClient *redis.Client, defaultAllowPartial bool) *RedisStore {
	return &RedisStore{
		redisClient:         redisClient,
		defaultAllowPartial: defaultAllowPartial,
	}
}

func (s *RedisStore) AllowPartial(ctx context.Context) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "preferences.redis.allowPartial")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	val, err := s.redisClient.Get(ctx, allowPartialKey).Result()
	if errors.Is(err, redis.Nil) {
		return s.defaultAllowPartial, nil
	}
	if err != nil {
		return false, fmt.Errorf("get allow partial: %w", err)
	}

	allow, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parse allow partial [%s]: %w", val, err)
	}
	return allow, nil
}

func (s *RedisStore) SetAllowPartial(ctx context.Context, allow bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "preferences.redis.setAllowPartial")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.redisClient.Set(ctx, allowPartialKey, strconv.FormatBool(allow), 0).Err(); err != nil {
		return fmt.Errorf("set allow partial: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mutex        sync.RWMutex
	allowPartial bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(allowPartial bool) *MemoryStore {
	return &MemoryStore{allowPartial: allowPartial}
}

func (s *MemoryStore) AllowPartial(_ context.Context) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.allowPartial, nil
}

func (s *MemoryStore) SetAllowPartial(_ context.Context, allow bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.allowPartial = allow
	return nil
}
