package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "captcha:session:"

// getDelScript is used when the server predates GETDEL (Redis < 6.2).
const getDelScript = `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`

// RedisBackend shares sessions across instances.
type RedisBackend struct {
	rc      *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisBackend stores values with ttl.
func NewRedisBackend(rc *redis.Client, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisBackend{rc: rc, ttl: ttl, timeout: 2 * time.Second}
}

func redisKey(key string) string {
	return redisPrefix + key
}

// Set stores the value with TTL.
func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.rc.Set(ctx, redisKey(key), value, r.ttl).Err()
}

// GetDel reads and deletes atomically.
func (r *RedisBackend) GetDel(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	k := redisKey(key)

	v, err := r.rc.GetDel(ctx, k).Result()
	if err == nil {
		return v, true, nil
	}
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	v, ok, evalErr := r.evalGetDel(ctx, k)
	if evalErr != nil {
		return "", false, errors.Join(err, evalErr)
	}
	return v, ok, nil
}

// evalGetDel is the Lua fallback for servers without GETDEL.
func (r *RedisBackend) evalGetDel(ctx context.Context, k string) (string, bool, error) {
	res, err := r.rc.Eval(ctx, getDelScript, []string{k}).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	s, ok := res.(string)
	return s, ok && s != "", nil
}
