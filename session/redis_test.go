package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, NewRedisBackend(rc, time.Minute)
}

func TestRedisBackendGetDel(t *testing.T) {
	ctx := context.Background()
	mr, b := newMiniRedis(t)

	if err := b.Set(ctx, "sid:captcha_code", "4"); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(redisKey("sid:captcha_code")); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}
	v, ok, err := b.GetDel(ctx, "sid:captcha_code")
	if err != nil || !ok || v != "4" {
		t.Fatalf("GetDel = %q, %v, %v", v, ok, err)
	}
	if mr.Exists(redisKey("sid:captcha_code")) {
		t.Fatal("key survived GetDel")
	}
	if _, ok, err := b.GetDel(ctx, "sid:captcha_code"); ok || err != nil {
		t.Fatalf("second GetDel = %v, %v", ok, err)
	}
}

func TestRedisBackendExpiry(t *testing.T) {
	ctx := context.Background()
	mr, b := newMiniRedis(t)

	if err := b.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, err := b.GetDel(ctx, "k"); ok || err != nil {
		t.Fatalf("expired GetDel = %v, %v", ok, err)
	}
}

func TestRedisBackendScriptFallback(t *testing.T) {
	ctx := context.Background()
	mr, b := newMiniRedis(t)

	mr.Set(redisKey("k"), "v")
	v, ok, err := b.evalGetDel(ctx, redisKey("k"))
	if err != nil || !ok || v != "v" {
		t.Fatalf("evalGetDel = %q, %v, %v", v, ok, err)
	}
	if mr.Exists(redisKey("k")) {
		t.Fatal("script did not delete the key")
	}
	if _, ok, err := b.evalGetDel(ctx, redisKey("k")); ok || err != nil {
		t.Fatalf("missing key = %v, %v", ok, err)
	}
}

func TestRedisBackendServerDown(t *testing.T) {
	mr, b := newMiniRedis(t)
	mr.Close()
	if _, _, err := b.GetDel(context.Background(), "k"); err == nil {
		t.Fatal("expected an error from a stopped server")
	}
}
