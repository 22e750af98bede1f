package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aronlabs/captcha/config"
)

// NewRedis builds a client from configuration and pings it once.
// The client is returned even when the ping fails so callers can decide.
func NewRedis(cfg config.RedisSection) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rc, rc.Ping(ctx).Err()
}
