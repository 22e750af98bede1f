// Package session carves per-user key/value views out of a shared
// backend (memory, Redis or SQL), the way a web framework's session
// driver would.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aronlabs/captcha/captcha"
)

// Backend is the shared store behind every session.
type Backend interface {
	Set(ctx context.Context, key, value string) error
	// GetDel reads and removes key in one step.
	GetDel(ctx context.Context, key string) (string, bool, error)
}

// Drivers understood by NewBackend.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverDatabase = "database"
)

// NewBackend picks a backend by driver name. rc and db are only
// consulted by the drivers that need them.
func NewBackend(driver string, ttl time.Duration, rc *redis.Client, db *gorm.DB) (Backend, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryBackend(ttl), nil
	case DriverRedis:
		if rc == nil {
			return nil, fmt.Errorf("session: redis driver needs a client")
		}
		return NewRedisBackend(rc, ttl), nil
	case DriverDatabase:
		if db == nil {
			return nil, fmt.Errorf("session: database driver needs a connection")
		}
		return NewDatabaseBackend(db, ttl), nil
	}
	return nil, fmt.Errorf("session: unknown driver %q", driver)
}

// Session is one user's slice of a Backend.
type Session struct {
	id      string
	backend Backend
}

var _ captcha.SessionStore = (*Session)(nil)

// New returns the session identified by id.
func New(id string, backend Backend) *Session {
	return &Session{id: id, backend: backend}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) key(k string) string {
	return s.id + ":" + k
}

// Put stores value under key, replacing any previous value.
func (s *Session) Put(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, s.key(key), value)
}

// Pull returns the value under key and forgets it.
func (s *Session) Pull(ctx context.Context, key string) (string, bool, error) {
	return s.backend.GetDel(ctx, s.key(key))
}
