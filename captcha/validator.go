package captcha

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
)

// SessionKey is where the outstanding secret lives in a session.
const SessionKey = "captcha_code"

// SessionStore is one user's session. A store holds at most one
// outstanding challenge: Put under SessionKey replaces the previous one.
type SessionStore interface {
	Put(ctx context.Context, key, value string) error
	// Pull returns the value and removes it in the same step.
	Pull(ctx context.Context, key string) (string, bool, error)
}

// Validate checks submitted against the stored secret. The secret is
// consumed whatever the outcome, so a second call always fails with
// ErrMissing. Comparison ignores case.
func Validate(ctx context.Context, submitted string, store SessionStore) error {
	secret, ok, err := store.Pull(ctx, SessionKey)
	if err != nil {
		return fmt.Errorf("captcha: read session: %w", err)
	}
	if !ok || secret == "" {
		return ErrMissing
	}
	a := []byte(strings.ToLower(submitted))
	b := []byte(strings.ToLower(secret))
	if subtle.ConstantTimeCompare(a, b) != 1 {
		return ErrIncorrect
	}
	return nil
}
