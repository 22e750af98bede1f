// Package rules registers the captcha form rule on go-playground/validator.
package rules

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/aronlabs/captcha/captcha"
)

// Tag is the struct tag name of the rule, as in `validate:"required,captcha"`.
const Tag = "captcha"

type checkKey struct{}

// check carries the caller's store into the rule and the rule's
// outcome back out.
type check struct {
	store captcha.SessionStore

	mu  sync.Mutex
	err error
	ran bool
}

// WithStore attaches the caller's session store to ctx so the rule can reach it.
func WithStore(ctx context.Context, store captcha.SessionStore) context.Context {
	return context.WithValue(ctx, checkKey{}, &check{store: store})
}

// StoreFrom returns the store attached by WithStore.
func StoreFrom(ctx context.Context) (captcha.SessionStore, bool) {
	c, ok := ctx.Value(checkKey{}).(*check)
	if !ok || c.store == nil {
		return nil, false
	}
	return c.store, true
}

// Result reports whether a captcha check ran under ctx and the error it
// produced. A non-validation error (see captcha.IsValidationError) means
// the session store failed, not the visitor; the rule still fails closed.
func Result(ctx context.Context) (ran bool, err error) {
	c, ok := ctx.Value(checkKey{}).(*check)
	if !ok {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ran, c.err
}

// Register adds the captcha rule to v. Structs must be checked with
// StructCtx and a context from WithStore; without one the rule fails.
func Register(v *validator.Validate) error {
	return v.RegisterValidationCtx(Tag, validateCaptcha)
}

func validateCaptcha(ctx context.Context, fl validator.FieldLevel) bool {
	c, ok := ctx.Value(checkKey{}).(*check)
	if !ok || c.store == nil {
		return false
	}
	err := captcha.Validate(ctx, fl.Field().String(), c.store)

	c.mu.Lock()
	c.err, c.ran = err, true
	c.mu.Unlock()
	return err == nil
}

// Failed reports whether err came from the captcha rule.
func Failed(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == Tag {
			return true
		}
	}
	return false
}
