package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/aronlabs/captcha/captcha"
)

type memStore map[string]string

func (m memStore) Put(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memStore) Pull(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	delete(m, key)
	return v, ok, nil
}

type downStore struct{}

func (downStore) Put(context.Context, string, string) error { return errors.New("redis down") }
func (downStore) Pull(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

type loginForm struct {
	Email   string `validate:"required,email"`
	Captcha string `validate:"required,captcha"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := Register(v); err != nil {
		t.Fatalf("register: %v", err)
	}
	return v
}

func TestRuleAcceptsCorrectAnswer(t *testing.T) {
	v := newValidator(t)
	store := memStore{captcha.SessionKey: "aB3x9"}
	ctx := WithStore(context.Background(), store)

	form := loginForm{Email: "a@example.com", Captcha: "AB3X9"}
	if err := v.StructCtx(ctx, form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store[captcha.SessionKey]; ok {
		t.Fatal("secret should be consumed")
	}
}

func TestRuleRejectsWrongAnswer(t *testing.T) {
	v := newValidator(t)
	ctx := WithStore(context.Background(), memStore{captcha.SessionKey: "5"})

	err := v.StructCtx(ctx, loginForm{Email: "a@example.com", Captcha: "6"})
	if !Failed(err) {
		t.Fatalf("expected captcha failure, got %v", err)
	}
}

func TestRuleWithoutStoreFails(t *testing.T) {
	v := newValidator(t)
	err := v.StructCtx(context.Background(), loginForm{Email: "a@example.com", Captcha: "5"})
	if !Failed(err) {
		t.Fatalf("expected captcha failure, got %v", err)
	}
}

func TestFailedIgnoresOtherRules(t *testing.T) {
	v := newValidator(t)
	ctx := WithStore(context.Background(), memStore{captcha.SessionKey: "5"})

	err := v.StructCtx(ctx, loginForm{Email: "not-an-email", Captcha: "5"})
	if err == nil {
		t.Fatal("expected email failure")
	}
	if Failed(err) {
		t.Fatal("captcha rule should have passed")
	}
}

func TestRuleReportsStoreFailureSeparately(t *testing.T) {
	v := newValidator(t)
	ctx := WithStore(context.Background(), downStore{})

	err := v.StructCtx(ctx, loginForm{Email: "a@example.com", Captcha: "5"})
	if !Failed(err) {
		t.Fatalf("rule should fail closed, got %v", err)
	}
	ran, cerr := Result(ctx)
	if !ran || cerr == nil {
		t.Fatalf("Result = %v, %v", ran, cerr)
	}
	if captcha.IsValidationError(cerr) {
		t.Fatalf("store failure reported as a validation error: %v", cerr)
	}
}

func TestResultDistinguishesMissingFromIncorrect(t *testing.T) {
	v := newValidator(t)

	ctx := WithStore(context.Background(), memStore{})
	_ = v.StructCtx(ctx, loginForm{Email: "a@example.com", Captcha: "5"})
	if _, err := Result(ctx); !errors.Is(err, captcha.ErrMissing) {
		t.Fatalf("err = %v, want ErrMissing", err)
	}

	ctx = WithStore(context.Background(), memStore{captcha.SessionKey: "4"})
	_ = v.StructCtx(ctx, loginForm{Email: "a@example.com", Captcha: "5"})
	if _, err := Result(ctx); !errors.Is(err, captcha.ErrIncorrect) {
		t.Fatalf("err = %v, want ErrIncorrect", err)
	}
}

func TestResultWithoutCheck(t *testing.T) {
	if ran, err := Result(context.Background()); ran || err != nil {
		t.Fatalf("Result = %v, %v", ran, err)
	}
}
