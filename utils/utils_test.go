package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aronlabs/captcha/config"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	secret := []byte("k")
	tok, err := GenerateSessionToken(secret, "sid-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseSessionToken(secret, tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.SessionID != "sid-1" {
		t.Fatalf("sid = %q", claims.SessionID)
	}
	if _, err := ParseSessionToken([]byte("other"), tok); err == nil {
		t.Fatal("token verified with the wrong key")
	}
}

func TestSessionTokenExpired(t *testing.T) {
	tok, err := GenerateSessionToken([]byte("k"), "sid", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseSessionToken([]byte("k"), tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText(`<b>Enter</b> code & <i>more</i>`); got != "Enter code & more" {
		t.Fatalf("got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"":      zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := InitLogger(config.LogSection{Level: "debug", Path: path}); err != nil {
		t.Fatal(err)
	}
	Logger.Info("hello")
	_ = Logger.Sync()
	t.Cleanup(func() {
		Logger = zap.NewNop()
		Sugar = Logger.Sugar()
	})
}

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestSessionCleanerRunsUntilCancelled(t *testing.T) {
	p := &countingPurger{err: errors.New("ignored")}
	ctx, cancel := context.WithCancel(context.Background())
	StartSessionCleaner(ctx, 5*time.Millisecond, p)
	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if p.calls.Load() < 2 {
		t.Fatalf("purge ran %d times", p.calls.Load())
	}
}

func TestRecoveryWithZap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Ginzap(zap.NewNop(), time.RFC3339, true), RecoveryWithZap(zap.NewNop(), true))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
