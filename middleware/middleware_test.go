package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aronlabs/captcha/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testSessionOptions() SessionOptions {
	return SessionOptions{CookieName: "captcha_session", Secret: []byte("test-secret"), TTL: time.Hour}
}

func newSessionEngine(backend session.Backend) *gin.Engine {
	r := gin.New()
	r.Use(Session(backend, testSessionOptions()))
	r.GET("/", func(ctx *gin.Context) {
		s, ok := CurrentSession(ctx)
		if !ok {
			ctx.String(http.StatusInternalServerError, "no session")
			return
		}
		ctx.String(http.StatusOK, s.ID())
	})
	return r
}

func TestSessionIssuesCookie(t *testing.T) {
	r := newSessionEngine(session.NewMemoryBackend(time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "captcha_session" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty session id")
	}
}

func TestSessionReusesValidCookie(t *testing.T) {
	r := newSessionEngine(session.NewMemoryBackend(time.Minute))

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := first.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	if second.Body.String() != first.Body.String() {
		t.Fatalf("session changed: %q != %q", second.Body.String(), first.Body.String())
	}
	if len(second.Result().Cookies()) != 0 {
		t.Fatal("valid cookie should not be reissued")
	}
}

func TestSessionReplacesForgedCookie(t *testing.T) {
	r := newSessionEngine(session.NewMemoryBackend(time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "captcha_session", Value: "forged"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || len(w.Result().Cookies()) != 1 {
		t.Fatalf("expected a fresh cookie, status %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(2)) // burst of 1
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestRateLimitInstancesAreIndependent(t *testing.T) {
	r := gin.New()
	r.GET("/a", RateLimit(2), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.GET("/b", RateLimit(2), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	for _, path := range []string{"/a", "/b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("%s: status = %d", path, w.Code)
		}
	}
}
