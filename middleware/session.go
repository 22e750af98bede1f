package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aronlabs/captcha/session"
	"github.com/aronlabs/captcha/utils"
)

// ContextSessionKey is the key used to store the request's *session.Session in Gin context.
const ContextSessionKey = "session"

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
}

// Session attaches a per-visitor session to every request. The session id
// travels in a signed cookie; a missing, expired or forged cookie starts
// a fresh session.
func Session(backend session.Backend, opts SessionOptions) gin.HandlerFunc {
	maxAge := int(opts.TTL / time.Second)

	return func(ctx *gin.Context) {
		var sid string
		if raw, err := ctx.Cookie(opts.CookieName); err == nil && raw != "" {
			if claims, err := utils.ParseSessionToken(opts.Secret, raw); err == nil {
				sid = claims.SessionID
			}
		}

		if sid == "" {
			sid = uuid.NewString()
			token, err := utils.GenerateSessionToken(opts.Secret, sid, opts.TTL)
			if err != nil {
				utils.Sugar.Errorf("sign session cookie: %v", err)
				utils.Error(ctx, http.StatusInternalServerError, 50001, "session unavailable")
				ctx.Abort()
				return
			}
			ctx.SetSameSite(http.SameSiteLaxMode)
			ctx.SetCookie(opts.CookieName, token, maxAge, "/", "", opts.Secure, true)
		}

		ctx.Set(ContextSessionKey, session.New(sid, backend))
		ctx.Next()
	}
}

// CurrentSession returns the session attached by Session.
func CurrentSession(ctx *gin.Context) (*session.Session, bool) {
	v, ok := ctx.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
