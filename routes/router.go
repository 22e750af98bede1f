package routes

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aronlabs/captcha/captcha"
	"github.com/aronlabs/captcha/config"
	"github.com/aronlabs/captcha/controllers"
	"github.com/aronlabs/captcha/middleware"
	"github.com/aronlabs/captcha/session"
	"github.com/aronlabs/captcha/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, svc *captcha.Service, backend session.Backend) (*gin.Engine, error) {
	switch strings.ToLower(cfg.App.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.Log.GinPath, cfg.Log)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept-Language", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.App.AllowedOrigins) == 1 && cfg.App.AllowedOrigins[0] == "*" {
		// Credentials cannot be combined with a wildcard origin.
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.App.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	captchaController, err := controllers.NewCaptchaController(svc)
	if err != nil {
		return nil, err
	}
	prefix := "/" + strings.Trim(cfg.App.RoutePrefix, "/")
	widgetController := controllers.NewWidgetController(svc, cfg.Widget, path.Join(prefix, "refresh"))

	group := r.Group(prefix)
	group.Use(middleware.Session(backend, middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(cfg.App.Secret),
		TTL:        cfg.SessionTTL(),
		Secure:     cfg.Session.CookieSecure,
	}))

	issue := group.Group("")
	issue.Use(middleware.RateLimit(cfg.App.RateLimitPerMinute))
	issue.GET("/refresh", captchaController.Refresh)
	issue.GET("/image", captchaController.Image)
	issue.GET("/widget", widgetController.Show)

	group.POST("/verify", captchaController.Verify)
	group.POST("/submit", captchaController.Submit)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r, nil
}
