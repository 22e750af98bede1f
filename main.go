package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aronlabs/captcha/captcha"
	"github.com/aronlabs/captcha/config"
	"github.com/aronlabs/captcha/routes"
	"github.com/aronlabs/captcha/session"
	"github.com/aronlabs/captcha/utils"
)

func main() {
	path := os.Getenv("CAPTCHA_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		rc *redis.Client
		db *gorm.DB
	)
	switch cfg.Session.Driver {
	case session.DriverRedis:
		if rc, err = utils.NewRedis(cfg.Redis); err != nil {
			utils.Sugar.Fatalf("redis: %v", err)
		}
	case session.DriverDatabase:
		if db, err = config.InitDatabase(cfg); err != nil {
			utils.Sugar.Fatalf("database: %v", err)
		}
	}

	backend, err := session.NewBackend(cfg.Session.Driver, cfg.SessionTTL(), rc, db)
	if err != nil {
		utils.Sugar.Fatalf("session backend: %v", err)
	}
	// Start background cleanup for expired session rows (best-effort)
	if purger, ok := backend.(utils.Purger); ok {
		utils.StartSessionCleaner(ctx, 5*time.Minute, purger)
	}

	svc, err := captcha.New(cfg.Captcha, utils.Logger)
	if err != nil {
		utils.Sugar.Fatalf("captcha: %v", err)
	}

	r, err := routes.SetupRouter(cfg, svc, backend)
	if err != nil {
		utils.Sugar.Fatalf("router: %v", err)
	}

	srv := utils.NewServer(":"+cfg.App.Port, r)
	srv.OnShutdown(cancel)
	if rc != nil {
		srv.OnShutdown(func() { _ = rc.Close() })
	}

	utils.Sugar.Infof("Starting server on port %s (graceful), session driver %s", cfg.App.Port, cfg.Session.Driver)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
