package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aronlabs/captcha/models"
)

func newSQLiteBackend(t *testing.T) (*gorm.DB, *DatabaseBackend) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&models.CaptchaSession{}); err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, NewDatabaseBackend(db, time.Minute)
}

func TestDatabaseBackendUpsertAndGetDel(t *testing.T) {
	ctx := context.Background()
	db, b := newSQLiteBackend(t)

	if err := b.Set(ctx, "sid:captcha_code", "first"); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, "sid:captcha_code", "second"); err != nil {
		t.Fatal(err)
	}
	var n int64
	db.Model(&models.CaptchaSession{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d, want 1 after upsert", n)
	}

	v, ok, err := b.GetDel(ctx, "sid:captcha_code")
	if err != nil || !ok || v != "second" {
		t.Fatalf("GetDel = %q, %v, %v", v, ok, err)
	}
	if _, ok, err := b.GetDel(ctx, "sid:captcha_code"); ok || err != nil {
		t.Fatalf("second GetDel = %v, %v", ok, err)
	}
}

func TestDatabaseBackendExpiredRowIsMissing(t *testing.T) {
	ctx := context.Background()
	db, b := newSQLiteBackend(t)

	row := models.CaptchaSession{SessionKey: "k", Value: "v", ExpiresAt: time.Now().Add(-time.Second)}
	if err := db.Create(&row).Error; err != nil {
		t.Fatal(err)
	}
	if _, ok, err := b.GetDel(ctx, "k"); ok || err != nil {
		t.Fatalf("expired GetDel = %v, %v", ok, err)
	}
	var n int64
	db.Model(&models.CaptchaSession{}).Where("session_key = ?", "k").Count(&n)
	if n != 0 {
		t.Fatal("expired row was not removed")
	}
}

func TestDatabaseBackendPurgeExpired(t *testing.T) {
	ctx := context.Background()
	db, b := newSQLiteBackend(t)

	rows := []models.CaptchaSession{
		{SessionKey: "old-1", Value: "a", ExpiresAt: time.Now().Add(-time.Hour)},
		{SessionKey: "old-2", Value: "b", ExpiresAt: time.Now().Add(-time.Minute)},
		{SessionKey: "live", Value: "c", ExpiresAt: time.Now().Add(time.Hour)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatal(err)
	}
	n, err := b.PurgeExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("purged %d rows, want 2", n)
	}
	v, ok, err := b.GetDel(ctx, "live")
	if err != nil || !ok || v != "c" {
		t.Fatalf("live row = %q, %v, %v", v, ok, err)
	}
}
