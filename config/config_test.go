package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm/logger"

	"github.com/aronlabs/captcha/captcha"
)

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"port": "9000", "secret": "s3cret"},
		"session": {"driver": "redis"},
		"captcha": {"type": "math", "max_operand": 12, "width": 200}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.App.Port != "9000" || c.Session.Driver != "redis" {
		t.Fatalf("file values not applied: %+v", c.App)
	}
	if c.Captcha.Type != captcha.TypeMath || c.Captcha.MaxOperand != 12 || c.Captcha.Width != 200 {
		t.Fatalf("captcha = %+v", c.Captcha)
	}
	if c.Captcha.Height != captcha.DefaultOptions().Height {
		t.Fatalf("height default not applied: %d", c.Captcha.Height)
	}
	if Get().App.Port != "9000" {
		t.Fatal("Get did not return the loaded config")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "app:\n  secret: abc\ncaptcha:\n  type: text\n  text_mode: numbers\n  length: 6\n  font: /tmp/x.ttf\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Captcha.TextMode != captcha.TextNumbers || c.Captcha.Length != 6 || c.Captcha.Font != "/tmp/x.ttf" {
		t.Fatalf("captcha = %+v", c.Captcha)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("APP_SECRET", "from-env")
	c, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if c.App.Port != "8080" || c.Session.Driver != "memory" || c.Session.CookieName != "captcha_session" {
		t.Fatalf("defaults = %+v %+v", c.App, c.Session)
	}
	if c.SessionTTL() != 120*time.Minute {
		t.Fatalf("ttl = %v", c.SessionTTL())
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("APP_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_SECRET", "x")
	t.Setenv("CAPTCHA_TYPE", "math")
	t.Setenv("CAPTCHA_MAX_OPERAND", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SESSION_SECURE_COOKIE", "true")
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Captcha.Type != captcha.TypeMath || c.Captcha.MaxOperand != 4 {
		t.Fatalf("captcha = %+v", c.Captcha)
	}
	if len(c.App.AllowedOrigins) != 2 || c.App.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", c.App.AllowedOrigins)
	}
	if !c.Session.CookieSecure {
		t.Fatal("secure cookie override ignored")
	}
}

func TestEnvOverrideBadInt(t *testing.T) {
	t.Setenv("APP_SECRET", "x")
	t.Setenv("CAPTCHA_LENGTH", "five")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-integer")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseSection{Host: "db", Port: "3306", User: "u", Password: "p", Name: "n"}
	want := "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=Local"
	if got := d.DSN(); got != want {
		t.Fatalf("DSN = %q", got)
	}
	d.URI = "override"
	if d.DSN() != "override" {
		t.Fatal("URI should win")
	}
}

func TestToGormLogLevel(t *testing.T) {
	if toGormLogLevel("debug") != logger.Info || toGormLogLevel("info") != logger.Warn {
		t.Fatal("unexpected mapping")
	}
}
