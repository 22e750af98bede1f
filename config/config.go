package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aronlabs/captcha/captcha"
)

// AppConfig holds file and environment driven configuration values.
// Secrets never have defaults in code and must come from the file or the environment.
type AppConfig struct {
	App      AppSection      `json:"app" yaml:"app"`
	Session  SessionSection  `json:"session" yaml:"session"`
	Redis    RedisSection    `json:"redis" yaml:"redis"`
	Database DatabaseSection `json:"database" yaml:"database"`
	Log      LogSection      `json:"log" yaml:"log"`
	Captcha  captcha.Options `json:"captcha" yaml:"captcha"`
	Widget   WidgetSection   `json:"widget" yaml:"widget"`
}

type AppSection struct {
	Port               string   `json:"port" yaml:"port"`
	Secret             string   `json:"secret" yaml:"secret"`
	GinMode            string   `json:"gin_mode" yaml:"gin_mode"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	AllowedOrigins     []string `json:"allowed_origins" yaml:"allowed_origins"`
	RoutePrefix        string   `json:"route_prefix" yaml:"route_prefix"`
}

type SessionSection struct {
	// Driver is one of memory, redis or database.
	Driver       string `json:"driver" yaml:"driver"`
	CookieName   string `json:"cookie_name" yaml:"cookie_name"`
	CookieSecure bool   `json:"cookie_secure" yaml:"cookie_secure"`
	LifetimeMin  int    `json:"lifetime_minutes" yaml:"lifetime_minutes"`
}

type RedisSection struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	DB       int    `json:"db" yaml:"db"`
	Password string `json:"password" yaml:"password"`
}

type DatabaseSection struct {
	URI      string `json:"uri" yaml:"uri"`
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Name     string `json:"name" yaml:"name"`
}

type LogSection struct {
	Level      string `json:"level" yaml:"level"`
	Path       string `json:"path" yaml:"path"`
	GinPath    string `json:"gin_path" yaml:"gin_path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// WidgetSection overrides the texts shown by the HTML widget. Empty
// fields fall back to the visitor's language.
type WidgetSection struct {
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	RefreshHint string `json:"refresh_hint" yaml:"refresh_hint"`
	ImageAlt    string `json:"image_alt" yaml:"image_alt"`
}

// DefaultPath is used when CAPTCHA_CONFIG is unset.
var DefaultPath = filepath.Join("config", "config.json")

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// Load reads configuration with precedence file -> defaults -> environment.
// A missing file is not an error; a malformed one is.
func Load(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadFile(path, &c); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&c)
	if err := applyEnvOverrides(&c); err != nil {
		return AppConfig{}, err
	}
	if c.App.Secret == "" {
		return AppConfig{}, errors.New("config: APP_SECRET must be set")
	}

	mu.Lock()
	cfg, loaded = c, true
	mu.Unlock()
	return c, nil
}

// Get returns the cached configuration, loading it from DefaultPath if necessary.
func Get() AppConfig {
	mu.RLock()
	c, ok := cfg, loaded
	mu.RUnlock()
	if ok {
		return c
	}
	c, err := Load(getEnv("CAPTCHA_CONFIG", DefaultPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

// SessionTTL is how long session values and cookies live.
func (c AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Session.LifetimeMin) * time.Minute
}

func loadFile(path string, out *AppConfig) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields. The captcha
// type and text mode are left to captcha.Options.WithDefaults so that
// the defaulting rule lives in one place.
func applyDefaults(c *AppConfig) {
	if c.App.Port == "" {
		c.App.Port = "8080"
	}
	if c.App.GinMode == "" {
		c.App.GinMode = "release"
	}
	if c.App.RateLimitPerMinute == 0 {
		c.App.RateLimitPerMinute = 30
	}
	if len(c.App.AllowedOrigins) == 0 {
		c.App.AllowedOrigins = []string{"*"}
	}
	if c.App.RoutePrefix == "" {
		c.App.RoutePrefix = "/captcha"
	}
	if c.Session.Driver == "" {
		c.Session.Driver = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "captcha_session"
	}
	if c.Session.LifetimeMin == 0 {
		c.Session.LifetimeMin = 120
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "127.0.0.1"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == "" {
		c.Database.Port = "3306"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "captcha"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.GinPath == "" {
		c.Log.GinPath = "logs/gin.log"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 7
	}

	d := captcha.DefaultOptions()
	if c.Captcha.Length == 0 {
		c.Captcha.Length = d.Length
	}
	if c.Captcha.MaxOperand == 0 {
		c.Captcha.MaxOperand = d.MaxOperand
	}
	if c.Captcha.Width == 0 {
		c.Captcha.Width = d.Width
	}
	if c.Captcha.Height == 0 {
		c.Captcha.Height = d.Height
	}
	if c.Captcha.FontSize == 0 {
		c.Captcha.FontSize = d.FontSize
	}
	if c.Captcha.Lines == 0 {
		c.Captcha.Lines = d.Lines
	}
	if c.Captcha.Dots == 0 {
		c.Captcha.Dots = d.Dots
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var errs []error
	atoi := func(key string, dst *int) {
		if v := getEnv(key, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: invalid integer %q", key, v))
				return
			}
			*dst = n
		}
	}
	str := func(key string, dst *string) {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	str("APP_PORT", &c.App.Port)
	str("APP_SECRET", &c.App.Secret)
	str("GIN_MODE", &c.App.GinMode)
	atoi("RATE_LIMIT_PER_MINUTE", &c.App.RateLimitPerMinute)
	c.App.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.App.AllowedOrigins)
	str("ROUTE_PREFIX", &c.App.RoutePrefix)

	str("SESSION_DRIVER", &c.Session.Driver)
	str("SESSION_COOKIE", &c.Session.CookieName)
	boolean("SESSION_SECURE_COOKIE", &c.Session.CookieSecure)
	atoi("SESSION_LIFETIME", &c.Session.LifetimeMin)

	str("REDIS_HOST", &c.Redis.Host)
	atoi("REDIS_PORT", &c.Redis.Port)
	atoi("REDIS_DB", &c.Redis.DB)
	str("REDIS_PASSWORD", &c.Redis.Password)

	str("DATABASE_URI", &c.Database.URI)
	str("DB_HOST", &c.Database.Host)
	str("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_PATH", &c.Log.Path)
	str("GIN_LOG_PATH", &c.Log.GinPath)
	atoi("LOG_MAX_SIZE_MB", &c.Log.MaxSizeMB)
	atoi("LOG_MAX_BACKUPS", &c.Log.MaxBackups)
	atoi("LOG_MAX_AGE_DAYS", &c.Log.MaxAgeDays)
	boolean("LOG_COMPRESS", &c.Log.Compress)

	if v := getEnv("CAPTCHA_TYPE", ""); v != "" {
		c.Captcha.Type = captcha.Type(v)
	}
	if v := getEnv("CAPTCHA_TEXT_MODE", ""); v != "" {
		c.Captcha.TextMode = captcha.TextMode(v)
	}
	atoi("CAPTCHA_LENGTH", &c.Captcha.Length)
	atoi("CAPTCHA_MAX_OPERAND", &c.Captcha.MaxOperand)
	atoi("CAPTCHA_WIDTH", &c.Captcha.Width)
	atoi("CAPTCHA_HEIGHT", &c.Captcha.Height)
	atoi("CAPTCHA_FONT_SIZE", &c.Captcha.FontSize)
	str("CAPTCHA_FONT", &c.Captcha.Font)
	atoi("CAPTCHA_LINES", &c.Captcha.Lines)
	atoi("CAPTCHA_DOTS", &c.Captcha.Dots)

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func readListEnv(key string, defaults []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaults
	}
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
