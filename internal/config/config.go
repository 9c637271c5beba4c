// Package config carga la configuración desde YAML con overrides por
// variables de entorno. Los secretos (clave de cifrado, signing key, client
// secret, SMTP password) viajan SOLO por entorno, nunca en el archivo.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory (memory es sólo dev/tests)
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// StateLedger elige el backend de states CSRF: postgres | redis | memory.
	// Default: el mismo driver que storage.
	StateLedger struct {
		Backend string `yaml:"backend"`
	} `yaml:"state_ledger"`

	Cache struct {
		Driver string `yaml:"driver"` // memory | redis
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Prefix     string `yaml:"prefix"`
		DefaultTTL string `yaml:"default_ttl"`
	} `yaml:"cache"`

	// RateLimit protege register/login por IP. Max negativo lo deshabilita;
	// 0 toma el default. Backend: memory | redis (default: el driver del cache).
	RateLimit struct {
		Backend string `yaml:"backend"`
		Max     int    `yaml:"max"`
		Window  string `yaml:"window"`
	} `yaml:"rate_limit"`

	Session struct {
		Issuer string `yaml:"issuer"`
		TTL    string `yaml:"ttl"`
	} `yaml:"session"`

	Tracker struct {
		ClientID    string `yaml:"client_id"`
		RedirectURL string `yaml:"redirect_url"`
		// ClientSecret sólo por env (TRACKER_CLIENT_SECRET).
		ClientSecret string   `yaml:"-"`
		Scopes       []string `yaml:"scopes"`
		SuccessURL   string   `yaml:"success_url"`
		ErrorURL     string   `yaml:"error_url"`
	} `yaml:"tracker"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		FromEmail string `yaml:"from_email"`
		Username  string `yaml:"username"`
		// Password sólo por env (SMTP_PASSWORD).
		Password string `yaml:"-"`
		TLSMode  string `yaml:"tls_mode"`
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML (path vacío = sólo defaults + env), aplica defaults y
// después los overrides de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.StateLedger.Backend == "" {
		c.StateLedger.Backend = c.Storage.Driver
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "issuehub"
	}
	if c.Cache.DefaultTTL == "" {
		c.Cache.DefaultTTL = "5m"
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = c.Cache.Driver
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 30
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "1m"
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "issuehub"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "24h"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()
	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("STATE_LEDGER_BACKEND"); ok {
		c.StateLedger.Backend = v
	}

	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("RATE_LIMIT_BACKEND"); ok {
		c.RateLimit.Backend = v
	}
	if v, ok := getEnvInt("RATE_LIMIT_MAX"); ok {
		c.RateLimit.Max = v
	}
	if v, ok := getEnvStr("RATE_LIMIT_WINDOW"); ok {
		c.RateLimit.Window = v
	}

	if v, ok := getEnvStr("SESSION_ISSUER"); ok {
		c.Session.Issuer = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}

	if v, ok := getEnvStr("TRACKER_CLIENT_ID"); ok {
		c.Tracker.ClientID = v
	}
	if v, ok := getEnvStr("TRACKER_CLIENT_SECRET"); ok {
		c.Tracker.ClientSecret = v
	}
	if v, ok := getEnvStr("TRACKER_REDIRECT_URL"); ok {
		c.Tracker.RedirectURL = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.FromEmail = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate chequea lo mínimo para poder levantar el server.
func (c *Config) Validate() error {
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn (o DATABASE_URL) es requerido con driver postgres")
	}
	if c.Tracker.ClientID == "" {
		return fmt.Errorf("config: tracker.client_id es requerido")
	}
	switch c.StateLedger.Backend {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("config: state_ledger.backend inválido: %q", c.StateLedger.Backend)
	}
	return nil
}

// Duration parsea un campo de duración con fallback.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
