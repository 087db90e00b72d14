// Package config loads settings from an optional YAML file, a .env file
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionBackendDatabase = "database"
	SessionBackendRedis    = "redis"
)

// MinSecretKeyLength matches the signing key requirement in internal/auth.
const MinSecretKeyLength = 16

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Chat     ChatConfig     `yaml:"chat"`
	GitHub   GitHubConfig   `yaml:"github"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	SecretKey      string `yaml:"secret_key"`
	SessionTTL     string `yaml:"session_ttl"`
	SessionBackend string `yaml:"session_backend"`
	SecureCookie   bool   `yaml:"secure_cookie"`
}

// DatabaseConfig.URL is either a sqlite path (":memory:" allowed) or a
// postgres:// URL.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	From      string `yaml:"from"`
	Recipient string `yaml:"recipient"`
}

type ChatConfig struct {
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	Timeout      string `yaml:"timeout"`
	HistoryLimit int    `yaml:"history_limit"`
}

type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			SessionTTL:     "168h",
			SessionBackend: SessionBackendDatabase,
		},
		Database: DatabaseConfig{URL: "data/parks.db"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		SMTP:     SMTPConfig{Port: 587},
		Chat: ChatConfig{
			Model:        "gemini-2.0-flash",
			Timeout:      "30s",
			HistoryLimit: 50,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty or name a file that
// does not exist; either way the defaults are used as the base. A .env
// file in the working directory is loaded before the environment is read.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile copies variables from a .env file into the environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnvOverrides(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s must be an integer, got %q", key, v))
				return
			}
			*dst = n
		}
	}

	num("PORT", &c.Server.Port)
	str("SECRET_KEY", &c.Server.SecretKey)
	str("SESSION_TTL", &c.Server.SessionTTL)
	str("SESSION_BACKEND", &c.Server.SessionBackend)
	if v, ok := lookup("SECURE_COOKIE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: SECURE_COOKIE must be a boolean, got %q", v))
		}
		c.Server.SecureCookie = b
	}

	str("DATABASE_URL", &c.Database.URL)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)

	str("SMTP_HOST", &c.SMTP.Host)
	num("SMTP_PORT", &c.SMTP.Port)
	str("SMTP_USERNAME", &c.SMTP.Username)
	str("SMTP_PASSWORD", &c.SMTP.Password)
	str("MAIL_FROM", &c.SMTP.From)
	str("MAIL_RECIPIENT", &c.SMTP.Recipient)

	str("GEMINI_API_KEY", &c.Chat.APIKey)
	str("GEMINI_MODEL", &c.Chat.Model)
	str("CHAT_TIMEOUT", &c.Chat.Timeout)
	num("CHAT_HISTORY_LIMIT", &c.Chat.HistoryLimit)

	str("GITHUB_CLIENT_ID", &c.GitHub.ClientID)
	str("GITHUB_CLIENT_SECRET", &c.GitHub.ClientSecret)
	str("GITHUB_CALLBACK_URL", &c.GitHub.CallbackURL)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if len(c.Server.SecretKey) < MinSecretKeyLength {
		errs = append(errs, fmt.Errorf("server.secret_key (SECRET_KEY) must be at least %d characters", MinSecretKeyLength))
	}
	if _, err := parsePositiveDuration(c.Server.SessionTTL); err != nil {
		errs = append(errs, fmt.Errorf("server.session_ttl: %w", err))
	}
	switch c.Server.SessionBackend {
	case SessionBackendDatabase, SessionBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("server.session_backend must be %q or %q, got %q",
			SessionBackendDatabase, SessionBackendRedis, c.Server.SessionBackend))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url must not be empty"))
	}
	if c.SMTPEnabled() && (c.SMTP.From == "" || c.SMTP.Recipient == "") {
		errs = append(errs, errors.New("smtp.from and smtp.recipient are required when smtp.host is set"))
	}
	if _, err := parsePositiveDuration(c.Chat.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("chat.timeout: %w", err))
	}
	if c.Chat.HistoryLimit < 0 {
		errs = append(errs, errors.New("chat.history_limit must not be negative"))
	}
	if c.GitHubEnabled() && c.GitHub.CallbackURL == "" {
		errs = append(errs, errors.New("github.callback_url is required when GitHub sign-in is configured"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SessionTTL returns the session lifetime. Call Validate first.
func (c *Config) SessionTTL() time.Duration {
	d, err := parsePositiveDuration(c.Server.SessionTTL)
	if err != nil {
		return 168 * time.Hour
	}
	return d
}

// ChatTimeout returns the bound on one model call. Call Validate first.
func (c *Config) ChatTimeout() time.Duration {
	d, err := parsePositiveDuration(c.Chat.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// UsesPostgres reports whether database.url selects the postgres backend.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.Database.URL, "postgres://") || strings.HasPrefix(c.Database.URL, "postgresql://")
}

func (c *Config) SMTPEnabled() bool   { return c.SMTP.Host != "" }
func (c *Config) ChatEnabled() bool   { return c.Chat.APIKey != "" }
func (c *Config) GitHubEnabled() bool { return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != "" }

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
