package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalid             = errors.New("invalid config")
	ErrDatabaseURLRequired = errors.New("DATABASE_URL is required for postgres storage")
)

const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type ServerConfig struct {
	Addr        string
	Storage     string
	SavePath    string
	SQLitePath  string
	DatabaseURL string
	SaveSlot    string
	// TickEvery of zero means "use the period stored in the save".
	TickEvery   time.Duration
	SaveEvery   time.Duration
	StreamEvery time.Duration
	// RateLimit is trigger requests per second per client; zero disables it.
	RateLimit float64
	RateBurst int
	RunOnce   bool
	LogLevel  slog.Level
}

type CLIConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

// fileConfig is the optional YAML file named by IDLE_CONFIG_FILE. Env
// variables override anything set here.
type fileConfig struct {
	Addr        string  `yaml:"addr"`
	Storage     string  `yaml:"storage"`
	SavePath    string  `yaml:"save_path"`
	SQLitePath  string  `yaml:"sqlite_path"`
	DatabaseURL string  `yaml:"database_url"`
	SaveSlot    string  `yaml:"save_slot"`
	TickEvery   string  `yaml:"tick_every"`
	SaveEvery   string  `yaml:"save_every"`
	StreamEvery string  `yaml:"stream_every"`
	RateLimit   float64 `yaml:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst"`
	LogLevel    string  `yaml:"log_level"`
	APIBaseURL  string  `yaml:"api_base_url"`
}

func defaultServer() ServerConfig {
	return ServerConfig{
		Addr:        ":8080",
		Storage:     StorageFile,
		SQLitePath:  "idlegalaxy.db",
		SaveSlot:    "game",
		SaveEvery:   10 * time.Second,
		StreamEvery: 250 * time.Millisecond,
		RateLimit:   20,
		RateBurst:   40,
		LogLevel:    slog.LevelInfo,
	}
}

func LoadServerFromEnv() (ServerConfig, error) {
	cfg := defaultServer()
	fc, err := loadFile()
	if err != nil {
		return cfg, err
	}
	if err := fc.applyServer(&cfg); err != nil {
		return cfg, err
	}

	if addr := strings.TrimSpace(os.Getenv("PORT")); addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
		cfg.Addr = addr
	} else {
		cfg.Addr = envDefault("IDLE_API_ADDR", cfg.Addr)
	}
	cfg.Storage = strings.ToLower(envDefault("IDLE_STORAGE", cfg.Storage))
	cfg.SavePath = envDefault("IDLE_SAVE_PATH", cfg.SavePath)
	cfg.SQLitePath = envDefault("IDLE_SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = envDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.SaveSlot = envDefault("IDLE_SAVE_SLOT", cfg.SaveSlot)
	cfg.TickEvery = envDurationDefault("IDLE_TICK_EVERY", cfg.TickEvery)
	cfg.SaveEvery = envDurationDefault("IDLE_SAVE_EVERY", cfg.SaveEvery)
	cfg.StreamEvery = envDurationDefault("IDLE_STREAM_EVERY", cfg.StreamEvery)
	cfg.RateLimit = envFloatDefault("IDLE_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = envIntDefault("IDLE_RATE_BURST", cfg.RateBurst)
	cfg.RunOnce = envBoolDefault("IDLE_WORKER_RUN_ONCE", cfg.RunOnce)
	cfg.LogLevel = envLevelDefault("IDLE_LOG_LEVEL", cfg.LogLevel)

	return cfg, cfg.validate()
}

func (c ServerConfig) validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLRequired
		}
	default:
		return fmt.Errorf("%w: storage %q (want file, sqlite or postgres)", ErrInvalid, c.Storage)
	}
	if c.SaveSlot == "" {
		return fmt.Errorf("%w: empty save slot", ErrInvalid)
	}
	if c.TickEvery < 0 || c.SaveEvery <= 0 || c.StreamEvery <= 0 {
		return fmt.Errorf("%w: tick, save and stream intervals must be positive", ErrInvalid)
	}
	if c.RateLimit < 0 || c.RateBurst < 1 {
		return fmt.Errorf("%w: rate limit %v burst %d", ErrInvalid, c.RateLimit, c.RateBurst)
	}
	return nil
}

func LoadCLIFromEnv() CLIConfig {
	cfg := CLIConfig{
		APIBaseURL: "http://localhost:8080",
		Timeout:    15 * time.Second,
	}
	if fc, err := loadFile(); err == nil && fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(envDefault("IDLE_API_BASE_URL", cfg.APIBaseURL), "/")
	cfg.Timeout = envDurationDefault("IDLE_HTTP_TIMEOUT", cfg.Timeout)
	return cfg
}

func loadFile() (fileConfig, error) {
	var fc fileConfig
	path := strings.TrimSpace(os.Getenv("IDLE_CONFIG_FILE"))
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}
	return fc, nil
}

func (fc fileConfig) applyServer(cfg *ServerConfig) error {
	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.Storage, fc.Storage)
	setString(&cfg.SavePath, fc.SavePath)
	setString(&cfg.SQLitePath, fc.SQLitePath)
	setString(&cfg.DatabaseURL, fc.DatabaseURL)
	setString(&cfg.SaveSlot, fc.SaveSlot)
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"tick_every", fc.TickEvery, &cfg.TickEvery},
		{"save_every", fc.SaveEvery, &cfg.SaveEvery},
		{"stream_every", fc.StreamEvery, &cfg.StreamEvery},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, d.key, err)
		}
		*d.dst = v
	}
	if fc.RateLimit != 0 {
		cfg.RateLimit = fc.RateLimit
	}
	if fc.RateBurst != 0 {
		cfg.RateBurst = fc.RateBurst
	}
	if fc.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(fc.LogLevel)); err != nil {
			return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
