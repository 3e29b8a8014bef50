package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by the loader.
const (
	EnvConfigPath  = "PRIZEDESK_CONFIG"
	EnvDatabaseDSN = "PRIZEDESK_DATABASE_DSN"
	EnvJWTSecret   = "PRIZEDESK_JWT_SECRET"
	EnvRedisAddr   = "PRIZEDESK_REDIS_ADDR"

	defaultConfigPath = "config.yaml"
)

// AppConfig holds command-line inputs for the application.
type AppConfig struct {
	ConfigPath  string // Path to the YAML file.
	MigrateOnly bool   // Run migrations and exit.
}

// Config is the YAML document read at startup.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Audit     JobConfig       `yaml:"audit"`
	Scheduler JobConfig       `yaml:"scheduler"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin mode: debug, release or test.
}

// DatabaseConfig configures the relational store.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max-open-conns"`
	TimeZone     string `yaml:"timezone"`
}

// JWTConfig configures session tokens.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// RedisConfig configures the cross-instance change feed; an empty Addr keeps the feed in process.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// StorageConfig selects the audit-photo backend.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // local or gcs.
	Dir           string `yaml:"dir"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public-base-url"`
}

// LoggingConfig configures logrus output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json.
	File       string `yaml:"file"`
	Stdout     bool   `yaml:"stdout"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// JobConfig configures a background loop.
type JobConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// BootstrapConfig seeds the first master admin when the admins table is empty.
type BootstrapConfig struct {
	AdminUsername string `yaml:"admin-username"`
	AdminPassword string `yaml:"admin-password"`
}

// ResolveConfigPath returns the config path, falling back to env then default.
func ResolveConfigPath(path string) string {
	path = strings.TrimSpace(path)
	if path != "" {
		return path
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return env
	}
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", Mode: "release"},
		Database:  DatabaseConfig{DSN: "file:data/prizedesk.db"},
		JWT:       JWTConfig{Expiry: 12 * time.Hour},
		Redis:     RedisConfig{Channel: "prizedesk:changes"},
		Storage:   StorageConfig{Driver: "local", Dir: "data/photos", PublicBaseURL: "/photos"},
		Logging:   LoggingConfig{Level: "info", Format: "text", Stdout: true, MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 28},
		Audit:     JobConfig{Enabled: true, Interval: 15 * time.Minute},
		Scheduler: JobConfig{Enabled: true, Interval: time.Minute},
	}
}

// Load reads the YAML file at path over the defaults and applies env overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	applyEnv(&cfg)
	if errValidate := cfg.Validate(); errValidate != nil {
		return Config{}, errValidate
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Redis.Addr = v
	}
}

// Validate checks required values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database.dsn is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt.secret is required")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("config: jwt.expiry must be positive")
	}
	switch c.Storage.Driver {
	case "local":
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return errors.New("config: storage.dir is required for the local driver")
		}
	case "gcs":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("config: storage.bucket is required for the gcs driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
