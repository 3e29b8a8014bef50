package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9090"
database:
  dsn: "postgres://u:p@localhost/prizes"
jwt:
  secret: "s3cret"
  expiry: 2h
storage:
  driver: gcs
  bucket: audit-photos
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.JWT.Expiry != 2*time.Hour {
		t.Fatalf("expiry = %s", cfg.JWT.Expiry)
	}
	if cfg.Storage.Bucket != "audit-photos" {
		t.Fatalf("bucket = %q", cfg.Storage.Bucket)
	}
	if cfg.Redis.Channel != "prizedesk:changes" {
		t.Fatalf("default channel lost: %q", cfg.Redis.Channel)
	}
	if cfg.Audit.Interval != 15*time.Minute {
		t.Fatalf("default audit interval lost: %s", cfg.Audit.Interval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvJWTSecret, "from-env")
	t.Setenv(EnvDatabaseDSN, "file:env.db")
	t.Setenv(EnvRedisAddr, "localhost:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" || cfg.Database.DSN != "file:env.db" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv(EnvJWTSecret, "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func TestValidateStorageDriver(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "x"
	cfg.Storage.Driver = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	cfg.Storage.Driver = "gcs"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for gcs without bucket")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/prizedesk.yaml")
	if got := ResolveConfigPath(" custom.yaml "); got != "custom.yaml" {
		t.Fatalf("flag path = %q", got)
	}
	if got := ResolveConfigPath(""); got != "/etc/prizedesk.yaml" {
		t.Fatalf("env path = %q", got)
	}
	t.Setenv(EnvConfigPath, "")
	if got := ResolveConfigPath(""); got != "config.yaml" {
		t.Fatalf("default path = %q", got)
	}
}
