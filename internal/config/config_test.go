package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort == "" {
		t.Error("HTTPPort empty")
	}
	if cfg.BufferQueueSize <= 0 {
		t.Errorf("BufferQueueSize = %d, want positive default", cfg.BufferQueueSize)
	}
	if cfg.InviteTTLDays <= 0 {
		t.Errorf("InviteTTLDays = %d, want positive default", cfg.InviteTTLDays)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate on defaults: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9191")
	t.Setenv("BUFFER_QUEUE_SIZE", "32")
	t.Setenv("DB_DATABASE", "collab_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "9191" {
		t.Errorf("HTTPPort = %q, want 9191", cfg.HTTPPort)
	}
	if cfg.BufferQueueSize != 32 {
		t.Errorf("BufferQueueSize = %d, want 32", cfg.BufferQueueSize)
	}
	if cfg.DB.Database != "collab_test" {
		t.Errorf("DB.Database = %q, want collab_test", cfg.DB.Database)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := Load()
	cfg.DB.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate passed with empty DB_HOST")
	}

	cfg, _ = Load()
	cfg.AppEnv = "production"
	cfg.DB.Password = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "production") {
		t.Errorf("Validate in production without password = %v", err)
	}

	cfg, _ = Load()
	cfg.InviteTTLDays = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate passed with zero invite TTL")
	}
}

func TestConnectionStrings(t *testing.T) {
	t.Setenv("DB_PASSWORD", "p@ss/word")
	cfg, _ := Load()

	dsn := cfg.DSN()
	if !strings.Contains(dsn, "dbname="+cfg.DB.Database) {
		t.Errorf("DSN = %q, missing dbname", dsn)
	}

	u := cfg.DatabaseURL()
	if !strings.HasPrefix(u, "postgres://") {
		t.Errorf("DatabaseURL = %q, want postgres scheme", u)
	}
	if strings.Contains(u, "p@ss/word") {
		t.Errorf("DatabaseURL = %q, password not escaped", u)
	}
}
