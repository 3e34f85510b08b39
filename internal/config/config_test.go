package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"CHOREIFY_CONFIG", "CHOREIFY_PORT", "CHOREIFY_DB_PATH", "CHOREIFY_LOG_LEVEL", "CHOREIFY_LOG_FORMAT",
	"CHOREIFY_BASE_URL", "CHOREIFY_TOKEN_SECRET", "CHOREIFY_TOKEN_TTL", "CHOREIFY_SEED_DEMO",
	"CHOREIFY_CALENDAR_PROVIDER", "CHOREIFY_CALENDAR_DELAY",
	"CHOREIFY_VAPID_PUBLIC_KEY", "CHOREIFY_VAPID_PRIVATE_KEY", "CHOREIFY_VAPID_SUBJECT", "CHOREIFY_PUSH_INTERVAL",
	"CHOREIFY_S3_BUCKET", "CHOREIFY_S3_REGION", "CHOREIFY_S3_ENDPOINT", "CHOREIFY_S3_ACCESS_KEY",
	"CHOREIFY_S3_SECRET_KEY", "CHOREIFY_BACKUP_PASSPHRASE", "CHOREIFY_BACKUP_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "choreify.db" {
		t.Errorf("DBPath = %q, want choreify.db", cfg.DBPath)
	}
	if cfg.Calendar.Provider != "simulated" {
		t.Errorf("Provider = %q, want simulated", cfg.Calendar.Provider)
	}
	if cfg.Push.Enabled() || cfg.Backup.Enabled() {
		t.Error("push and backup should be disabled by default")
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "choreify.yaml")
	yml := `
port: "9000"
log_level: debug
token_secret: from-file-0123456789
calendar:
  provider: local
  delay: 2s
backup:
  bucket: household-backups
  passphrase: correct horse
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHOREIFY_CONFIG", path)
	t.Setenv("CHOREIFY_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q, want env value 9100", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Calendar.Provider != "local" || cfg.Calendar.Delay != 2*time.Second {
		t.Errorf("Calendar = %+v", cfg.Calendar)
	}
	if cfg.Calendar.QueueSize != 256 {
		t.Errorf("QueueSize = %d, want default 256", cfg.Calendar.QueueSize)
	}
	if !cfg.Backup.Enabled() {
		t.Error("backup should be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoadBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHOREIFY_TOKEN_TTL", "forever")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHOREIFY_TOKEN_TTL") {
		t.Errorf("err = %v, want CHOREIFY_TOKEN_TTL error", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.TokenSecret = "0123456789abcdef"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Port = "70000" }, true},
		{"short secret", func(c *Config) { c.TokenSecret = "short" }, true},
		{"unknown provider", func(c *Config) { c.Calendar.Provider = "outlook" }, true},
		{"half vapid", func(c *Config) { c.Push.VAPIDPublicKey = "pub" }, true},
		{"bucket without passphrase", func(c *Config) { c.Backup.Bucket = "b" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
