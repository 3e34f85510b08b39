package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Values come from defaults, then an optional
// YAML file named by CHOREIFY_CONFIG, then CHOREIFY_* environment variables.
type Config struct {
	Port        string         `yaml:"port"`
	DBPath      string         `yaml:"db_path"`
	LogLevel    string         `yaml:"log_level"`
	LogFormat   string         `yaml:"log_format"`
	BaseURL     string         `yaml:"base_url"`
	TokenSecret string         `yaml:"token_secret"`
	TokenTTL    time.Duration  `yaml:"token_ttl"`
	SeedDemo    bool           `yaml:"seed_demo"`
	Calendar    CalendarConfig `yaml:"calendar"`
	Push        PushConfig     `yaml:"push"`
	Backup      BackupConfig   `yaml:"backup"`
}

type CalendarConfig struct {
	// Provider is "simulated" or "local".
	Provider   string        `yaml:"provider"`
	Delay      time.Duration `yaml:"delay"`
	QueueSize  int           `yaml:"queue_size"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	MaxRetries uint64        `yaml:"max_retries"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key"`
	Subject         string        `yaml:"subject"`
	CheckInterval   time.Duration `yaml:"check_interval"`
}

func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

type BackupConfig struct {
	Bucket     string        `yaml:"bucket"`
	Region     string        `yaml:"region"`
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	Passphrase string        `yaml:"passphrase"`
	Interval   time.Duration `yaml:"interval"`
}

func (b BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.Passphrase != ""
}

func Defaults() Config {
	return Config{
		Port:      "8080",
		DBPath:    "choreify.db",
		LogLevel:  "info",
		LogFormat: "text",
		BaseURL:   "http://localhost:8080",
		TokenTTL:  7 * 24 * time.Hour,
		SeedDemo:  true,
		Calendar: CalendarConfig{
			Provider:   "simulated",
			Delay:      500 * time.Millisecond,
			QueueSize:  256,
			RatePerSec: 5,
			MaxRetries: 3,
		},
		Push: PushConfig{
			Subject:       "mailto:admin@choreify.local",
			CheckInterval: 15 * time.Minute,
		},
		Backup: BackupConfig{
			Region:   "us-east-1",
			Interval: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CHOREIFY_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	setString(&c.Port, "CHOREIFY_PORT")
	setString(&c.DBPath, "CHOREIFY_DB_PATH")
	setString(&c.LogLevel, "CHOREIFY_LOG_LEVEL")
	setString(&c.LogFormat, "CHOREIFY_LOG_FORMAT")
	setString(&c.BaseURL, "CHOREIFY_BASE_URL")
	setString(&c.TokenSecret, "CHOREIFY_TOKEN_SECRET")
	setString(&c.Calendar.Provider, "CHOREIFY_CALENDAR_PROVIDER")
	setString(&c.Push.VAPIDPublicKey, "CHOREIFY_VAPID_PUBLIC_KEY")
	setString(&c.Push.VAPIDPrivateKey, "CHOREIFY_VAPID_PRIVATE_KEY")
	setString(&c.Push.Subject, "CHOREIFY_VAPID_SUBJECT")
	setString(&c.Backup.Bucket, "CHOREIFY_S3_BUCKET")
	setString(&c.Backup.Region, "CHOREIFY_S3_REGION")
	setString(&c.Backup.Endpoint, "CHOREIFY_S3_ENDPOINT")
	setString(&c.Backup.AccessKey, "CHOREIFY_S3_ACCESS_KEY")
	setString(&c.Backup.SecretKey, "CHOREIFY_S3_SECRET_KEY")
	setString(&c.Backup.Passphrase, "CHOREIFY_BACKUP_PASSPHRASE")

	var errs []error
	errs = append(errs,
		setDuration(&c.TokenTTL, "CHOREIFY_TOKEN_TTL"),
		setDuration(&c.Calendar.Delay, "CHOREIFY_CALENDAR_DELAY"),
		setDuration(&c.Push.CheckInterval, "CHOREIFY_PUSH_INTERVAL"),
		setDuration(&c.Backup.Interval, "CHOREIFY_BACKUP_INTERVAL"),
		setBool(&c.SeedDemo, "CHOREIFY_SEED_DEMO"),
	)
	return errors.Join(errs...)
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid CHOREIFY_PORT %q", c.Port)
	}
	if len(c.TokenSecret) < 16 {
		return errors.New("CHOREIFY_TOKEN_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl %s", c.TokenTTL)
	}
	switch c.Calendar.Provider {
	case "simulated", "local":
	default:
		return fmt.Errorf("invalid CHOREIFY_CALENDAR_PROVIDER %q: must be simulated or local", c.Calendar.Provider)
	}
	if c.Calendar.QueueSize < 1 || c.Calendar.RatePerSec <= 0 {
		return errors.New("calendar queue size and rate must be positive")
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		return errors.New("both VAPID keys must be set to enable push")
	}
	if c.Backup.Bucket != "" && c.Backup.Passphrase == "" {
		return errors.New("CHOREIFY_BACKUP_PASSPHRASE is required when a backup bucket is set")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}
