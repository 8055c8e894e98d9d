// Package config loads service configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Queues   QueuesConfig   `yaml:"queues"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig configures the operational HTTP listener (health, metrics).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePrefix string `yaml:"file_prefix"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
	Migrate         bool   `yaml:"migrate"`
}

// QueuesConfig configures the queue provider and the three queue endpoints.
type QueuesConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`

	DeadlineURL      string `yaml:"deadline_url"`
	GradingResultURL string `yaml:"grading_result_url"`
	GradingURL       string `yaml:"grading_url"`

	PollInterval time.Duration `yaml:"poll_interval"`
	PollWait     time.Duration `yaml:"poll_wait"`
	MaxInFlight  int           `yaml:"max_in_flight"`
}

// StorageConfig configures where uploaded documents are stored.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "local" or "s3"

	LocalDir     string `yaml:"local_dir"`
	LocalBaseURL string `yaml:"local_base_url"`

	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// Load reads the file named by CONFIG_FILE (when set) and applies
// environment overrides on top of the defaults.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Queues: QueuesConfig{
			PollInterval: 2 * time.Second,
			PollWait:     5 * time.Second,
			MaxInFlight:  10,
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: "application_files",
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Logging.Output, "LOG_OUTPUT")

	setString(&cfg.Database.DSN, "DATABASE_URL")
	setInt(&cfg.Database.MaxOpenConns, "DATABASE_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "DATABASE_MAX_IDLE_CONNS")
	setInt(&cfg.Database.ConnMaxLifetime, "DATABASE_CONN_MAX_LIFETIME")
	setBool(&cfg.Database.Migrate, "DATABASE_MIGRATE")

	setString(&cfg.Queues.Region, "REGION")
	setString(&cfg.Queues.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&cfg.Queues.SecretKey, "AWS_SECRET_ACCESS_KEY")
	setString(&cfg.Queues.Endpoint, "SQS_ENDPOINT")
	setString(&cfg.Queues.DeadlineURL, "DEADLINE_QUEUE_URL")
	setString(&cfg.Queues.GradingResultURL, "GRADING_RESULT_QUEUE_URL")
	setString(&cfg.Queues.GradingURL, "GRADING_QUEUE_URL")
	setDuration(&cfg.Queues.PollInterval, "QUEUE_POLL_INTERVAL")
	setDuration(&cfg.Queues.PollWait, "QUEUE_POLL_WAIT")
	setInt(&cfg.Queues.MaxInFlight, "QUEUE_MAX_IN_FLIGHT")

	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.LocalDir, "APPLICATION_FILES_DIR")
	setString(&cfg.Storage.LocalBaseURL, "APPLICATION_FILES_BASE_URL")
	setString(&cfg.Storage.Region, "STORAGE_REGION")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
}

func (c *Config) validate() error {
	if c.Queues.DeadlineURL == "" {
		return fmt.Errorf("deadline queue url is required (DEADLINE_QUEUE_URL)")
	}
	if c.Queues.GradingResultURL == "" {
		return fmt.Errorf("grading result queue url is required (GRADING_RESULT_QUEUE_URL)")
	}
	if c.Queues.GradingURL == "" {
		return fmt.Errorf("grading queue url is required (GRADING_QUEUE_URL)")
	}
	if c.Storage.Backend != "local" && c.Storage.Backend != "s3" {
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}
