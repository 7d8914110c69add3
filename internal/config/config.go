package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server, scheduler and NATS settings, loaded from a yaml file
// with sane defaults for anything omitted.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Scheduler struct {
		IntervalSec       int `yaml:"interval_sec"`
		BatchSize         int `yaml:"batch_size"`
		InterDraftDelayMs int `yaml:"inter_draft_delay_ms"`
		FailureThreshold  int `yaml:"failure_threshold"`
		RestartDelaySec   int `yaml:"restart_delay_sec"`
	} `yaml:"scheduler"`
	Nats struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

// Load reads a yaml config file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Scheduler.IntervalSec = 10
	cfg.Scheduler.BatchSize = 50
	cfg.Scheduler.InterDraftDelayMs = 100
	cfg.Scheduler.FailureThreshold = 5
	cfg.Scheduler.RestartDelaySec = 30
	cfg.Nats.URL = getEnv("NATS_URL", "nats://localhost:4222")
	cfg.Nats.StreamName = "DRAFT_EVENTS"
	cfg.Nats.SubjectPrefix = "draft.events"
	return cfg
}

// SchedulerInterval returns the scan interval as a duration.
func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalSec) * time.Second
}

// InterDraftDelay returns the pause between per-draft autopick checks.
func (c *Config) InterDraftDelay() time.Duration {
	return time.Duration(c.Scheduler.InterDraftDelayMs) * time.Millisecond
}

// RestartDelay returns how long a suspended scheduler waits before restarting.
func (c *Config) RestartDelay() time.Duration {
	return time.Duration(c.Scheduler.RestartDelaySec) * time.Second
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDBConfigFromEnv reads DB_* environment variables (with defaults).
func NewDBConfigFromEnv() DBConfig {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	return DBConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "draftnight"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the Postgres connection URL.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
