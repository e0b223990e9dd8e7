package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// OperatorID is the chat id of the single operator handling relayed requests.
	OperatorID int64 `yaml:"operator_id" envconfig:"TELEGRAM_OPERATOR_ID"`
}

// WebhookConfig specifies the webhook listener settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// HealthConfig specifies the liveness HTTP endpoint settings.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port   int    `yaml:"port" envconfig:"HEALTH_PORT"`
}

// SupportConfig tunes the relay conversation behaviour.
type SupportConfig struct {
	// OpenHour/CloseHour bound the in-hours window (local time, 24h clock).
	// Requests outside the window get the off-hours acknowledgement.
	OpenHour  int `yaml:"open_hour" envconfig:"SUPPORT_OPEN_HOUR"`
	CloseHour int `yaml:"close_hour" envconfig:"SUPPORT_CLOSE_HOUR"`
	// CloseKeyword is the literal text the operator sends to close the
	// currently selected chat.
	CloseKeyword string `yaml:"close_keyword" envconfig:"SUPPORT_CLOSE_KEYWORD"`
}

// SchedulerConfig holds intervals for the background tasks, in seconds.
type SchedulerConfig struct {
	ActivitySeconds  int `yaml:"activity_seconds" envconfig:"SCHED_ACTIVITY_SECONDS"`
	SelfCheckSeconds int `yaml:"self_check_seconds" envconfig:"SCHED_SELF_CHECK_SECONDS"`
	LivenessSeconds  int `yaml:"liveness_seconds" envconfig:"SCHED_LIVENESS_SECONDS"`
	// StopGraceSeconds bounds how long Stop waits for running ticks.
	StopGraceSeconds int `yaml:"stop_grace_seconds" envconfig:"SCHED_STOP_GRACE_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// DatabaseConfig holds the optional history database settings.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Config aggregates the whole process configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Health    HealthConfig    `yaml:"health"`
	Support   SupportConfig   `yaml:"support"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and adjusts defaults.
// A returned error means the process must not start.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Telegram.OperatorID == 0 {
		return fmt.Errorf("telegram.operator_id is required")
	}

	if strings.TrimSpace(cfg.Webhook.URL) == "" {
		return fmt.Errorf("webhook.url is required")
	}
	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		return fmt.Errorf("webhook.listen is required")
	}
	if cfg.Webhook.Port <= 0 {
		return fmt.Errorf("webhook.port must be > 0")
	}

	if cfg.Health.Listen == "" {
		cfg.Health.Listen = "0.0.0.0"
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8081
	}
	if cfg.Health.Port < 0 {
		return fmt.Errorf("health.port must be > 0")
	}

	if cfg.Support.OpenHour == 0 && cfg.Support.CloseHour == 0 {
		cfg.Support.OpenHour = 9
		cfg.Support.CloseHour = 21
	}
	if cfg.Support.OpenHour < 0 || cfg.Support.OpenHour > 23 {
		return fmt.Errorf("support.open_hour must be within 0..23")
	}
	if cfg.Support.CloseHour < 0 || cfg.Support.CloseHour > 23 {
		return fmt.Errorf("support.close_hour must be within 0..23")
	}
	if cfg.Support.CloseKeyword == "" {
		cfg.Support.CloseKeyword = "!close"
	}

	if cfg.Scheduler.ActivitySeconds == 0 {
		cfg.Scheduler.ActivitySeconds = 300
	}
	if cfg.Scheduler.SelfCheckSeconds == 0 {
		cfg.Scheduler.SelfCheckSeconds = 60
	}
	if cfg.Scheduler.LivenessSeconds == 0 {
		cfg.Scheduler.LivenessSeconds = 120
	}
	if cfg.Scheduler.StopGraceSeconds == 0 {
		cfg.Scheduler.StopGraceSeconds = 5
	}
	for name, v := range map[string]int{
		"scheduler.activity_seconds":   cfg.Scheduler.ActivitySeconds,
		"scheduler.self_check_seconds": cfg.Scheduler.SelfCheckSeconds,
		"scheduler.liveness_seconds":   cfg.Scheduler.LivenessSeconds,
		"scheduler.stop_grace_seconds": cfg.Scheduler.StopGraceSeconds,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database.host, database.name and database.user are required when database.enabled")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	}

	return nil
}
