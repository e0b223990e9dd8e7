package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", OperatorID: 77},
		Webhook:  WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 8443},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Support.CloseKeyword != "!close" {
		t.Errorf("close keyword default = %q", cfg.Support.CloseKeyword)
	}
	if cfg.Support.OpenHour != 9 || cfg.Support.CloseHour != 21 {
		t.Errorf("support hours default = %d..%d", cfg.Support.OpenHour, cfg.Support.CloseHour)
	}
	if cfg.Scheduler.SelfCheckSeconds != 60 || cfg.Scheduler.StopGraceSeconds != 5 {
		t.Errorf("scheduler defaults = %+v", cfg.Scheduler)
	}
	if cfg.Health.Port != 8081 {
		t.Errorf("health port default = %d", cfg.Health.Port)
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = " " }, "telegram.token"},
		{"missing operator", func(c *Config) { c.Telegram.OperatorID = 0 }, "telegram.operator_id"},
		{"missing webhook url", func(c *Config) { c.Webhook.URL = "" }, "webhook.url"},
		{"missing webhook listen", func(c *Config) { c.Webhook.Listen = "" }, "webhook.listen"},
		{"bad webhook port", func(c *Config) { c.Webhook.Port = 0 }, "webhook.port"},
		{"bad open hour", func(c *Config) { c.Support.OpenHour = 24; c.Support.CloseHour = 1 }, "support.open_hour"},
		{"bad interval", func(c *Config) { c.Scheduler.ActivitySeconds = -1 }, "scheduler.activity_seconds"},
		{"bad exclude", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline"} }, "rate_limit.exclude_updates"},
		{"db without host", func(c *Config) { c.Database.Enabled = true }, "database.host"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Normalize(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	raw := `
telegram:
  token: "123:abc"
  operator_id: 42
webhook:
  url: "https://relay.example.com/hook"
  listen: "0.0.0.0"
  port: 8443
support:
  open_hour: 8
  close_hour: 20
  close_keyword: "done"
scheduler:
  activity_seconds: 60
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.OperatorID != 42 {
		t.Errorf("operator id = %d", cfg.Telegram.OperatorID)
	}
	if cfg.Support.CloseKeyword != "done" {
		t.Errorf("close keyword = %q", cfg.Support.CloseKeyword)
	}
	if cfg.Scheduler.ActivitySeconds != 60 {
		t.Errorf("activity interval = %d", cfg.Scheduler.ActivitySeconds)
	}
	if cfg.Scheduler.LivenessSeconds != 120 {
		t.Errorf("liveness default = %d", cfg.Scheduler.LivenessSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
