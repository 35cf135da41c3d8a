package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, `
telegram:
  token: yaml-token
  admin_id: 1
  run_mode: polling
rate_limit:
  interval_ms: 300
  exclude_updates: [" Callback "]
`)
	t.Setenv("ADMIN_USER_ID", "777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "yaml-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 777 {
		t.Fatalf("admin id = %d, want env override 777", cfg.Telegram.AdminID)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude updates not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}
	if cfg.RateLimit.Burst != 1 {
		t.Fatalf("burst default = %d", cfg.RateLimit.Burst)
	}
}

func TestLoadIntoMissingFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	var cfg Config
	if err := LoadInto(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatalf("load into: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	cases := map[string]Config{
		"missing token":   {},
		"bad run mode":    {Telegram: TelegramConfig{Token: "x", RunMode: "carrier-pigeon"}},
		"webhook no url":  {Telegram: TelegramConfig{Token: "x", RunMode: RunModeWebhook}},
		"bad exclusion":   {Telegram: TelegramConfig{Token: "x"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}},
		"negative admin":  {Telegram: TelegramConfig{Token: "x", AdminID: -5}},
		"negative window": {Telegram: TelegramConfig{Token: "x"}, RateLimit: RateLimitConfig{IntervalMS: -1}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNormalizeReportsAllProblems(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{RunMode: RunModeWebhook},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{"", "poll"}},
	}
	err := Normalize(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"telegram.token", "webhook.url", "webhook.port", `"poll"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestNormalizeDropsBlankExclusions(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "x"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" ", "MESSAGE"}},
	}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(cfg.RateLimit.ExcludeUpdates) != 1 || cfg.RateLimit.ExcludeUpdates[0] != UpdateMessage {
		t.Fatalf("exclusions = %v", cfg.RateLimit.ExcludeUpdates)
	}
}
