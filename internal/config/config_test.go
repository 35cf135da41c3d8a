package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
telegram:
  token: "yaml-token"
  admin_id: 42
database:
  host: db
  name: raffle
  user: bot
raffle:
  ticket_price: 5000
  timezone: Asia/Almaty
ops:
  listen: " :9090 "
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "yaml-token" || cfg.Telegram.AdminID != 42 {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Raffle.TicketPrice != 5000 || cfg.Raffle.Currency != "₸" {
		t.Fatalf("raffle = %+v", cfg.Raffle)
	}
	if cfg.Raffle.Location().String() != "Asia/Almaty" {
		t.Fatalf("location = %s", cfg.Raffle.Location())
	}
	if cfg.Database.Port != "5432" || cfg.Ops.Listen != ":9090" {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Database, cfg.Ops)
	}
	if cfg.CoreConfig().Telegram.RunMode != "longpoll" {
		t.Fatalf("run mode = %q", cfg.CoreConfig().Telegram.RunMode)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("TICKET_PRICE", "7900")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Raffle.TicketPrice != 7900 || cfg.Database.Password != "secret" {
		t.Fatalf("env not applied: %+v %+v", cfg.Raffle, cfg.Database)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]string{
		"missing admin": `
telegram: {token: t}
database: {host: db, name: n, user: u}
`,
		"negative price": `
telegram: {token: t, admin_id: 1}
database: {host: db, name: n, user: u}
raffle: {ticket_price: -5}
`,
		"bad timezone": `
telegram: {token: t, admin_id: 1}
database: {host: db, name: n, user: u}
raffle: {timezone: Mars/Olympus}
`,
		"missing database": `
telegram: {token: t, admin_id: 1}
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDefaultPrice(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram: {token: t, admin_id: 1}
database: {host: db, name: n, user: u}
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Raffle.TicketPrice != 7900 || cfg.Raffle.MaxReceiptBytes != 10<<20 || cfg.Raffle.MaxTicketsPerReceipt != 1000 {
		t.Fatalf("raffle defaults = %+v", cfg.Raffle)
	}
	if cfg.Raffle.Location().String() != "UTC" {
		t.Fatalf("location = %s", cfg.Raffle.Location())
	}
}
