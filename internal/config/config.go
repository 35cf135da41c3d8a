// Package config holds the raffle bot configuration: the shared core
// settings plus database, raffle rules, the ops endpoint and tracing.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/ticketbot/core/config"
	"github.com/m3rciful/ticketbot/core/database"
	"github.com/m3rciful/ticketbot/internal/ledger"
	"github.com/m3rciful/ticketbot/internal/receipt"
	"github.com/m3rciful/ticketbot/internal/tracing"
)

// RaffleConfig describes the raffle rules.
type RaffleConfig struct {
	TicketPrice     int64  `yaml:"ticket_price" envconfig:"TICKET_PRICE"`
	Currency        string `yaml:"currency" envconfig:"RAFFLE_CURRENCY"`
	WelcomeFile     string `yaml:"welcome_file" envconfig:"WELCOME_FILE"`
	MaxReceiptBytes int64  `yaml:"max_receipt_bytes" envconfig:"MAX_RECEIPT_BYTES"`
	// MaxTicketsPerReceipt rejects receipts buying more tickets than this.
	MaxTicketsPerReceipt int `yaml:"max_tickets_per_receipt" envconfig:"MAX_TICKETS_PER_RECEIPT"`
	// Timezone is an IANA name used for receipt dates and ticket timestamps.
	Timezone string `yaml:"timezone" envconfig:"RAFFLE_TIMEZONE"`

	loc *time.Location
}

// Location returns the parsed Timezone (UTC before Normalize).
func (r RaffleConfig) Location() *time.Location {
	if r.loc == nil {
		return time.UTC
	}
	return r.loc
}

// OpsConfig configures the metrics and health endpoint. Empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Raffle   RaffleConfig    `yaml:"raffle"`
	Ops      OpsConfig       `yaml:"ops"`
	Tracing  tracing.Config  `yaml:"tracing"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if c.Telegram.AdminID <= 0 {
		return fmt.Errorf("telegram.admin_id (ADMIN_USER_ID) is required")
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	r := &c.Raffle
	switch {
	case r.TicketPrice == 0:
		r.TicketPrice = ledger.DefaultTicketPrice
	case r.TicketPrice < 0:
		return fmt.Errorf("raffle.ticket_price must be positive, got %d", r.TicketPrice)
	}
	r.Currency = strings.TrimSpace(r.Currency)
	if r.Currency == "" {
		r.Currency = receipt.DefaultCurrency
	}
	if r.MaxReceiptBytes <= 0 {
		r.MaxReceiptBytes = receipt.DefaultMaxBytes
	}
	switch {
	case r.MaxTicketsPerReceipt == 0:
		r.MaxTicketsPerReceipt = ledger.DefaultMaxTickets
	case r.MaxTicketsPerReceipt < 0:
		return fmt.Errorf("raffle.max_tickets_per_receipt must be positive, got %d", r.MaxTicketsPerReceipt)
	}
	tz := strings.TrimSpace(r.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("raffle.timezone: %w", err)
	}
	r.Timezone, r.loc = tz, loc

	c.Ops.Listen = strings.TrimSpace(c.Ops.Listen)
	return c.Tracing.Normalize()
}
