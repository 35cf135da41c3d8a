// Command ticketbot runs the receipt raffle Telegram bot.
package main

import (
	"fmt"
	"log"
	_ "time/tzdata"

	"github.com/m3rciful/ticketbot/core/cmd"
	"github.com/m3rciful/ticketbot/internal/app"
	"github.com/m3rciful/ticketbot/internal/config"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	a, err := app.Bootstrap(cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}
