package main

import (
	"context"
	"log"

	corecmd "github.com/m3rciful/screeningbot/core/cmd"
	coreconfig "github.com/m3rciful/screeningbot/core/config"
	"github.com/m3rciful/screeningbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return bot.Bootstrap(ctx, cfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
