package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gilcleber/Controle-Premios-sub000/internal/app"
	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	log "github.com/sirupsen/logrus"
)

func main() {
	var cfg config.AppConfig
	flag.StringVar(&cfg.ConfigPath, "config", "", "path to the YAML config (default $"+config.EnvConfigPath+" or config.yaml)")
	flag.BoolVar(&cfg.MigrateOnly, "migrate", false, "run database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnly {
		if err := app.Migrate(ctx, cfg); err != nil {
			log.WithError(err).Fatal("migrate failed")
		}
		return
	}
	if err := app.RunServer(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
