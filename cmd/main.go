package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Badsnus/qrstudio/cmd/studio"
	"github.com/Badsnus/qrstudio/internal/adapters/config"
	"github.com/Badsnus/qrstudio/pkg/logger"

	_ "time/tzdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Panic(err)
	}

	location, err := logger.Location(cfg.Settings.Timezone)
	if err != nil {
		log.Panic(err)
	}
	err = logger.Init(logger.Config{
		Debug:        cfg.Settings.Debug,
		TimeLocation: location,
		LogToFile:    cfg.Settings.LogToFile,
		LogsDir:      cfg.Settings.LogsDir,
	})
	if err != nil {
		log.Panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := studio.New(ctx, cfg)
	if err != nil {
		logger.Log.Panicf("failed to initialize: %v", err)
	}
	if err = app.Start(ctx); err != nil {
		logger.Log.Errorf("stopped with error: %v", err)
		os.Exit(1)
	}
}
