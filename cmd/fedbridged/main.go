package main

import (
	"context"
	"os"

	"github.com/neogan74/fedbridge/internal/app"
	"github.com/neogan74/fedbridge/internal/config"
	"github.com/neogan74/fedbridge/internal/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewFromConfig("info", "text")
		log.Error("Failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.NewBuilder(cfg, version).Build(ctx)
	if err != nil {
		logger.GetDefault().Error("Failed to build application", logger.Error(err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		os.Exit(1)
	}
}
