package main

import (
	"log"

	"go-leave-assistant/internal/app"
	"go-leave-assistant/internal/bootstrap"
	"go-leave-assistant/internal/config"
	"go-leave-assistant/internal/shared/apperror"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := cfg.ValidateAPI(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	apperror.Init()

	// build dependency + routes
	router, infra, err := app.BuildApp(cfg, logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer infra.Close()

	bootstrap.StartHTTPServer(
		router,
		bootstrap.DefaultServerConfig(cfg.Port),
		bootstrap.NewZapAuditLogger(logger),
	)
}
