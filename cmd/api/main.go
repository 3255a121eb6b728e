package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"pagewatch/config"
	"pagewatch/internals/app"
	"pagewatch/internals/server"
	"pagewatch/pkg/logger"
)

func main() {
	configPath := flag.String("config", envOr("PAGEWATCH_CONFIG", "env.yaml"), "path to the yaml config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Done is closed on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Str("config", *configPath).Msg("logger initialized")

	// log level follows edits to the config file; everything else needs a restart
	if err := config.Watch(*configPath, log, func(next *config.Config) {
		logger.SetLevel(next.Env, next.Log.Level)
	}); err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	}

	container, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	container.ResultPro.Start()
	if err := container.Scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	app.StartConsumer(ctx, container)

	router := app.RegisterRoutes(container)

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// 1. stop accepting requests
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// 2. drain checks and close backends
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownTimeout)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
