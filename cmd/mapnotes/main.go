package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/mapnotes/internal/app"
	"github.com/mohammed-shakir/mapnotes/internal/core/config"
	"github.com/mohammed-shakir/mapnotes/internal/core/observability"
	"github.com/mohammed-shakir/mapnotes/internal/core/server"
	"github.com/mohammed-shakir/mapnotes/internal/httpapi"
	"github.com/mohammed-shakir/mapnotes/internal/logger"
	"github.com/mohammed-shakir/mapnotes/internal/metrics"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		zl := logger.Build(logger.Config{Level: "error", Service: "mapnotes"}, os.Stderr)
		zl.Error().Err(err).Msg("config")
		return 2
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   !cfg.LogJSON || strings.EqualFold(os.Getenv("LOG_CONSOLE"), "true"),
		Service:   "mapnotes",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	var provider *metrics.Provider
	if cfg.Metrics.Enabled {
		provider = metrics.Init(metrics.Config{
			Build: metrics.BuildInfo{Version: Version, Revision: Revision, BuildDate: BuildDate},
		})
		observability.Init(provider.Registerer(), true)
	} else {
		observability.Init(nil, false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.Info("starting mapnotes",
		"addr", cfg.Addr,
		"version", Version,
		"storage", cfg.Storage.Backend,
		"events", cfg.Events.Driver)

	a, err := app.New(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("startup failed", "err", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLog.Error("shutdown", "err", err)
		}
	}()

	deps := server.Deps{
		API:          httpapi.New(a.Workspace, appLog, cfg.Import.MaxCSVBytes),
		Ready:        a.KV,
		ReadyTimeout: cfg.Storage.OpTimeout,
	}
	if provider != nil {
		deps.Metrics = provider.Handler()
	}

	if err := server.Run(ctx, cfg.Addr, cfg.Shutdown, appLog, server.NewRouter(appLog, deps)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
