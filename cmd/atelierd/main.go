package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/wearloom/atelier"
	"github.com/wearloom/atelier/internal/config"
	"github.com/wearloom/atelier/internal/server"
)

var (
	cfg struct {
		EnvFile string `help:"Env file to load before reading settings" default:""`
		Addr    string `help:"Listen address override" default:""`
	}
)

func main() {
	_ = kong.Parse(&cfg)

	if len(cfg.EnvFile) > 0 {
		_ = godotenv.Load(cfg.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	settings := config.Load()
	if len(cfg.Addr) > 0 {
		settings.HttpAddr = cfg.Addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline, layer := atelier.FromSettings(ctx, settings)
	defer layer.Shutdown(context.Background())

	httpServer := &http.Server{
		Addr:    settings.HttpAddr,
		Handler: server.New(pipeline, pipeline.Catalog(), settings),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("listening", "addr", settings.HttpAddr, "app", settings.AppName, "ready", pipeline.Ready())

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
