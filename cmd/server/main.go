package main

import (
	"context"
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/hub"
	"ctchen222/tictactoe/internal/logger"
	"ctchen222/tictactoe/internal/server"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/internal/sound"
	"ctchen222/tictactoe/internal/telemetry"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level, _ := cfg.SlogLevel()
	logger.Init(os.Stderr, level)
	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("error shutting down telemetry", "error", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return err
	}

	asset, err := sound.Resolve(cfg.SoundAsset)
	if err != nil {
		slog.Warn("move sound disabled", "error", err)
		asset = nil
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	h := hub.NewHub(metrics)
	go h.Run(hubCtx)

	srv := server.NewServer(h, metrics, session.Config{
		AIDelay:     cfg.AIMoveDelay,
		Player1Name: cfg.Player1Name,
		Player2Name: cfg.Player2Name,
	}, asset)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		stopHub()
		<-h.Done()
		return fmt.Errorf("listen and serve: %w", err)
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Websocket connections are hijacked, so the hub closes them.
	stopHub()
	<-h.Done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exiting")
	return nil
}
