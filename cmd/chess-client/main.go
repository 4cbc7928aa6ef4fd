package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/clientbuilder"
	appcfg "github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/console"
	"github.com/park285/cheese-board/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := clientbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init error", zap.Error(err))
	}
	defer deps.Close()

	logger.Info("client_start",
		zap.String("session_id", deps.Engine.SessionID()),
		zap.String("rules_backend", cfg.RulesBackend),
		zap.String("engine", cfg.EngineBaseURL),
		zap.String("listen", cfg.ListenAddr),
	)

	if err := deps.Begin(ctx); err != nil {
		// the match can still be started from a front end
		logger.Warn("initial_start_failed", zap.Error(err))
	}

	go deps.Hub.Run(ctx)
	go func() {
		if err := deps.Hub.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("bridge_serve_failed", zap.Error(err))
			stop()
		}
	}()

	if cfg.Console {
		c := console.New(deps.Engine, deps.Catalog, os.Stdin, os.Stdout, logger.Named("console"))
		if err := c.Run(ctx); err != nil {
			logger.Warn("console_stopped", zap.Error(err))
		}
		stop()
	}

	<-ctx.Done()
	logger.Info("client_stop")
}
