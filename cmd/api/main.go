package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/collegetrack/collegetrack/internal/config"
	"github.com/collegetrack/collegetrack/internal/logging"
	"github.com/collegetrack/collegetrack/internal/relay"
	"github.com/collegetrack/collegetrack/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	completer, err := relay.NewOpenAICompleter(cfg.CompletionKey, cfg.CompletionBaseURL, config.CompletionKeyEnvVar)
	if err != nil {
		logger.Error("build completion client", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, completer, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "address", cfg.Address(), "model", cfg.ChatModel)
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
