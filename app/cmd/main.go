package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"docqa/app/server"
	"docqa/types"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Env vars may come from the shell instead of a .env file.
	_ = godotenv.Load()

	var cfg types.Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}

	s := server.New(cfg)
	go func() {
		if err := s.Run(); err != nil {
			slog.Error("server exited", "error", err)
			os.Exit(1)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	slog.Info("received shutdown signal, shutting down server")
	s.Stop()
}
