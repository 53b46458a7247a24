package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/config"
	"github.com/quickserve/quickserve-go/internal/devserver"
	"github.com/quickserve/quickserve-go/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load configuration: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init(cfg.LogLevel)
	}

	store, err := devserver.OpenStore(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("main: failed to open database: %v", err)
	}
	defer safeClose(store)

	server := devserver.New(cfg, store, logrus.StandardLogger())

	// A fresh database needs a way in; credentials are for local use only.
	if err := server.SeedAdmin(ctx, "admin@quickserve.local", "admin12345"); err != nil {
		log.Fatalf("main: failed to seed admin account: %v", err)
	}

	if err := server.Run(ctx); err != nil {
		log.Fatalf("main: server stopped with error: %v", err)
	}
}

func safeClose(store *devserver.Store) {
	if err := store.Close(); err != nil {
		log.Printf("main: failed to close database: %v", err)
	}
}
