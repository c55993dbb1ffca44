package main

import (
	"log"
	"os"

	"github.com/halverson/marionette/internal/api"
	"github.com/halverson/marionette/internal/batch"
	"github.com/halverson/marionette/internal/config"
	"github.com/halverson/marionette/internal/proc"
	"github.com/halverson/marionette/internal/runner"
	"github.com/halverson/marionette/internal/sched"
	"github.com/halverson/marionette/internal/store"
	"github.com/halverson/marionette/internal/surface"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("marionetted: starting",
		"listen_addr", cfg.ListenAddr,
		"socket_path", cfg.SocketPath,
		"db_path", cfg.DBPath,
		"base_timeout_ms", cfg.BaseTimeout.Milliseconds(),
		"animator_scale", cfg.AnimatorScale,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	svc := batch.NewService(batch.Options{
		Surfaces:    surface.NewTable(logger),
		Scheduler:   sched.NewTimers(),
		Procs:       proc.NewController(logger),
		Journal:     db,
		Logger:      logger,
		BaseTimeout: cfg.BaseTimeout,
		AnimatorScale: func() float64 {
			return cfg.AnimatorScale
		},
	})

	ln, err := runner.Listen(cfg.SocketPath, svc.Tokens(), logger)
	if err != nil {
		log.Fatalf("failed to bind animator socket: %v", err)
	}
	defer ln.Close()

	go func() {
		if err := ln.Serve(); err != nil {
			logger.Error("animator listener stopped", "error", err)
		}
	}()

	srv := api.NewServer(cfg.ListenAddr, db, svc, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
