// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// easel-server is the shared drawing document store: a SQLite-backed
// session store served over the JSON HTTP API that easel clients
// speak. One process serves any number of drawing sessions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/easel-project/easel/lib/config"
	"github.com/easel-project/easel/lib/identity"
	"github.com/easel-project/easel/lib/service"
	"github.com/easel-project/easel/lib/version"
	"github.com/easel-project/easel/store/httpserver"
	"github.com/easel-project/easel/store/sqlitestore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		database    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("easel-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "config file path (default: $"+config.EnvVar+")")
	flagSet.StringVar(&listen, "listen", "", "TCP listen address (overrides config)")
	flagSet.StringVar(&database, "database", "", "SQLite database path (overrides config)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("easel-server %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if database != "" {
		cfg.Server.Database = database
	}

	logger := service.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlitestore.Open(sqlitestore.Config{
		Path:   cfg.Server.Database,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	api, err := httpserver.New(httpserver.Config{
		Store:    store,
		Identity: identity.Anonymous(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.Server.Listen,
		Handler:         api.Handler(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
		Logger:          logger,
	})

	logger.Info("easel-server starting",
		"version", version.Short(),
		"listen", cfg.Server.Listen,
		"database", cfg.Server.Database,
	)
	return server.Serve(ctx)
}
