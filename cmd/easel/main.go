// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// easel is the participant client: a terminal canvas connected to an
// easel-server drawing session. The first participant to claim a
// session key owns it and draws; everyone else joining the same key
// watches the picture grow live.
//
// The canvas owns the terminal, so log records go to a JSON file
// (client.log_file in the config) and warnings additionally surface
// in the canvas status bar.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/easel-project/easel/lib/config"
	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/lib/version"
	"github.com/easel-project/easel/session"
	"github.com/easel-project/easel/store/httpstore"
	"github.com/easel-project/easel/tui"
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
		storeURL    string
		sessionFlag string
		logFile     string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("easel", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "config file path (default: $"+config.EnvVar+")")
	flagSet.StringVar(&storeURL, "store-url", "", "easel-server base URL (overrides config)")
	flagSet.StringVar(&sessionFlag, "session", "", "session key to join or create (overrides config)")
	flagSet.StringVar(&logFile, "log-file", "", "JSON log file path (overrides config)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("easel %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if storeURL != "" {
		cfg.Client.StoreURL = storeURL
	}
	if sessionFlag != "" {
		cfg.Client.SessionKey = sessionFlag
	}
	if logFile != "" {
		cfg.Client.LogFile = logFile
	}

	// Warnings and errors show in the status bar; everything lands in
	// the log file for post-mortem reading.
	statusHandler := tui.NewLogHandler(slog.LevelWarn)
	fileHandler, closeLog, err := openFileLogHandler(cfg.Client.LogFile)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", cfg.Client.LogFile, err)
	}
	defer closeLog()
	logger := slog.New(fanoutHandler{statusHandler, fileHandler})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := httpstore.New(httpstore.Config{
		StoreURL: cfg.Client.StoreURL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	key, err := resolveSessionKey(cfg.Client.SessionKey)
	if err != nil {
		return err
	}
	if key.IsZero() {
		// Prompt dismissed without a key.
		return nil
	}

	bootstrap, err := session.JoinOrCreate(ctx, session.LifecycleConfig{
		Store:    client,
		Identity: client,
		Logger:   logger,
	}, key)
	if err != nil {
		return err
	}

	pointer := tui.NewPointer()
	model := tui.NewModel(tui.ModelConfig{
		Pointer:    pointer,
		SessionKey: bootstrap.Key,
		Owner:      bootstrap.IsOwner(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	statusHandler.SetProgram(program)

	engine, err := session.NewEngine(session.EngineConfig{
		Bootstrap:      bootstrap,
		Store:          client,
		Source:         pointer,
		Renderer:       tui.NewRenderer(program),
		Logger:         logger,
		SampleInterval: cfg.Client.SampleInterval(),
	})
	if err != nil {
		return err
	}

	engineCtx, cancelEngine := context.WithCancel(ctx)
	defer cancelEngine()

	engineDone := make(chan error, 1)
	go func() {
		err := engine.Run(engineCtx)
		engineDone <- err
		if err != nil {
			// A failed engine start leaves a dead canvas; take the
			// program down with it.
			program.Quit()
		}
	}()

	_, programErr := program.Run()
	cancelEngine()

	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return programErr
}

// resolveSessionKey parses the configured key, or prompts for one when
// none is configured. A zero key with nil error means the prompt was
// dismissed.
func resolveSessionKey(configured string) (ref.SessionKey, error) {
	if configured != "" {
		key, err := ref.ParseSessionKey(configured)
		if err != nil {
			return ref.SessionKey{}, fmt.Errorf("invalid session key: %w", err)
		}
		return key, nil
	}

	program := tea.NewProgram(tui.NewKeyPrompt(tui.DefaultTheme))
	final, err := program.Run()
	if err != nil {
		return ref.SessionKey{}, fmt.Errorf("session key prompt: %w", err)
	}
	prompt := final.(tui.KeyPrompt)
	key, ok := prompt.Key()
	if !ok {
		return ref.SessionKey{}, nil
	}
	return key, nil
}

// openFileLogHandler creates a slog.JSONHandler writing to the given
// file path. The file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler is a slog.Handler that sends each record to multiple
// underlying handlers. A record is enabled if any sub-handler is
// enabled for that level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
