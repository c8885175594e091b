// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"log/slog"
	"os"
)

// NewLogger creates the standard easel server logger: a text handler
// writing to stderr at Info level. It also sets the default slog
// logger so that third-party code using slog.Info etc. gets the same
// handler.
func NewLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
