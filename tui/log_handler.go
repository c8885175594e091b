// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the canvas model for display
// in the status bar.
type logRecordMsg struct {
	// Summary is the human-readable one-line message.
	Summary string

	// Level is the slog level for styling (warn vs error).
	Level slog.Level
}

// logRecordFadeMsg is sent after a delay to clear the log notice from
// the status bar.
type logRecordFadeMsg struct{}

// logRecordFadeDelay is how long log notices stay visible before the
// status bar returns to its normal content.
const logRecordFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that routes log records into a
// bubbletea program as status-bar messages. The canvas owns the
// terminal, so writing records to stderr would corrupt the alt-screen
// display; this is the escape hatch for the engine's commit and feed
// warnings.
//
// Create the handler before the program exists, then call SetProgram
// once the tea.Program is created. Records arriving before SetProgram
// are dropped. Handlers derived via WithAttrs/WithGroup share the
// program pointer, so one SetProgram call covers all of them.
type LogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
}

// NewLogHandler creates a handler delivering records at or above the
// given level.
func NewLogHandler(level slog.Level) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives log messages. Safe to call
// from any goroutine.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

// Enabled reports whether the handler wants records at the given level.
func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle formats the record as a one-line summary and sends it to the
// program. Silently drops the record when no program is set yet.
func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}

	summary := record.Message
	var attrParts []string
	for _, attr := range handler.attrs {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
		return true
	})
	if len(attrParts) > 0 {
		summary += " ("
		for index, part := range attrParts {
			if index > 0 {
				summary += ", "
			}
			summary += part
		}
		summary += ")"
	}

	program.Send(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

// WithAttrs returns a derived handler with the attributes appended.
func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(handler.attrs)+len(attrs))
	combined = append(combined, handler.attrs...)
	combined = append(combined, attrs...)
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   combined,
	}
}

// WithGroup returns the handler unchanged: status-bar summaries are
// flat one-liners, so group nesting adds nothing here.
func (handler *LogHandler) WithGroup(string) slog.Handler {
	return handler
}
