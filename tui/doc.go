// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui is the terminal drawing surface: a bubbletea canvas that
// turns mouse input into pointer samples and renders committed strokes
// as terminal cells.
//
// The package sits on both sides of the session engine. On the input
// side, Pointer is a concurrency-safe pointer-state holder: mouse
// events from the bubbletea loop update it, and the engine's sampler
// reads it once per tick. On the output side, Renderer forwards each
// committed polyline into the bubbletea message loop via
// program.Send, where the model rasterizes it into cells.
//
// Rendering is additive: cells only ever gain ink, so redelivered
// strokes and the owner's local echo are harmless double-draws.
//
// Because the canvas owns the terminal, background log records route
// through LogHandler into the status bar instead of stderr.
package tui
