// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/session"
)

// strokeMsg delivers one committed stroke to the canvas model through
// the bubbletea message loop.
type strokeMsg struct {
	stroke geo.Stroke
}

// Renderer forwards committed polylines into a bubbletea program. It
// implements session.Renderer; the engine calls DrawPolyline from its
// own goroutines, and program.Send is the thread-safe handoff into
// the model.
type Renderer struct {
	program *tea.Program
}

// NewRenderer returns a renderer targeting the given program.
func NewRenderer(program *tea.Program) *Renderer {
	return &Renderer{program: program}
}

var _ session.Renderer = (*Renderer)(nil)

// DrawPolyline sends the stroke to the canvas model. The points are
// cloned so the model never aliases engine-owned memory.
func (r *Renderer) DrawPolyline(points []geo.Point) {
	r.program.Send(strokeMsg{stroke: geo.Stroke(points).Clone()})
}
