// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"sync"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/session"
)

// cellCenterOffset is the fixed half-width centering offset applied at
// capture: a mouse event names a cell by its top-left corner, and the
// offset moves the captured point to the cell's center so a polyline
// through the points renders centered on the pointer path.
const cellCenterOffset = 0.5

// Pointer holds the latest pointer observation. The bubbletea loop
// writes it on mouse events; the engine's sampler reads it once per
// tick. It implements session.PointerSource.
//
// Between mouse events the held state persists: a pointer pressed and
// held still keeps reporting Pressed at its last position, which is
// what makes a held-still pointer contribute one point per tick.
type Pointer struct {
	mu     sync.Mutex
	sample session.PointerSample
}

// NewPointer returns a released pointer at the origin.
func NewPointer() *Pointer {
	return &Pointer{}
}

var _ session.PointerSource = (*Pointer)(nil)

// Sample returns the current observation. Never blocks.
func (p *Pointer) Sample() session.PointerSample {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sample
}

// press records the pointer held down over the given canvas cell.
// Called for both the initial press and drag motion.
func (p *Pointer) press(column, row int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sample = session.PointerSample{
		Position: geo.Point{
			X: float64(column) + cellCenterOffset,
			Y: float64(row) + cellCenterOffset,
		},
		Pressed: true,
	}
}

// release records the button let go. The position is retained so the
// sampler observes the release at the stroke's final location.
func (p *Pointer) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sample.Pressed = false
}
