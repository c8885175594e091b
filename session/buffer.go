// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "github.com/easel-project/easel/lib/geo"

// StrokeBuffer accumulates per-tick pointer samples into one
// in-progress stroke. It is a two-state machine — idle, accumulating —
// driven entirely by the pressed bit of successive samples:
//
//   - idle, pressed: the stroke begins; the sample is its first point.
//   - accumulating, pressed: the sample appends one point. Consecutive
//     duplicate positions are kept — a held-still pointer contributes
//     one point per tick.
//   - accumulating, released: the stroke is complete. The release tick
//     contributes no point; the accumulated points are handed to the
//     caller and the buffer returns to idle, ready for the next
//     stroke.
//
// A press observed on one tick and a release on the very next yields a
// valid single-point stroke.
//
// StrokeBuffer is not safe for concurrent use. It belongs to the
// sampling loop and nothing else ever touches it.
type StrokeBuffer struct {
	points  geo.Stroke
	pressed bool
}

// Observe feeds one pointer sample into the buffer. When the sample
// completes a stroke, Observe returns it with done = true and the
// buffer forgets it — ownership of the returned slice passes to the
// caller, and the next press starts a fresh allocation.
func (b *StrokeBuffer) Observe(sample PointerSample) (stroke geo.Stroke, done bool) {
	if sample.Pressed {
		b.pressed = true
		b.points = append(b.points, sample.Position)
		return nil, false
	}

	if !b.pressed {
		// Released and idle: nothing in progress.
		return nil, false
	}

	completed := b.points
	b.points = nil
	b.pressed = false
	return completed, true
}

// Accumulating reports whether a stroke is currently in progress.
func (b *StrokeBuffer) Accumulating() bool {
	return b.pressed
}

// Len returns the number of points accumulated so far.
func (b *StrokeBuffer) Len() int {
	return len(b.points)
}
