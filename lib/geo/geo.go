// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Point is one pointer-position sample. Semantically it is the pointer
// location at one sampling tick with the brush half-width offset
// already applied, so a polyline through the points renders centered
// on the pointer path.
type Point struct {
	X float64
	Y float64
}

// IsFinite reports whether both coordinates are finite (no NaN, no
// infinities).
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// MarshalJSON encodes the point as a two-element array [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.IsFinite() {
		return nil, fmt.Errorf("geo: cannot marshal non-finite point (%v, %v)", p.X, p.Y)
	}
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two-element array [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("geo: point must be a two-element array: %w", err)
	}
	decoded := Point{X: pair[0], Y: pair[1]}
	if !decoded.IsFinite() {
		return fmt.Errorf("geo: non-finite point (%v, %v)", decoded.X, decoded.Y)
	}
	*p = decoded
	return nil
}

// MarshalCBOR encodes the point as a two-element array, matching the
// JSON wire shape.
func (p Point) MarshalCBOR() ([]byte, error) {
	if !p.IsFinite() {
		return nil, fmt.Errorf("geo: cannot marshal non-finite point (%v, %v)", p.X, p.Y)
	}
	return cbor.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalCBOR decodes a two-element array.
func (p *Point) UnmarshalCBOR(data []byte) error {
	var pair [2]float64
	if err := cbor.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("geo: point must be a two-element array: %w", err)
	}
	decoded := Point{X: pair[0], Y: pair[1]}
	if !decoded.IsFinite() {
		return fmt.Errorf("geo: non-finite point (%v, %v)", decoded.X, decoded.Y)
	}
	*p = decoded
	return nil
}

// Stroke is one continuous pointer-down-to-pointer-up motion: an
// ordered list of at least one point, in sampled order. Consecutive
// duplicate points are legal — a held-still pointer contributes one
// point per tick.
type Stroke []Point

// Validate checks the stroke invariants: length at least one, all
// points finite.
func (s Stroke) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("geo: stroke has no points")
	}
	for i, point := range s {
		if !point.IsFinite() {
			return fmt.Errorf("geo: stroke point %d is non-finite (%v, %v)", i, point.X, point.Y)
		}
	}
	return nil
}

// Clone returns an independent copy of the stroke. The sampler hands
// clones to the commit path so a stroke in flight can never alias the
// buffer accumulating the next one.
func (s Stroke) Clone() Stroke {
	if s == nil {
		return nil
	}
	clone := make(Stroke, len(s))
	copy(clone, s)
	return clone
}
