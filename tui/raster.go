// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"math"

	"github.com/easel-project/easel/lib/geo"
)

// cell is one terminal canvas position.
type cell struct {
	Column int
	Row    int
}

// rasterStep is the sampling interval, in cells, when walking a
// segment. A quarter cell guarantees no crossed cell is skipped.
const rasterStep = 0.25

// strokeCells rasterizes a polyline into the cells it crosses, in
// drawing order with duplicates removed. Points carry the capture-time
// centering offset, so flooring recovers the cell under the pointer.
func strokeCells(points []geo.Point) []cell {
	if len(points) == 0 {
		return nil
	}

	seen := make(map[cell]bool)
	var cells []cell
	mark := func(c cell) {
		if !seen[c] {
			seen[c] = true
			cells = append(cells, c)
		}
	}

	mark(pointCell(points[0]))
	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		distance := math.Hypot(to.X-from.X, to.Y-from.Y)
		steps := int(math.Ceil(distance / rasterStep))
		for step := 1; step <= steps; step++ {
			fraction := float64(step) / float64(steps)
			mark(pointCell(geo.Point{
				X: from.X + (to.X-from.X)*fraction,
				Y: from.Y + (to.Y-from.Y)*fraction,
			}))
		}
	}
	return cells
}

func pointCell(p geo.Point) cell {
	return cell{
		Column: int(math.Floor(p.X)),
		Row:    int(math.Floor(p.Y)),
	}
}

// cellCenter is the inverse of pointCell for captured points: the
// point at the cell's center.
func cellCenter(c cell) geo.Point {
	return geo.Point{
		X: float64(c.Column) + cellCenterOffset,
		Y: float64(c.Row) + cellCenterOffset,
	}
}
