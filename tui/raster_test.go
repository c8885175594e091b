// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"testing"

	"github.com/easel-project/easel/lib/geo"
)

func TestStrokeCellsSinglePoint(t *testing.T) {
	cells := strokeCells([]geo.Point{{X: 2.5, Y: 3.5}})
	if len(cells) != 1 || cells[0] != (cell{Column: 2, Row: 3}) {
		t.Fatalf("cells = %v, want [{2 3}]", cells)
	}
}

func TestStrokeCellsHorizontalLine(t *testing.T) {
	cells := strokeCells([]geo.Point{{X: 0.5, Y: 0.5}, {X: 4.5, Y: 0.5}})
	want := []cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}
	if len(cells) != len(want) {
		t.Fatalf("cells = %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, cells[i], want[i])
		}
	}
}

func TestStrokeCellsDiagonalIsConnected(t *testing.T) {
	cells := strokeCells([]geo.Point{{X: 0.5, Y: 0.5}, {X: 7.5, Y: 5.5}})
	if cells[0] != (cell{0, 0}) {
		t.Errorf("first cell = %v, want {0 0}", cells[0])
	}
	if cells[len(cells)-1] != (cell{7, 5}) {
		t.Errorf("last cell = %v, want {7 5}", cells[len(cells)-1])
	}
	for i := 1; i < len(cells); i++ {
		dx := cells[i].Column - cells[i-1].Column
		dy := cells[i].Row - cells[i-1].Row
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
			t.Errorf("gap between %v and %v", cells[i-1], cells[i])
		}
	}
}

func TestStrokeCellsDeduplicates(t *testing.T) {
	// A held-still pointer produces one point per tick; the raster
	// output is still one cell.
	point := geo.Point{X: 1.5, Y: 1.5}
	cells := strokeCells([]geo.Point{point, point, point})
	if len(cells) != 1 {
		t.Fatalf("cells = %v, want a single cell", cells)
	}
}

func TestStrokeCellsEmpty(t *testing.T) {
	if cells := strokeCells(nil); cells != nil {
		t.Fatalf("cells = %v, want nil", cells)
	}
}

func TestCellCenterRoundTrips(t *testing.T) {
	for _, c := range []cell{{0, 0}, {3, 7}, {-2, 5}} {
		if got := pointCell(cellCenter(c)); got != c {
			t.Errorf("pointCell(cellCenter(%v)) = %v", c, got)
		}
	}
}
