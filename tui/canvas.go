// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/ref"
)

// inkRune marks a committed stroke cell; activeRune marks a cell of
// the stroke currently being drawn (local echo, not yet committed).
const (
	inkRune    = '█'
	activeRune = '░'
)

// ModelConfig assembles a canvas Model.
type ModelConfig struct {
	// Pointer receives mouse state for the engine's sampler. Required.
	Pointer *Pointer

	// SessionKey labels the status bar.
	SessionKey ref.SessionKey

	// Owner selects the status-bar role label and whether the local
	// echo of a finished stroke persists. Ownership itself is enforced
	// by the store; this is presentation only.
	Owner bool

	// Theme is the color palette. Zero value means DefaultTheme.
	Theme Theme
}

// Model is the bubbletea canvas. Mouse events feed the shared Pointer;
// committed strokes arrive as strokeMsg from the Renderer and turn
// into inked cells. The bottom row is a status bar.
type Model struct {
	pointer *Pointer
	theme   Theme
	key     ref.SessionKey
	owner   bool

	width  int
	height int

	// inked holds committed stroke cells; active holds the local echo
	// of the stroke being dragged right now. Cells only ever gain ink,
	// so a redelivered stroke is a harmless re-mark.
	inked  map[cell]bool
	active map[cell]bool

	// lastDrag is the previous drag cell, for filling the gap between
	// consecutive mouse events in the local echo. Nil when no drag is
	// in progress.
	lastDrag *cell

	strokeCount int

	notice      string
	noticeLevel slog.Level
}

// NewModel creates the canvas model.
func NewModel(config ModelConfig) Model {
	theme := config.Theme
	if theme.Ink == "" {
		theme = DefaultTheme
	}
	return Model{
		pointer: config.Pointer,
		theme:   theme,
		key:     config.SessionKey,
		owner:   config.Owner,
		inked:   make(map[cell]bool),
		active:  make(map[cell]bool),
	}
}

// StrokeCount returns the number of committed strokes rendered so far.
func (model Model) StrokeCount() int {
	return model.strokeCount
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case tea.KeyMsg:
		switch message.String() {
		case "q", "esc", "ctrl+c":
			return model, tea.Quit
		}
		return model, nil

	case tea.MouseMsg:
		return model.handleMouse(message), nil

	case strokeMsg:
		for _, c := range strokeCells(message.stroke) {
			model.inked[c] = true
			delete(model.active, c)
		}
		model.strokeCount++
		return model, nil

	case logRecordMsg:
		model.notice = message.Summary
		model.noticeLevel = message.Level
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{}
		})

	case logRecordFadeMsg:
		model.notice = ""
		return model, nil
	}

	return model, nil
}

// handleMouse routes left-button events into the shared Pointer and
// maintains the local echo. Events on the status-bar row or outside
// the window are ignored.
func (model Model) handleMouse(message tea.MouseMsg) Model {
	if message.Button != tea.MouseButtonLeft {
		return model
	}

	switch message.Action {
	case tea.MouseActionPress, tea.MouseActionMotion:
		if !model.onCanvas(message.X, message.Y) {
			return model
		}
		model.pointer.press(message.X, message.Y)

		here := cell{Column: message.X, Row: message.Y}
		if model.lastDrag == nil {
			model.active[here] = true
		} else {
			// Fill the gap between consecutive mouse events so the
			// echo is a connected line even when the pointer moves
			// fast.
			from := cellCenter(*model.lastDrag)
			to := cellCenter(here)
			for _, c := range strokeCells([]geo.Point{from, to}) {
				model.active[c] = true
			}
		}
		model.lastDrag = &here

	case tea.MouseActionRelease:
		model.pointer.release()
		model.lastDrag = nil
		if model.owner {
			// Keep the echo: the committed stroke re-marks the same
			// cells when it comes back through the change feed.
			for c := range model.active {
				model.inked[c] = true
			}
		}
		// A spectator's stroke never reaches the shared document, so
		// its echo disappears on release.
		model.active = make(map[cell]bool)
	}

	return model
}

// onCanvas reports whether a mouse position is on the drawing area
// (everything above the status-bar row).
func (model Model) onCanvas(x, y int) bool {
	return x >= 0 && y >= 0 && x < model.width && y < model.height-1
}

// View implements tea.Model.
func (model Model) View() string {
	if model.width == 0 || model.height == 0 {
		return ""
	}

	inkStyle := lipgloss.NewStyle().Foreground(model.theme.Ink)

	var view strings.Builder
	row := make([]rune, model.width)
	for y := 0; y < model.height-1; y++ {
		for x := 0; x < model.width; x++ {
			switch {
			case model.inked[cell{Column: x, Row: y}]:
				row[x] = inkRune
			case model.active[cell{Column: x, Row: y}]:
				row[x] = activeRune
			default:
				row[x] = ' '
			}
		}
		view.WriteString(inkStyle.Render(string(row)))
		view.WriteByte('\n')
	}
	view.WriteString(model.statusBar())
	return view.String()
}

// statusBar renders the bottom row: session key, role, stroke count,
// and the current log notice if one is showing.
func (model Model) statusBar() string {
	role := "spectator"
	if model.owner {
		role = "owner"
	}
	left := fmt.Sprintf(" %s · %s · %d strokes ", model.key, role, model.strokeCount)

	barStyle := lipgloss.NewStyle().
		Foreground(model.theme.StatusForeground).
		Background(model.theme.StatusBackground).
		Width(model.width)

	if model.notice == "" {
		return barStyle.Render(left)
	}

	noticeColor := model.theme.FaintText
	if model.noticeLevel >= slog.LevelError {
		noticeColor = model.theme.StatusError
	}
	noticeStyle := lipgloss.NewStyle().
		Foreground(noticeColor).
		Background(model.theme.StatusBackground)
	return barStyle.Render(left + noticeStyle.Render(model.notice))
}
