// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the canvas color palette. All colors use lipgloss
// ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Ink is the color of committed strokes.
	Ink lipgloss.Color

	// Status bar chrome.
	StatusForeground lipgloss.Color
	StatusBackground lipgloss.Color

	// StatusError colors the last-error notice in the status bar.
	StatusError lipgloss.Color

	// FaintText is used for help hints and the spectator role label.
	FaintText lipgloss.Color

	// PromptTitle colors the session-key prompt heading.
	PromptTitle lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Ink: lipgloss.Color("252"),

	StatusForeground: lipgloss.Color("255"),
	StatusBackground: lipgloss.Color("236"),

	StatusError: lipgloss.Color("196"), // bright red

	FaintText:   lipgloss.Color("245"),
	PromptTitle: lipgloss.Color("75"), // blue
}
