// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/easel-project/easel/lib/ref"
)

// KeyPrompt is a minimal bubbletea model that asks for a session key
// when none is configured. Run it as its own program before the
// canvas; Key reports the validated result.
type KeyPrompt struct {
	input   textinput.Model
	theme   Theme
	key     ref.SessionKey
	errText string
	aborted bool
}

// NewKeyPrompt creates the prompt with focus already on the input.
func NewKeyPrompt(theme Theme) KeyPrompt {
	if theme.Ink == "" {
		theme = DefaultTheme
	}
	input := textinput.New()
	input.Placeholder = "session key"
	input.CharLimit = 64
	input.Focus()
	return KeyPrompt{input: input, theme: theme}
}

// Key returns the accepted session key. ok is false when the prompt
// was dismissed without one.
func (prompt KeyPrompt) Key() (key ref.SessionKey, ok bool) {
	return prompt.key, !prompt.aborted && !prompt.key.IsZero()
}

// Init implements tea.Model.
func (prompt KeyPrompt) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (prompt KeyPrompt) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	if message, isKey := message.(tea.KeyMsg); isKey {
		switch message.Type {
		case tea.KeyEnter:
			key, err := ref.ParseSessionKey(prompt.input.Value())
			if err != nil {
				prompt.errText = err.Error()
				return prompt, nil
			}
			prompt.key = key
			return prompt, tea.Quit

		case tea.KeyEsc, tea.KeyCtrlC:
			prompt.aborted = true
			return prompt, tea.Quit
		}
	}

	var cmd tea.Cmd
	prompt.input, cmd = prompt.input.Update(message)
	return prompt, cmd
}

// View implements tea.Model.
func (prompt KeyPrompt) View() string {
	title := lipgloss.NewStyle().
		Foreground(prompt.theme.PromptTitle).
		Render("Join or create a drawing session")
	help := lipgloss.NewStyle().
		Foreground(prompt.theme.FaintText).
		Render("enter to join · esc to quit")

	view := title + "\n\n" + prompt.input.View() + "\n\n" + help
	if prompt.errText != "" {
		errorLine := lipgloss.NewStyle().
			Foreground(prompt.theme.StatusError).
			Render(prompt.errText)
		view += "\n" + errorLine
	}
	return view + "\n"
}
