// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/archivista-ai/archivista/internal/session"
	"github.com/archivista-ai/archivista/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom bar: turn state on the left, key hints on the
// right.
type StatusBar struct {
	theme *styles.Theme
	width int
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetWidth sets the rendering width.
func (b *StatusBar) SetWidth(width int) {
	b.width = width
}

// View renders the bar for the given session snapshot.
func (b *StatusBar) View(status session.Status, shortcuts []Shortcut) string {
	var state string
	if status.Busy {
		state = b.theme.StatusBusy.Render("Thinking...")
	} else {
		state = b.theme.StatusReady.Render("Ready")
	}

	var hints []string
	for _, sc := range shortcuts {
		hints = append(hints,
			b.theme.ShortcutKey.Render(sc.Key)+" "+b.theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(hints, "  ")

	gap := b.width - lipgloss.Width(state) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return b.theme.StatusBar.Width(b.width).Render(
		state + strings.Repeat(" ", gap) + right)
}
