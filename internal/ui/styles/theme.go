// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability once and every view pulls styles from here.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Brand  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	Reasoning      lipgloss.Style
	Citation       lipgloss.Style
	ErrorNote      lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar           lipgloss.Style
	SidebarTitle      lipgloss.Style
	SidebarItem       lipgloss.Style
	SidebarActive     lipgloss.Style
	SidebarDraft      lipgloss.Style
	SidebarDisabled   lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	StatusBusy     lipgloss.Style
	StatusReady    lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// ==========================================================================
	// FORMS AND LISTS
	// ==========================================================================

	FormTitle    lipgloss.Style
	FormError    lipgloss.Style
	FormHint     lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
}

// NewTheme creates a theme matched to the terminal's capabilities.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Background(Surface)
	t.Header = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.Brand = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.UserLabel = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(Indigo).Bold(true)
	t.UserText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.AssistantText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Reasoning = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		PaddingLeft(2)
	t.Citation = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(2)
	t.ErrorNote = lipgloss.NewStyle().Foreground(Rose)

	t.Sidebar = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SidebarActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true)
	t.SidebarDraft = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)
	t.SidebarDisabled = lipgloss.NewStyle().Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.StatusReady = lipgloss.NewStyle().Foreground(Emerald)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Teal)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.FormTitle = lipgloss.NewStyle().Foreground(Indigo).Bold(true)
	t.FormError = lipgloss.NewStyle().Foreground(Rose)
	t.FormHint = lipgloss.NewStyle().Foreground(TextMuted)
	t.ListItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ListSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo)
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Warning = lipgloss.NewStyle().Foreground(Amber)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// SidebarWidth returns the column width for the thread sidebar, collapsing
// it entirely on narrow terminals.
func (t *Theme) SidebarWidth() int {
	switch {
	case t.Width < 80:
		return 0
	case t.Width < 110:
		return 24
	default:
		return 32
	}
}
