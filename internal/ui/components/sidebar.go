// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package components

import (
	"strings"

	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/ui/styles"
	"github.com/archivista-ai/archivista/internal/util"
)

// =============================================================================
// THREAD SIDEBAR
// =============================================================================

// Sidebar renders the conversation list. Selection is tracked here; the chat
// model owns which thread is actually open.
type Sidebar struct {
	theme   *styles.Theme
	threads []model.Thread

	cursor   int
	activeID string

	// disabled is set while a turn is in flight: navigation keys are ignored
	// so the open conversation cannot change under a streaming response.
	disabled bool

	width  int
	height int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme}
}

// SetThreads replaces the listing, keeping the cursor on the active thread
// when it survived the refresh.
func (s *Sidebar) SetThreads(threads []model.Thread) {
	s.threads = threads
	s.cursor = 0
	for i, t := range threads {
		if t.ID == s.activeID {
			s.cursor = i
			break
		}
	}
}

// SetActive marks the open conversation.
func (s *Sidebar) SetActive(threadID string) {
	s.activeID = threadID
	for i, t := range s.threads {
		if t.ID == threadID {
			s.cursor = i
		}
	}
}

// SetDisabled gates navigation while a turn is in flight.
func (s *Sidebar) SetDisabled(disabled bool) {
	s.disabled = disabled
}

// Disabled reports whether navigation is gated.
func (s *Sidebar) Disabled() bool {
	return s.disabled
}

// SetSize sets the rendering area.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// MoveUp moves the cursor toward newer threads. A no-op while disabled.
func (s *Sidebar) MoveUp() {
	if s.disabled || s.cursor == 0 {
		return
	}
	s.cursor--
}

// MoveDown moves the cursor toward older threads. A no-op while disabled.
func (s *Sidebar) MoveDown() {
	if s.disabled || s.cursor >= len(s.threads)-1 {
		return
	}
	s.cursor++
}

// Selected returns the thread under the cursor.
func (s *Sidebar) Selected() (model.Thread, bool) {
	if len(s.threads) == 0 || s.cursor >= len(s.threads) {
		return model.Thread{}, false
	}
	return s.threads[s.cursor], true
}

// View renders the sidebar column. Width zero hides it entirely.
func (s *Sidebar) View() string {
	if s.width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(s.threads) == 0 {
		b.WriteString(s.theme.SidebarDisabled.Render("No conversations yet"))
	}

	visible := s.height - 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}

	for i := start; i < len(s.threads) && i < start+visible; i++ {
		t := s.threads[i]
		label := threadLabel(t, s.width-4)

		style := s.theme.SidebarItem
		switch {
		case s.disabled && t.ID != s.activeID:
			style = s.theme.SidebarDisabled
		case i == s.cursor:
			style = s.theme.SidebarActive
		case model.IsPlaceholderThread(t.ID):
			style = s.theme.SidebarDraft
		}
		b.WriteString(style.Render(label))
		b.WriteString("\n")
	}

	return s.theme.Sidebar.Width(s.width).Height(s.height).Render(b.String())
}

// threadLabel formats one sidebar row: draft threads show a marker, real
// ones their last-activity date.
func threadLabel(t model.Thread, width int) string {
	if model.IsPlaceholderThread(t.ID) {
		return util.TruncateWidth("+ new conversation", width)
	}
	label := t.UpdatedAt.Format("Jan 2 15:04") + "  " + t.ID
	return util.TruncateWidth(label, width)
}
