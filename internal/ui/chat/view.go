// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/ui/components"
)

// View renders the chat layout: header, sidebar beside the transcript, the
// input line, and the status bar.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := m.theme.Header.Width(m.width).Render(
		m.theme.Brand.Render("Archivista") + "  document assistant")

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebar.View(),
		m.viewport.View(),
	)

	prompt := m.theme.InputPrompt.Render("> ")
	input := m.theme.InputContainer.Width(m.width - 2).Render(prompt + m.input.View())

	status := m.statusBar.View(m.session.GetStatus(), m.shortcuts())
	if m.statusText != "" {
		status = m.theme.StatusBar.Width(m.width).Render(
			m.theme.ErrorNote.Render(m.statusText))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, content, input, status)
}

func (m *Model) shortcuts() []components.Shortcut {
	return []components.Shortcut{
		{Key: "Enter", Desc: "send"},
		{Key: "Tab", Desc: "threads"},
		{Key: "C-n", Desc: "new"},
		{Key: "C-o", Desc: "docs"},
		{Key: "C-r", Desc: "reasoning"},
		{Key: "C-q", Desc: "quit"},
	}
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport re-renders the transcript into the viewport, keeping the
// view pinned to the bottom while a turn streams.
func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || m.session.IsBusy() {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	if m.transcript.Len() == 0 {
		return m.theme.FormHint.Render(
			"\n  Start a conversation. Answers cite the documents they came from.")
	}

	var b strings.Builder
	for _, group := range m.transcript.GroupByInteraction() {
		for _, msg := range group.Messages {
			if msg.IsUser() {
				b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
				b.WriteString("\n")
				b.WriteString(m.theme.UserText.Render(msg.Content))
				b.WriteString("\n\n")
				continue
			}

			b.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
			if m.session.IsBusy() && m.isOpenMessage(msg) {
				b.WriteString(" " + m.spinner.View())
			}
			b.WriteString("\n")

			if m.showReasoning && msg.HasReasoning() {
				b.WriteString(m.theme.Reasoning.Render(msg.Reasoning))
				b.WriteString("\n")
			}

			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString("\n\n")
		}

		// Citations render once per interaction, under its assistant output.
		if citation := components.FormatCitations(group.ToolResults); citation != "" {
			b.WriteString(m.theme.Citation.Render(m.renderMarkdown(citation)))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m *Model) isOpenMessage(msg *model.Message) bool {
	id, ok := m.transcript.OpenPlaceholder()
	return ok && id == msg.ID
}

// renderMarkdown runs text through glamour, falling back to the raw text
// when the renderer is unavailable or fails.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil || text == "" {
		return text
	}
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
