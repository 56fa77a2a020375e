// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/turn"
	"github.com/archivista-ai/archivista/internal/util"
)

// Update is the chat reducer. Every transcript mutation lives here.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.session.IsBusy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TurnEventMsg:
		cmds := m.applyTurnEvent(msg.Event)
		m.refreshViewport()
		if m.events != nil {
			cmds = append(cmds, waitTurnEvent(m.events))
		}
		return m, tea.Batch(cmds...)

	case TurnClosedMsg:
		m.events = nil
		return m, nil

	case ThreadsLoadedMsg:
		// A late cache read must not clobber a server answer.
		if msg.FromCache && len(m.session.Threads()) > 0 {
			return m, nil
		}
		m.session.SetThreads(msg.Threads)
		m.sidebar.SetThreads(m.session.Threads())
		if !msg.FromCache {
			return m, m.cacheThreads(msg.Threads)
		}
		return m, nil

	case TranscriptLoadedMsg:
		if msg.ThreadID != m.session.ActiveThread().ID {
			return m, nil
		}
		m.transcript.ReplaceAll(msg.Messages, msg.ToolResults)
		m.refreshViewport()
		m.viewport.GotoBottom()
		if !msg.FromCache {
			return m, m.cacheTranscript(msg.ThreadID, msg.Messages, msg.ToolResults)
		}
		m.statusText = "offline copy"
		return m, nil

	case ThreadDeletedMsg:
		wasActive := m.session.ActiveThread().ID == msg.ThreadID
		m.session.RemoveThread(msg.ThreadID)
		m.sidebar.SetThreads(m.session.Threads())
		if msg.WasMissing {
			m.statusText = "conversation was already removed"
		}
		if wasActive {
			m.transcript = model.NewTranscript()
			m.sidebar.SetActive(m.session.ActiveThread().ID)
			m.refreshViewport()
		}
		return m, nil

	case ErrMsg:
		m.statusText = msg.Err.Error()
		return m, nil
	}

	return m.updateInput(msg)
}

// handleKey routes keyboard input by focus.
func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleReasoning):
		m.showReasoning = !m.showReasoning
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Documents):
		return m, func() tea.Msg { return OpenDocumentsMsg{} }

	case key.Matches(msg, m.keys.ToggleSidebar):
		if m.theme.SidebarWidth() > 0 {
			if m.focus == focusInput {
				m.focus = focusSidebar
				m.input.Blur()
			} else {
				m.focus = focusInput
				m.input.Focus()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.NewThread):
		if m.session.IsBusy() {
			return m, nil
		}
		draft := m.session.StartDraft()
		m.transcript = model.NewTranscript()
		m.sidebar.SetActive(draft.ID)
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m, m.submit()
	}
	return m.updateInput(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SidebarUp):
		m.sidebar.MoveUp()

	case key.Matches(msg, m.keys.SidebarDown):
		m.sidebar.MoveDown()

	case key.Matches(msg, m.keys.Submit):
		if m.session.IsBusy() {
			return m, nil
		}
		selected, ok := m.sidebar.Selected()
		if !ok || selected.ID == m.session.ActiveThread().ID {
			return m, nil
		}
		m.session.SetActiveThread(selected)
		m.sidebar.SetActive(selected.ID)
		m.transcript = model.NewTranscript()
		m.refreshViewport()
		m.focus = focusInput
		m.input.Focus()
		if !model.IsPlaceholderThread(selected.ID) {
			return m, m.loadTranscript(selected.ID)
		}

	case key.Matches(msg, m.keys.DeleteThread):
		if m.session.IsBusy() {
			return m, nil
		}
		selected, ok := m.sidebar.Selected()
		if !ok || model.IsPlaceholderThread(selected.ID) {
			return m, nil
		}
		return m, m.deleteThread(selected.ID)
	}
	return m, nil
}

// submit sends the input line as a new turn.
func (m *Model) submit() tea.Cmd {
	if m.session.IsBusy() {
		return nil
	}
	content := util.NormalizeInput(m.input.Value())
	if content == "" {
		return nil
	}
	m.input.Reset()
	m.statusText = ""
	return m.startTurn(m.session.ActiveThread().ID, content)
}

func (m *Model) updateInput(msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// TURN EVENT REDUCER
// =============================================================================

// applyTurnEvent folds one coordinator event into the transcript and session
// state.
func (m *Model) applyTurnEvent(ev turn.Event) []tea.Cmd {
	var cmds []tea.Cmd

	switch ev := ev.(type) {
	case turn.Started:
		m.transcript.AppendUserMessage(ev.Content)
		m.transcript.BeginAssistantPlaceholder()
		m.session.SetBusy(true)
		m.sidebar.SetDisabled(true)
		cmds = append(cmds, m.spinner.Tick)

	case turn.VisibleDelta:
		if id, ok := m.transcript.OpenPlaceholder(); ok {
			m.transcript.AppendVisibleChunk(id, ev.Text)
		}

	case turn.ReasoningDelta:
		if id, ok := m.transcript.OpenPlaceholder(); ok {
			m.transcript.AppendReasoningChunk(id, ev.Text)
		}

	case turn.ToolResults:
		if id, ok := m.transcript.OpenPlaceholder(); ok {
			m.transcript.AddToolResults(id, ev.Results)
		}

	case turn.ThreadAssigned:
		m.session.PromoteDraft(ev.PlaceholderID, ev.ThreadID)
		m.sidebar.SetActive(ev.ThreadID)

	case turn.Failed:
		if id, ok := m.transcript.OpenPlaceholder(); ok {
			m.transcript.AppendVisibleChunk(id, ev.Annotation)
		}

	case turn.AuthExpired:
		m.session.SetAuthenticated(false)
		m.session.SetBusy(false)
		m.sidebar.SetDisabled(false)
		cmds = append(cmds, func() tea.Msg { return SessionExpiredMsg{} })

	case turn.Resynced:
		m.transcript.ReplaceAll(ev.Messages, ev.ToolResults)
		cmds = append(cmds, m.cacheTranscript(m.session.ActiveThread().ID, ev.Messages, ev.ToolResults))

	case turn.ThreadsRefreshed:
		m.session.SetThreads(ev.Threads)
		m.sidebar.SetThreads(m.session.Threads())
		cmds = append(cmds, m.cacheThreads(ev.Threads))

	case turn.Done:
		m.transcript.CloseTurn()
		m.session.SetBusy(false)
		m.sidebar.SetDisabled(false)
	}

	return cmds
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	sidebarWidth := m.theme.SidebarWidth()
	contentWidth := width - sidebarWidth
	if sidebarWidth == 0 {
		m.focus = focusInput
		m.input.Focus()
	}

	// header + input + status
	chrome := 1 + 4 + 1
	m.viewport.Width = contentWidth
	m.viewport.Height = height - chrome
	m.sidebar.SetSize(sidebarWidth, height-2)
	m.input.SetWidth(contentWidth - 4)
	m.statusBar.SetWidth(width)

	wrap := contentWidth - 4
	if wrap < 20 {
		wrap = 20
	}
	if renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	); err == nil {
		m.renderer = renderer
	}
	m.refreshViewport()
}
