// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/turn"
)

// =============================================================================
// MESSAGES
// =============================================================================

// TurnEventMsg wraps one coordinator event for the update loop.
type TurnEventMsg struct {
	Event turn.Event
}

// TurnClosedMsg signals that the coordinator's event channel closed.
type TurnClosedMsg struct{}

// ThreadsLoadedMsg delivers a sidebar listing.
type ThreadsLoadedMsg struct {
	Threads   []model.Thread
	FromCache bool
}

// TranscriptLoadedMsg delivers a thread's persisted transcript.
type TranscriptLoadedMsg struct {
	ThreadID    string
	Messages    []*model.Message
	ToolResults map[string][]model.ToolResult
	FromCache   bool
}

// ThreadDeletedMsg reports a completed server-side thread deletion.
// WasMissing means the server had already dropped the thread and only the
// stale sidebar entry was removed.
type ThreadDeletedMsg struct {
	ThreadID   string
	WasMissing bool
}

// SessionExpiredMsg tells the app shell to return to the login view.
type SessionExpiredMsg struct{}

// OpenDocumentsMsg tells the app shell to switch to the documents view.
type OpenDocumentsMsg struct{}

// ErrMsg carries a background failure for the status line.
type ErrMsg struct {
	Err error
}

// =============================================================================
// EVENT PUMP
// =============================================================================

// waitTurnEvent pumps one coordinator event into the update loop. Update
// re-arms the pump after handling each event, so the channel drains exactly
// as fast as the UI consumes it.
func waitTurnEvent(events <-chan turn.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return TurnClosedMsg{}
		}
		return TurnEventMsg{Event: ev}
	}
}

// startTurn launches a turn on the coordinator and arms the pump.
func (m *Model) startTurn(threadID, content string) tea.Cmd {
	events, err := m.coordinator.Start(context.Background(), threadID, content)
	if err != nil {
		return func() tea.Msg { return ErrMsg{Err: err} }
	}
	m.events = events
	return waitTurnEvent(events)
}
