// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package turn

import (
	"github.com/archivista-ai/archivista/internal/model"
)

// Event is one unit of turn progress. The concrete types below are the only
// implementations.
type Event interface {
	turnEvent()
}

// Started opens the turn: the consumer appends the user message and the
// assistant placeholder to its transcript.
type Started struct {
	Content string
}

// VisibleDelta is a chunk of answer text for the open placeholder.
type VisibleDelta struct {
	Text string
}

// ReasoningDelta is a chunk of reasoning text for the open placeholder.
type ReasoningDelta struct {
	Text string
}

// ToolResults is a batch of citation records for the open placeholder's
// interaction.
type ToolResults struct {
	Results []model.ToolResult
}

// ThreadAssigned reports that the backend minted a real thread id for what
// was a placeholder conversation.
type ThreadAssigned struct {
	PlaceholderID string
	ThreadID      string
}

// Failed annotates the open placeholder with an inline error note. The turn
// still proceeds to resync when the thread exists server-side.
type Failed struct {
	Annotation string
}

// AuthExpired means the refresh path could not recover: credentials are
// cleared and the consumer should return to login. No resync follows.
type AuthExpired struct{}

// Resynced replaces the transcript with the server's persisted view of the
// thread.
type Resynced struct {
	Messages    []*model.Message
	ToolResults map[string][]model.ToolResult
}

// ThreadsRefreshed carries a fresh sidebar listing, fetched after the turn
// so ordering reflects the new activity.
type ThreadsRefreshed struct {
	Threads []model.Thread
}

// Done closes the event stream. Err is nil on a clean turn; any mid-turn
// failure already surfaced as Failed or AuthExpired.
type Done struct {
	Err error
}

func (Started) turnEvent()          {}
func (VisibleDelta) turnEvent()     {}
func (ReasoningDelta) turnEvent()   {}
func (ToolResults) turnEvent()      {}
func (ThreadAssigned) turnEvent()   {}
func (Failed) turnEvent()           {}
func (AuthExpired) turnEvent()      {}
func (Resynced) turnEvent()         {}
func (ThreadsRefreshed) turnEvent() {}
func (Done) turnEvent()             {}
