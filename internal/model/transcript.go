// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package model

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript owns the ordered message list for one thread and applies the
// discrete operations a streaming turn produces.
//
// Invariants:
//   - Messages sharing an interaction id are contiguous, user message first.
//   - At most one assistant placeholder is open (receiving chunks) at a time.
//   - Chunk appends against an unknown id are no-ops; a stale turn that keeps
//     emitting after a resync cannot corrupt the committed list.
type Transcript struct {
	messages []*Message

	// toolResults holds citations keyed by interaction id.
	toolResults map[string][]ToolResult

	// openID is the assistant placeholder currently receiving chunks.
	openID MessageID
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		toolResults: make(map[string][]ToolResult),
	}
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns the ordered message list. The slice is shared; callers
// must treat it as read-only.
func (t *Transcript) Messages() []*Message {
	return t.messages
}

// =============================================================================
// TURN OPERATIONS
// =============================================================================

// AppendUserMessage appends the user's text at the end of the list, starting
// a new interaction group, and returns the new message's id.
func (t *Transcript) AppendUserMessage(text string) MessageID {
	msg := NewUserMessage(text)
	t.messages = append(t.messages, msg)
	return msg.ID
}

// BeginAssistantPlaceholder appends an empty assistant message in the same
// interaction group as the most recent user message and marks it open for
// chunk appends. If a placeholder is already open its id is returned
// unchanged; a second one is never created.
func (t *Transcript) BeginAssistantPlaceholder() MessageID {
	if !t.openID.IsZero() {
		return t.openID
	}

	interactionID := NewPendingInteractionID()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].IsUser() {
			interactionID = t.messages[i].InteractionID
			break
		}
	}

	msg := NewAssistantPlaceholder(interactionID)
	t.messages = append(t.messages, msg)
	t.openID = msg.ID
	return msg.ID
}

// AppendVisibleChunk concatenates streamed answer text onto the message with
// the given id. Unknown ids are ignored.
func (t *Transcript) AppendVisibleChunk(id MessageID, text string) {
	if msg := t.find(id); msg != nil {
		msg.Content += text
	}
}

// AppendReasoningChunk concatenates streamed reasoning text onto the message
// with the given id. Unknown ids are ignored.
func (t *Transcript) AppendReasoningChunk(id MessageID, text string) {
	if msg := t.find(id); msg != nil {
		msg.Reasoning += text
	}
}

// AddToolResults attaches citations to the interaction of the message with
// the given id. Unknown ids are ignored.
func (t *Transcript) AddToolResults(id MessageID, results []ToolResult) {
	msg := t.find(id)
	if msg == nil || len(results) == 0 {
		return
	}
	t.toolResults[msg.InteractionID] = append(t.toolResults[msg.InteractionID], results...)
}

// CloseTurn releases the open assistant placeholder. Further chunk appends
// against its id still succeed (the message exists) but a new turn may begin.
func (t *Transcript) CloseTurn() {
	t.openID = MessageID{}
}

// OpenPlaceholder returns the id of the open assistant placeholder and
// whether one exists.
func (t *Transcript) OpenPlaceholder() (MessageID, bool) {
	return t.openID, !t.openID.IsZero()
}

// =============================================================================
// RESYNC
// =============================================================================

// ReplaceAll swaps the entire transcript for the server's persisted history,
// discarding local pending ids in favor of server-assigned ones. Any open
// placeholder is released; callers re-derive grouping from scratch and must
// not assume id continuity across the swap.
func (t *Transcript) ReplaceAll(messages []*Message, toolResults map[string][]ToolResult) {
	t.messages = messages
	if toolResults == nil {
		toolResults = make(map[string][]ToolResult)
	}
	t.toolResults = toolResults
	t.openID = MessageID{}
}

// ToolResults returns the citations recorded for an interaction.
func (t *Transcript) ToolResults(interactionID string) []ToolResult {
	return t.toolResults[interactionID]
}

// =============================================================================
// GROUPING
// =============================================================================

// InteractionGroup is one render-ready unit: a user message plus the
// assistant/tool outputs it produced.
type InteractionGroup struct {
	InteractionID string
	Messages      []*Message
	ToolResults   []ToolResult
}

// GroupByInteraction partitions the transcript into interaction groups,
// preserving first-seen order of interaction ids and user-before-assistant
// order within each group.
func (t *Transcript) GroupByInteraction() []InteractionGroup {
	var order []string
	index := make(map[string]int)

	for _, msg := range t.messages {
		if _, seen := index[msg.InteractionID]; !seen {
			index[msg.InteractionID] = len(order)
			order = append(order, msg.InteractionID)
		}
	}

	groups := make([]InteractionGroup, len(order))
	for i, id := range order {
		groups[i] = InteractionGroup{
			InteractionID: id,
			ToolResults:   t.toolResults[id],
		}
	}
	// User messages first within a group, preserving relative order
	// otherwise.
	for _, msg := range t.messages {
		if msg.IsUser() {
			g := &groups[index[msg.InteractionID]]
			g.Messages = append(g.Messages, msg)
		}
	}
	for _, msg := range t.messages {
		if !msg.IsUser() {
			g := &groups[index[msg.InteractionID]]
			g.Messages = append(g.Messages, msg)
		}
	}
	return groups
}

// find locates a message by id. Linear scan; transcripts are short and the
// hot path only ever targets the last message.
func (t *Transcript) find(id MessageID) *Message {
	if id.IsZero() {
		return nil
	}
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID == id {
			return t.messages[i]
		}
	}
	return nil
}
