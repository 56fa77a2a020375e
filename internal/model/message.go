// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package model

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE IDENTITY
// =============================================================================

// MessageID identifies a message as either Pending (client-assigned, the
// message has not been persisted yet) or Persisted (server-assigned). Keeping
// the two spaces separate makes "is this the currently streaming message" a
// total check instead of a string-format convention.
type MessageID struct {
	local  string
	server string
}

// NewPendingID returns a fresh client-local message id.
func NewPendingID() MessageID {
	return MessageID{local: uuid.NewString()}
}

// PersistedID wraps a server-assigned message id.
func PersistedID(id string) MessageID {
	return MessageID{server: id}
}

// IsPending reports whether the id is client-local.
func (id MessageID) IsPending() bool {
	return id.server == "" && id.local != ""
}

// IsZero reports whether the id is unset.
func (id MessageID) IsZero() bool {
	return id.local == "" && id.server == ""
}

// String returns the underlying identifier.
func (id MessageID) String() string {
	if id.server != "" {
		return id.server
	}
	return id.local
}

// =============================================================================
// INTERACTION IDENTITY
// =============================================================================

// pendingInteractionPrefix marks interaction ids minted client-side for the
// turn currently streaming. The server assigns the real id when it persists
// the turn; resync replaces the placeholder.
const pendingInteractionPrefix = "pending:"

// NewPendingInteractionID returns a placeholder interaction id for an
// in-flight turn.
func NewPendingInteractionID() string {
	return pendingInteractionPrefix + uuid.NewString()
}

// IsPendingInteraction reports whether an interaction id is a client-local
// placeholder rather than a server-assigned key.
func IsPendingInteraction(id string) bool {
	return strings.HasPrefix(id, pendingInteractionPrefix)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry. User messages are immutable once
// created; assistant messages grow incrementally while their turn streams and
// are immutable afterwards.
type Message struct {
	ID            MessageID
	Role          Role
	InteractionID string

	// Content is the user's text, or the assistant's visible answer.
	Content string

	// Reasoning is the assistant's <think>-delimited text. Empty for user
	// messages and for assistant turns that produced no reasoning.
	Reasoning string
}

// NewUserMessage creates a user message under a fresh pending interaction.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:            NewPendingID(),
		Role:          RoleUser,
		InteractionID: NewPendingInteractionID(),
		Content:       content,
	}
}

// NewAssistantPlaceholder creates an empty assistant message in the given
// interaction, ready to receive streamed chunks.
func NewAssistantPlaceholder(interactionID string) *Message {
	return &Message{
		ID:            NewPendingID(),
		Role:          RoleAssistant,
		InteractionID: interactionID,
	}
}

// IsUser reports whether the message was sent by the user.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// HasReasoning reports whether the assistant produced reasoning text.
func (m *Message) HasReasoning() bool {
	return m.Reasoning != ""
}

// =============================================================================
// TOOL RESULTS
// =============================================================================

// ToolResult is one document/page citation produced alongside an assistant
// turn. Citations arrive as discrete structured messages on the stream, not
// as incremental text.
type ToolResult struct {
	DocumentName string
	PageNumber   int
}
