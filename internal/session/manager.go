// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package session

import (
	"sync"
	"time"

	"github.com/archivista-ai/archivista/internal/model"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager holds the cross-surface app state. The TUI views, the plain CLI
// loop, and the credential watcher all read it; only the update loop and the
// watcher write it, so a plain mutex suffices.
type Manager struct {
	mu sync.Mutex

	startTime time.Time

	authenticated bool
	activeThread  model.Thread
	threads       []model.Thread

	// busy is true from the moment a turn is sent until its resync settles
	// or the turn is abandoned. Thread switching and sending are disabled
	// while set.
	busy bool
}

// NewManager creates the session state. authenticated reflects whether a
// stored token pair was found at startup.
func NewManager(authenticated bool) *Manager {
	return &Manager{
		startTime:     time.Now(),
		authenticated: authenticated,
		activeThread:  model.NewPlaceholderThread(),
	}
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// IsAuthenticated reports whether the session holds credentials.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// SetAuthenticated flips the signed-in state. Signing out also forgets the
// thread list and resets to a fresh draft conversation.
func (m *Manager) SetAuthenticated(authenticated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticated = authenticated
	if !authenticated {
		m.threads = nil
		m.activeThread = model.NewPlaceholderThread()
	}
}

// =============================================================================
// THREADS
// =============================================================================

// ActiveThread returns the conversation currently open.
func (m *Manager) ActiveThread() model.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeThread
}

// SetActiveThread switches the open conversation.
func (m *Manager) SetActiveThread(t model.Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeThread = t
}

// StartDraft opens a fresh client-local conversation and returns it.
func (m *Manager) StartDraft() model.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeThread = model.NewPlaceholderThread()
	return m.activeThread
}

// PromoteDraft replaces the active draft's id with the server-minted one.
// A no-op when the active thread changed in the meantime.
func (m *Manager) PromoteDraft(placeholderID, threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeThread.ID != placeholderID {
		return
	}
	m.activeThread.ID = threadID
	m.activeThread.HasMessages = true
	m.activeThread.UpdatedAt = time.Now()
}

// Threads returns the sidebar listing, newest-first.
func (m *Manager) Threads() []model.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Thread, len(m.threads))
	copy(out, m.threads)
	return out
}

// SetThreads replaces the sidebar listing.
func (m *Manager) SetThreads(threads []model.Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = threads
	model.SortThreadsByUpdated(m.threads)
}

// RemoveThread drops one thread from the listing, switching to a fresh
// draft when it was the active one.
func (m *Manager) RemoveThread(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.threads[:0]
	for _, t := range m.threads {
		if t.ID != threadID {
			kept = append(kept, t)
		}
	}
	m.threads = kept
	if m.activeThread.ID == threadID {
		m.activeThread = model.NewPlaceholderThread()
	}
}

// =============================================================================
// TURN GATE
// =============================================================================

// IsBusy reports whether a turn is in flight.
func (m *Manager) IsBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// SetBusy flips the turn-in-flight gate.
func (m *Manager) SetBusy(busy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = busy
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a snapshot for the status bar.
type Status struct {
	Authenticated bool
	Busy          bool
	ActiveThread  model.Thread
	ThreadCount   int
	Uptime        time.Duration
}

// GetStatus returns a consistent snapshot of the session.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Authenticated: m.authenticated,
		Busy:          m.busy,
		ActiveThread:  m.activeThread,
		ThreadCount:   len(m.threads),
		Uptime:        time.Since(m.startTime),
	}
}
