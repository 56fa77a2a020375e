// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/session"
	"github.com/archivista-ai/archivista/internal/storage"
	"github.com/archivista-ai/archivista/internal/turn"
	"github.com/archivista-ai/archivista/internal/ui/components"
	"github.com/archivista-ai/archivista/internal/ui/styles"
)

// focus identifies which pane receives navigation keys.
type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// Model is the chat view.
type Model struct {
	theme       *styles.Theme
	session     *session.Manager
	coordinator *turn.Coordinator
	client      *api.Client
	cache       *storage.Cache

	transcript *model.Transcript
	sidebar    *components.Sidebar
	statusBar  *components.StatusBar
	input      textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	renderer   *glamour.TermRenderer
	keys       KeyMap

	focus         focus
	showReasoning bool
	statusText    string

	events <-chan turn.Event

	width  int
	height int
}

// New creates the chat view. cache may be nil when the local mirror could
// not be opened; everything still works, just without offline startup.
func New(theme *styles.Theme, sess *session.Manager, coordinator *turn.Coordinator, client *api.Client, cache *storage.Cache, showReasoning bool) *Model {
	input := textarea.New()
	input.Placeholder = "Ask about your documents..."
	input.CharLimit = 8000
	input.SetHeight(2)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		theme:         theme,
		session:       sess,
		coordinator:   coordinator,
		client:        client,
		cache:         cache,
		transcript:    model.NewTranscript(),
		sidebar:       components.NewSidebar(theme),
		statusBar:     components.NewStatusBar(theme),
		input:         input,
		viewport:      viewport.New(0, 0),
		spinner:       sp,
		keys:          DefaultKeyMap(),
		showReasoning: showReasoning,
	}
	return m
}

// Init arms the spinner and loads the sidebar, cache first for a warm start.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadCachedThreads(),
		m.loadThreads(),
	)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) loadThreads() tea.Cmd {
	return func() tea.Msg {
		threads, err := m.client.Threads(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ThreadsLoadedMsg{Threads: threads}
	}
}

func (m *Model) loadCachedThreads() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	return func() tea.Msg {
		threads, err := m.cache.Threads(context.Background())
		if err != nil || len(threads) == 0 {
			return nil
		}
		return ThreadsLoadedMsg{Threads: threads, FromCache: true}
	}
}

func (m *Model) loadTranscript(threadID string) tea.Cmd {
	return func() tea.Msg {
		wire, err := m.client.ThreadMessages(context.Background(), threadID)
		if err != nil {
			// Fall back to the local mirror when the backend is unreachable.
			if m.cache != nil {
				if messages, tools, cacheErr := m.cache.Transcript(context.Background(), threadID); cacheErr == nil && len(messages) > 0 {
					return TranscriptLoadedMsg{ThreadID: threadID, Messages: messages, ToolResults: tools, FromCache: true}
				}
			}
			return ErrMsg{Err: err}
		}
		messages, tools := turn.MapWireMessages(wire)
		return TranscriptLoadedMsg{ThreadID: threadID, Messages: messages, ToolResults: tools}
	}
}

func (m *Model) deleteThread(threadID string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.DeleteThread(context.Background(), threadID)
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			return ErrMsg{Err: err}
		}
		if m.cache != nil {
			m.cache.DeleteThread(context.Background(), threadID)
		}
		// A 404 means the thread is gone server-side already; the sidebar
		// entry is stale and gets dropped the same way.
		return ThreadDeletedMsg{ThreadID: threadID, WasMissing: errors.Is(err, api.ErrNotFound)}
	}
}

// cacheTranscript mirrors a resynced transcript locally. Best effort.
func (m *Model) cacheTranscript(threadID string, messages []*model.Message, tools map[string][]model.ToolResult) tea.Cmd {
	if m.cache == nil || model.IsPlaceholderThread(threadID) {
		return nil
	}
	return func() tea.Msg {
		m.cache.SaveTranscript(context.Background(), threadID, messages, tools)
		return nil
	}
}

func (m *Model) cacheThreads(threads []model.Thread) tea.Cmd {
	if m.cache == nil {
		return nil
	}
	return func() tea.Msg {
		m.cache.SaveThreads(context.Background(), threads)
		return nil
	}
}
