// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package app is the root Bubble Tea model: it owns the shared dependencies
// and routes between the login, chat, and documents views.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/auth"
	"github.com/archivista-ai/archivista/internal/session"
	"github.com/archivista-ai/archivista/internal/storage"
	"github.com/archivista-ai/archivista/internal/turn"
	"github.com/archivista-ai/archivista/internal/ui/chat"
	"github.com/archivista-ai/archivista/internal/ui/documents"
	"github.com/archivista-ai/archivista/internal/ui/login"
	"github.com/archivista-ai/archivista/internal/ui/styles"
)

// view identifies the active surface.
type view int

const (
	viewLogin view = iota
	viewChat
	viewDocuments
)

// sessionGuardMsg reports the startup token refresh.
type sessionGuardMsg struct {
	ok bool
}

// credentialsChangedMsg fires when another process rewrote the credential
// file.
type credentialsChangedMsg struct{}

// Deps bundles what the shell needs to build its views.
type Deps struct {
	Theme         *styles.Theme
	Session       *session.Manager
	Store         *auth.Store
	AuthClient    *auth.Client
	APIClient     *api.Client
	Coordinator   *turn.Coordinator
	Cache         *storage.Cache
	ShowReasoning bool
}

// Model is the root application model.
type Model struct {
	deps Deps

	active view
	login  *login.Model
	chat   *chat.Model
	docs   *documents.Model

	lastSize tea.WindowSizeMsg

	// credentialEvents receives a signal from the store watcher; the pump
	// converts it into update-loop messages.
	credentialEvents chan struct{}
}

// New creates the application shell. The chat view is built lazily after
// sign-in so its initial loads run with valid credentials.
func New(deps Deps) *Model {
	m := &Model{
		deps:             deps,
		login:            login.New(deps.Theme, deps.AuthClient),
		credentialEvents: make(chan struct{}, 1),
	}
	if deps.Session.IsAuthenticated() {
		m.active = viewChat
		m.chat = chat.New(deps.Theme, deps.Session, deps.Coordinator, deps.APIClient, deps.Cache, deps.ShowReasoning)
	}
	return m
}

// NotifyCredentialsChanged is the store watcher callback. Safe to call from
// any goroutine.
func (m *Model) NotifyCredentialsChanged() {
	select {
	case m.credentialEvents <- struct{}{}:
	default:
	}
}

// Init runs the startup session guard: a stored token pair is refreshed once
// before the first API call so a stale access token does not greet the user
// with an error.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.login.Init(), m.waitCredentialChange()}
	if m.active == viewChat {
		cmds = append(cmds, m.sessionGuard())
	}
	return tea.Batch(cmds...)
}

func (m *Model) sessionGuard() tea.Cmd {
	return func() tea.Msg {
		err := m.deps.AuthClient.Refresh(context.Background())
		return sessionGuardMsg{ok: err == nil}
	}
}

func (m *Model) waitCredentialChange() tea.Cmd {
	return func() tea.Msg {
		<-m.credentialEvents
		return credentialsChangedMsg{}
	}
}

// Update routes messages to the active view and handles the cross-view
// transitions.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.lastSize = msg
		// Every view gets the size so switching needs no re-measure.
		var cmds []tea.Cmd
		if m.chat != nil {
			_, cmd := m.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
		_, cmd := m.login.Update(msg)
		cmds = append(cmds, cmd)
		if m.docs != nil {
			_, cmd := m.docs.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case sessionGuardMsg:
		if !msg.ok && !m.deps.Store.IsAuthenticated() {
			return m.toLogin()
		}
		return m, nil

	case credentialsChangedMsg:
		cmds := []tea.Cmd{m.waitCredentialChange()}
		if m.deps.Store.IsAuthenticated() && m.active == viewLogin {
			// Another process signed in, e.g. `archivista login`.
			_, cmd := m.toChat()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case login.SucceededMsg:
		return m.toChat()

	case chat.SessionExpiredMsg:
		return m.toLogin()

	case chat.OpenDocumentsMsg:
		m.docs = documents.New(m.deps.Theme, m.deps.APIClient)
		m.active = viewDocuments
		cmds := []tea.Cmd{m.docs.Init()}
		if m.lastSize.Width > 0 {
			_, cmd := m.docs.Update(m.lastSize)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case documents.CloseMsg:
		m.active = viewChat
		return m, nil
	}

	switch m.active {
	case viewLogin:
		updated, cmd := m.login.Update(msg)
		m.login = updated
		return m, cmd
	case viewDocuments:
		updated, cmd := m.docs.Update(msg)
		m.docs = updated
		return m, cmd
	default:
		updated, cmd := m.chat.Update(msg)
		m.chat = updated
		return m, cmd
	}
}

func (m *Model) toChat() (tea.Model, tea.Cmd) {
	m.deps.Session.SetAuthenticated(true)
	m.chat = chat.New(m.deps.Theme, m.deps.Session, m.deps.Coordinator, m.deps.APIClient, m.deps.Cache, m.deps.ShowReasoning)
	m.active = viewChat

	cmds := []tea.Cmd{m.chat.Init()}
	if m.lastSize.Width > 0 {
		_, cmd := m.chat.Update(m.lastSize)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) toLogin() (tea.Model, tea.Cmd) {
	m.deps.Session.SetAuthenticated(false)
	m.login = login.New(m.deps.Theme, m.deps.AuthClient)
	m.active = viewLogin

	cmds := []tea.Cmd{m.login.Init()}
	if m.lastSize.Width > 0 {
		_, cmd := m.login.Update(m.lastSize)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View renders the active surface.
func (m *Model) View() string {
	switch m.active {
	case viewLogin:
		return m.login.View()
	case viewDocuments:
		return m.docs.View()
	default:
		return m.chat.View()
	}
}
