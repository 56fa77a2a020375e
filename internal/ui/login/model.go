// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package login is the sign-in and registration view.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/archivista-ai/archivista/internal/auth"
	"github.com/archivista-ai/archivista/internal/ui/styles"
	"github.com/archivista-ai/archivista/internal/util"
)

// mode selects between sign-in and registration.
type mode int

const (
	modeLogin mode = iota
	modeSignup
)

// SucceededMsg tells the app shell the user is signed in.
type SucceededMsg struct{}

// SignupPendingMsg reports a registration that needs email confirmation
// before sign-in.
type SignupPendingMsg struct{}

type resultMsg struct {
	err         error
	signedIn    bool
	confirmable bool
}

// Model is the login view: email and password fields plus a mode toggle.
type Model struct {
	theme  *styles.Theme
	client *auth.Client

	mode     mode
	email    textinput.Model
	password textinput.Model
	focused  int

	submitting bool
	errText    string
	notice     string

	width  int
	height int
}

// New creates the login view.
func New(theme *styles.Theme, client *auth.Client) *Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return &Model{
		theme:    theme,
		client:   client,
		email:    email,
		password: password,
	}
}

// Init is a no-op; the view is purely input-driven.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles form input and submission.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case resultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		if msg.signedIn {
			return m, func() tea.Msg { return SucceededMsg{} }
		}
		if msg.confirmable {
			m.notice = "Account created. Confirm your email, then sign in."
			m.mode = modeLogin
			return m, func() tea.Msg { return SignupPendingMsg{} }
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+q", "ctrl+c":
			return m, tea.Quit

		case "tab", "shift+tab", "up", "down":
			m.cycleFocus()
			return m, nil

		case "ctrl+s":
			if m.mode == modeLogin {
				m.mode = modeSignup
			} else {
				m.mode = modeLogin
			}
			m.errText = ""
			return m, nil

		case "enter":
			return m, m.submit()
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) cycleFocus() {
	m.focused = (m.focused + 1) % 2
	if m.focused == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
}

func (m *Model) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	email := util.NormalizeInput(m.email.Value())
	password := m.password.Value()
	if email == "" || !strings.Contains(email, "@") {
		m.errText = "enter a valid email address"
		return nil
	}
	if password == "" {
		m.errText = "enter a password"
		return nil
	}

	m.submitting = true
	m.errText = ""
	signup := m.mode == modeSignup
	client := m.client

	return func() tea.Msg {
		ctx := context.Background()
		if signup {
			if err := client.Signup(ctx, email, password); err != nil {
				return resultMsg{err: err}
			}
			// Auto-confirm deployments return tokens right away.
			if err := client.Login(ctx, email, password); err != nil {
				return resultMsg{confirmable: true}
			}
			return resultMsg{signedIn: true}
		}
		if err := client.Login(ctx, email, password); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{signedIn: true}
	}
}

// View renders the centered form.
func (m *Model) View() string {
	title := "Sign in to Archivista"
	action := "C-s register instead"
	if m.mode == modeSignup {
		title = "Create an Archivista account"
		action = "C-s sign in instead"
	}

	var b strings.Builder
	b.WriteString(m.theme.FormTitle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.submitting:
		b.WriteString(m.theme.FormHint.Render("signing in..."))
	case m.errText != "":
		b.WriteString(m.theme.FormError.Render(m.errText))
	case m.notice != "":
		b.WriteString(m.theme.Success.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.FormHint.Render("Enter submit   Tab next field   " + action + "   C-q quit"))

	form := m.theme.InputContainer.Padding(1, 3).Render(b.String())
	if m.width == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}
