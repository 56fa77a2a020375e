// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package documents is the document management view: list, upload, delete.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/ui/styles"
	"github.com/archivista-ai/archivista/internal/util"
)

// CloseMsg tells the app shell to return to the chat view.
type CloseMsg struct{}

type listLoadedMsg struct {
	docs []api.Document
}

type uploadDoneMsg struct {
	result *api.UploadResult
	err    error
}

type deleteDoneMsg struct {
	documentID string
	err        error
}

type errMsg struct {
	err error
}

// Model is the documents view.
type Model struct {
	theme  *styles.Theme
	client *api.Client

	docs    []api.Document
	cursor  int
	loading bool

	uploadInput textinput.Model
	uploading   bool
	prompting   bool

	statusText string
	statusErr  bool

	width  int
	height int
}

// New creates the documents view.
func New(theme *styles.Theme, client *api.Client) *Model {
	input := textinput.New()
	input.Placeholder = "path to file, e.g. ~/reports/q3.pdf"
	input.CharLimit = 1024

	return &Model{
		theme:       theme,
		client:      client,
		uploadInput: input,
	}
}

// Init loads the document listing.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadDocs()
}

func (m *Model) loadDocs() tea.Cmd {
	return func() tea.Msg {
		docs, err := m.client.Documents(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return listLoadedMsg{docs: docs}
	}
}

func (m *Model) upload(path string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.UploadDocument(context.Background(), util.ExpandHome(path))
		return uploadDoneMsg{result: result, err: err}
	}
}

func (m *Model) deleteDoc(documentID string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.DeleteDocument(context.Background(), documentID)
		return deleteDoneMsg{documentID: documentID, err: err}
	}
}

// Update handles list navigation, the upload prompt, and deletions.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case listLoadedMsg:
		m.loading = false
		m.docs = msg.docs
		if m.cursor >= len(m.docs) {
			m.cursor = 0
		}
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("upload failed: %v", msg.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%s ingested", msg.result.Filename), false)
		return m, m.loadDocs()

	case deleteDoneMsg:
		if errors.Is(msg.err, api.ErrNotFound) {
			m.setStatus("document was already removed", true)
			return m, m.loadDocs()
		}
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("delete failed: %v", msg.err), true)
			return m, nil
		}
		m.setStatus("document deleted", false)
		return m, m.loadDocs()

	case errMsg:
		m.loading = false
		m.setStatus(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.prompting {
		var cmd tea.Cmd
		m.uploadInput, cmd = m.uploadInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if m.prompting {
		switch msg.String() {
		case "esc":
			m.prompting = false
			m.uploadInput.Blur()
			return m, nil
		case "enter":
			path := util.NormalizeInput(m.uploadInput.Value())
			if path == "" {
				return m, nil
			}
			m.prompting = false
			m.uploading = true
			m.uploadInput.Reset()
			m.uploadInput.Blur()
			m.setStatus("uploading "+path+"...", false)
			return m, m.upload(path)
		}
		var cmd tea.Cmd
		m.uploadInput, cmd = m.uploadInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q", "ctrl+o":
		return m, func() tea.Msg { return CloseMsg{} }
	case "ctrl+q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.docs)-1 {
			m.cursor++
		}
	case "u":
		m.prompting = true
		m.uploadInput.Focus()
		return m, textinput.Blink
	case "d", "x":
		if len(m.docs) > 0 {
			return m, m.deleteDoc(m.docs[m.cursor].DocumentID)
		}
	case "r":
		m.loading = true
		return m, m.loadDocs()
	}
	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusText = text
	m.statusErr = isErr
}

// View renders the document list with the upload prompt underneath.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.FormTitle.Render("Documents"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.theme.FormHint.Render("loading..."))
	case len(m.docs) == 0:
		b.WriteString(m.theme.FormHint.Render("No documents yet. Press u to upload one."))
	default:
		for i, doc := range m.docs {
			line := fmt.Sprintf("%-40s  %s",
				util.TruncateWidth(doc.FileName, 40),
				doc.CreatedAt.Format("Jan 2 2006"))
			style := m.theme.ListItem
			if i == m.cursor {
				style = m.theme.ListSelected
			}
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if m.prompting {
		b.WriteString(m.theme.InputPrompt.Render("upload: "))
		b.WriteString(m.uploadInput.View())
		b.WriteString("\n")
	}

	if m.statusText != "" {
		style := m.theme.Success
		if m.statusErr {
			style = m.theme.FormError
		}
		b.WriteString(style.Render(m.statusText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.FormHint.Render("u upload   d delete   r refresh   Esc back   C-q quit"))

	page := lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	return page
}
