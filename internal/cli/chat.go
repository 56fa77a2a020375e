// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/archivista-ai/archivista/internal/config"
	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/turn"
	"github.com/archivista-ai/archivista/internal/ui/components"
	"github.com/archivista-ai/archivista/internal/ui/styles"
	"github.com/archivista-ai/archivista/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	reasoningStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	citationStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

const chatHelpText = `Commands:
  /new            Start a new conversation
  /threads        List conversations
  /open ID        Open a conversation
  /think          Toggle reasoning output
  /help           Show this help
  /quit           Exit (also Ctrl+D)
`

// runChat is the line-mode chat loop: read a line, stream the answer, print
// citations, repeat.
func runChat(env *Env, args *Args) int {
	if !requireAuth(env) {
		return 1
	}

	coordinator := turn.New(env.APIClient, env.AuthClient, env.Store)
	active := model.NewPlaceholderThread()
	showThink := args.Think

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyPath := ""
	if dir, err := config.Dir(); err == nil {
		historyPath = filepath.Join(dir, "chat_history")
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if historyPath == "" {
			return
		}
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("archivista chat; /help for commands, Ctrl+D to exit")

	for {
		input, err := line.Prompt(promptStyle.Render("> "))
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		text := util.NormalizeInput(input)
		if text == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(text, "/") {
			var done bool
			active, showThink, done = handleChatCommand(env, text, active, showThink)
			if done {
				return 0
			}
			continue
		}

		newID, err := streamTurn(coordinator, active.ID, text, showThink)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("error: %v", err)))
		}
		if newID != "" {
			active.ID = newID
			active.HasMessages = true
		}
	}
}

// handleChatCommand processes one /command line. Returns the possibly
// changed active thread, the reasoning toggle, and whether to exit.
func handleChatCommand(env *Env, text string, active model.Thread, showThink bool) (model.Thread, bool, bool) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		return active, showThink, true

	case "/help", "/h":
		fmt.Print(chatHelpText)

	case "/new":
		active = model.NewPlaceholderThread()
		fmt.Println("new conversation")

	case "/think":
		showThink = !showThink
		if showThink {
			fmt.Println("reasoning on")
		} else {
			fmt.Println("reasoning off")
		}

	case "/threads":
		threads, err := env.APIClient.Threads(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("error: %v", err)))
			break
		}
		if len(threads) == 0 {
			fmt.Println("no conversations yet")
			break
		}
		for _, t := range threads {
			marker := " "
			if t.ID == active.ID {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, t.UpdatedAt.Format("2006-01-02 15:04"), t.ID)
		}

	case "/open":
		if len(fields) < 2 {
			fmt.Println("usage: /open THREAD_ID")
			break
		}
		active = model.Thread{ID: fields[1], HasMessages: true}
		printTranscript(env, active.ID, showThink)

	default:
		fmt.Printf("unknown command %s; /help for commands\n", fields[0])
	}
	return active, showThink, false
}

// streamTurn runs one turn, printing deltas as they arrive. Returns the
// server-minted thread id when the turn started a new conversation.
func streamTurn(coordinator *turn.Coordinator, threadID, content string, showThink bool) (newThreadID string, err error) {
	events, startErr := coordinator.Start(context.Background(), threadID, content)
	if startErr != nil {
		return "", startErr
	}

	var citations []model.ToolResult
	inReasoning := false

	for ev := range events {
		switch ev := ev.(type) {
		case turn.VisibleDelta:
			if inReasoning {
				fmt.Println()
				inReasoning = false
			}
			fmt.Print(ev.Text)

		case turn.ReasoningDelta:
			if !showThink {
				continue
			}
			inReasoning = true
			fmt.Print(reasoningStyle.Render(ev.Text))

		case turn.ToolResults:
			citations = append(citations, ev.Results...)

		case turn.ThreadAssigned:
			newThreadID = ev.ThreadID

		case turn.Failed:
			fmt.Print(errorStyle.Render(ev.Annotation))

		case turn.AuthExpired:
			fmt.Println()
			return newThreadID, fmt.Errorf("session expired; run `archivista login`")

		case turn.Done:
			fmt.Println()
			if text := components.FormatCitations(citations); text != "" {
				fmt.Println(citationStyle.Render(text))
			}
			err = nil
		}
	}
	return newThreadID, err
}

// printTranscript dumps a thread's persisted history.
func printTranscript(env *Env, threadID string, showThink bool) {
	wire, err := env.APIClient.ThreadMessages(context.Background(), threadID)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("error: %v", err)))
		return
	}
	messages, toolResults := turn.MapWireMessages(wire)

	printed := make(map[string]bool)
	for _, msg := range messages {
		fmt.Printf("%s:\n", msg.Role.DisplayName())
		if showThink && msg.HasReasoning() {
			fmt.Println(reasoningStyle.Render(msg.Reasoning))
		}
		fmt.Println(msg.Content)
		if !printed[msg.InteractionID] && !msg.IsUser() {
			if text := components.FormatCitations(toolResults[msg.InteractionID]); text != "" {
				fmt.Println(citationStyle.Render(text))
				printed[msg.InteractionID] = true
			}
		}
		fmt.Println()
	}
}
