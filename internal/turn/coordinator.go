// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package turn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/auth"
	"github.com/archivista-ai/archivista/internal/model"
	"github.com/archivista-ai/archivista/internal/stream"
)

// ErrBusy is returned by Start while a turn is already in flight.
var ErrBusy = errors.New("a turn is already in progress")

// readBufSize is the stream read granularity. Fragments smaller than this
// arrive whole because chunked transfer preserves write boundaries.
const readBufSize = 4096

// Coordinator runs chat turns. Safe for concurrent use, but only one turn
// may be in flight at a time.
type Coordinator struct {
	client     *api.Client
	authClient *auth.Client
	store      *auth.Store
	busy       atomic.Bool
}

// New creates a turn coordinator.
func New(client *api.Client, authClient *auth.Client, store *auth.Store) *Coordinator {
	return &Coordinator{
		client:     client,
		authClient: authClient,
		store:      store,
	}
}

// Busy reports whether a turn is in flight. Input surfaces stay disabled
// while true.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Start launches one turn and returns its event channel. The channel closes
// after the terminal Done event. Returns ErrBusy if a turn is already
// running.
func (c *Coordinator) Start(ctx context.Context, threadID, content string) (<-chan Event, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	events := make(chan Event, 64)
	go c.run(ctx, threadID, content, events)
	return events, nil
}

// run is the turn state machine: send, retry once through refresh on an auth
// failure, stream, then resynchronize from the server.
func (c *Coordinator) run(ctx context.Context, threadID, content string, events chan<- Event) {
	defer close(events)
	defer c.busy.Store(false)

	events <- Started{Content: content}

	resp, err := c.client.Invoke(ctx, threadID, content)
	if errors.Is(err, api.ErrUnauthenticated) {
		if refreshErr := c.authClient.Refresh(ctx); refreshErr != nil {
			// Definitive rejection already cleared the store. The turn is
			// abandoned without a resync; the user message stays visible,
			// annotated so line-mode output shows why the answer never came.
			events <- Failed{Annotation: errorAnnotation(refreshErr)}
			events <- AuthExpired{}
			events <- Done{Err: refreshErr}
			return
		}
		// Exactly one retry, with the freshly stored token and the same
		// message body.
		resp, err = c.client.Invoke(ctx, threadID, content)
		if errors.Is(err, api.ErrUnauthenticated) {
			c.store.Clear()
			events <- Failed{Annotation: errorAnnotation(err)}
			events <- AuthExpired{}
			events <- Done{Err: err}
			return
		}
	}
	if err != nil {
		events <- Failed{Annotation: errorAnnotation(err)}
		c.resync(ctx, threadID, events)
		events <- Done{Err: err}
		return
	}

	if resp.AssignedThreadID != "" && model.IsPlaceholderThread(threadID) {
		events <- ThreadAssigned{PlaceholderID: threadID, ThreadID: resp.AssignedThreadID}
		threadID = resp.AssignedThreadID
	}

	streamErr := c.consume(resp.Body, events)
	if streamErr != nil {
		events <- Failed{Annotation: errorAnnotation(streamErr)}
	}

	c.resync(ctx, threadID, events)
	events <- Done{Err: streamErr}
}

// consume reads the response stream to completion, demultiplexing fragments
// into delta events.
func (c *Coordinator) consume(body io.ReadCloser, events chan<- Event) error {
	defer body.Close()

	d := stream.New()
	emit := func(evs []stream.Event) {
		for _, ev := range evs {
			switch ev.Kind {
			case stream.KindVisible:
				events <- VisibleDelta{Text: ev.Text}
			case stream.KindReasoning:
				events <- ReasoningDelta{Text: ev.Text}
			case stream.KindToolResults:
				events <- ToolResults{Results: toModelResults(ev.Records)}
			}
		}
	}

	buf := make([]byte, readBufSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			emit(d.Feed(string(buf[:n])))
		}
		if errors.Is(err, io.EOF) {
			emit(d.Flush())
			return nil
		}
		if err != nil {
			// Keep whatever arrived before the connection dropped.
			emit(d.Flush())
			return fmt.Errorf("stream interrupted: %w", err)
		}
	}
}

// resync replaces the optimistic transcript with the server's persisted view
// and refreshes the sidebar. Skipped for conversations that never reached
// the server. Resync failures are silent: the optimistic transcript stays.
func (c *Coordinator) resync(ctx context.Context, threadID string, events chan<- Event) {
	if threadID == "" || model.IsPlaceholderThread(threadID) {
		return
	}

	if wire, err := c.client.ThreadMessages(ctx, threadID); err == nil {
		messages, toolResults := MapWireMessages(wire)
		events <- Resynced{Messages: messages, ToolResults: toolResults}
	}
	if threads, err := c.client.Threads(ctx); err == nil {
		events <- ThreadsRefreshed{Threads: threads}
	}
}

// errorAnnotation formats a failure for inline display in the transcript.
func errorAnnotation(err error) string {
	return fmt.Sprintf("\n\n[error: %v]", err)
}

// =============================================================================
// HISTORY MAPPING
// =============================================================================

// MapWireMessages converts a persisted thread into transcript messages plus
// citation records keyed by interaction.
//
// The wire keeps three message varieties: "human" rows are user messages,
// tool rows carry a TOOL_MSG payload, and everything else is assistant
// output whose content still embeds <think> blocks and must be re-split.
func MapWireMessages(wire []api.WireMessage) ([]*model.Message, map[string][]model.ToolResult) {
	messages := make([]*model.Message, 0, len(wire))
	toolResults := make(map[string][]model.ToolResult)

	for i, row := range wire {
		id := model.PersistedID(fmt.Sprintf("%s/%d", row.InteractionID, i))

		switch {
		case row.Type == "human":
			messages = append(messages, &model.Message{
				ID:            id,
				Role:          model.RoleUser,
				InteractionID: row.InteractionID,
				Content:       row.Content,
			})

		case row.Type == "tool" || strings.HasPrefix(row.Content, stream.ToolResultPrefix):
			if records, ok := parseToolPayload(row.Content); ok {
				toolResults[row.InteractionID] = append(toolResults[row.InteractionID], records...)
			}

		default:
			visible, reasoning, records := splitAssistantContent(row.Content)
			if len(records) > 0 {
				toolResults[row.InteractionID] = append(toolResults[row.InteractionID], records...)
			}
			messages = append(messages, &model.Message{
				ID:            id,
				Role:          model.RoleAssistant,
				InteractionID: row.InteractionID,
				Content:       visible,
				Reasoning:     reasoning,
			})
		}
	}
	return messages, toolResults
}

// splitAssistantContent re-runs a persisted assistant message through the
// stream demultiplexer, since the backend stores the raw marked-up text.
func splitAssistantContent(content string) (visible, reasoning string, results []model.ToolResult) {
	d := stream.New()
	events := d.Feed(content)
	events = append(events, d.Flush()...)

	var visibleB, reasoningB strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case stream.KindVisible:
			visibleB.WriteString(ev.Text)
		case stream.KindReasoning:
			reasoningB.WriteString(ev.Text)
		case stream.KindToolResults:
			results = append(results, toModelResults(ev.Records)...)
		}
	}
	return strings.TrimSpace(visibleB.String()), strings.TrimSpace(reasoningB.String()), results
}

// parseToolPayload decodes a TOOL_MSG row body.
func parseToolPayload(content string) ([]model.ToolResult, bool) {
	idx := strings.Index(content, stream.ToolResultPrefix)
	if idx < 0 {
		return nil, false
	}
	var records []stream.ToolRecord
	if err := json.Unmarshal([]byte(content[idx+len(stream.ToolResultPrefix):]), &records); err != nil {
		return nil, false
	}
	return toModelResults(records), true
}

func toModelResults(records []stream.ToolRecord) []model.ToolResult {
	results := make([]model.ToolResult, 0, len(records))
	for _, rec := range records {
		results = append(results, model.ToolResult{
			DocumentName: rec.DocumentName,
			PageNumber:   rec.PageNumber,
		})
	}
	return results
}
