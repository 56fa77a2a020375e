// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package turn

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/auth"
	"github.com/archivista-ai/archivista/internal/model"
)

func newCoordinator(t *testing.T, backend, tokenService http.Handler) (*Coordinator, *auth.Store) {
	t.Helper()

	store, err := auth.NewStore(filepath.Join(t.TempDir(), auth.CredentialsFileName))
	require.NoError(t, err)
	require.NoError(t, store.Set("token-1", "refresh-1"))

	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	authURL := "http://127.0.0.1:0"
	if tokenService != nil {
		authSrv := httptest.NewServer(tokenService)
		t.Cleanup(authSrv.Close)
		authURL = authSrv.URL
	}

	authClient := auth.NewClient(authURL, store)
	client := api.NewClient(api.Options{
		BaseURL:            backendSrv.URL,
		ThreadDeletePrefix: "/api/chat/threads/",
	}, store, authClient)
	return New(client, authClient, store), store
}

// drain collects every event until the channel closes.
func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func eventsOfType[T Event](all []Event) []T {
	var out []T
	for _, ev := range all {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func TestCoordinator_NewThreadTurn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/invoke", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("X-Thread-Id"))
		w.Header().Set("X-Thread-Id", "t-real")
		io.WriteString(w, "Answer <think>checking</think>text")
	})
	mux.HandleFunc("/api/chat/get_user_conversation_thread", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "t-real", r.Header.Get("X-Thread-Id"))
		io.WriteString(w, `[
			{"type":"human","content":"question","interaction_id":"i-1"},
			{"type":"ai","content":"<think>checking</think>Answer text","interaction_id":"i-1"}
		]`)
	})
	mux.HandleFunc("/api/chat/get_user_conversation_history", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"thread_id":"t-real","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:01:00Z"}]`)
	})

	coord, _ := newCoordinator(t, mux, nil)

	placeholder := model.NewPlaceholderThread()
	events, err := coord.Start(context.Background(), placeholder.ID, "question")
	require.NoError(t, err)
	all := drain(t, events)

	require.NotEmpty(t, all)
	_, isStarted := all[0].(Started)
	assert.True(t, isStarted, "first event must open the turn")

	assigned := eventsOfType[ThreadAssigned](all)
	require.Len(t, assigned, 1)
	assert.Equal(t, placeholder.ID, assigned[0].PlaceholderID)
	assert.Equal(t, "t-real", assigned[0].ThreadID)

	var visible string
	for _, d := range eventsOfType[VisibleDelta](all) {
		visible += d.Text
	}
	assert.Equal(t, "Answer text", visible)

	var reasoning string
	for _, d := range eventsOfType[ReasoningDelta](all) {
		reasoning += d.Text
	}
	assert.Equal(t, "checking", reasoning)

	resynced := eventsOfType[Resynced](all)
	require.Len(t, resynced, 1)
	require.Len(t, resynced[0].Messages, 2)
	assert.Equal(t, model.RoleUser, resynced[0].Messages[0].Role)
	assert.Equal(t, "Answer text", resynced[0].Messages[1].Content)
	assert.Equal(t, "checking", resynced[0].Messages[1].Reasoning)

	refreshed := eventsOfType[ThreadsRefreshed](all)
	require.Len(t, refreshed, 1)
	require.Len(t, refreshed[0].Threads, 1)

	done := all[len(all)-1].(Done)
	assert.NoError(t, done.Err)
	assert.False(t, coord.Busy())
}

func TestCoordinator_RefreshAndRetryOnce(t *testing.T) {
	var invokeCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/invoke", func(w http.ResponseWriter, r *http.Request) {
		invokeCalls++
		if r.Header.Get("Authorization") != "Bearer token-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "retry me", body["content"], "retry must resend the same message")
		io.WriteString(w, "recovered")
	})
	mux.HandleFunc("/api/chat/get_user_conversation_thread", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/chat/get_user_conversation_history", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	var refreshCalls int
	tokenService := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "token-2",
			"refresh_token": "refresh-2",
		})
	})

	coord, store := newCoordinator(t, mux, tokenService)

	events, err := coord.Start(context.Background(), "t-1", "retry me")
	require.NoError(t, err)
	all := drain(t, events)

	assert.Equal(t, 1, refreshCalls, "exactly one refresh")
	assert.Equal(t, 2, invokeCalls, "exactly one retried send")
	assert.Equal(t, "token-2", store.AccessToken())

	// One Started only: the retry must not duplicate the user message.
	assert.Len(t, eventsOfType[Started](all), 1)
	assert.Empty(t, eventsOfType[AuthExpired](all))

	var visible string
	for _, d := range eventsOfType[VisibleDelta](all) {
		visible += d.Text
	}
	assert.Equal(t, "recovered", visible)
	assert.NoError(t, all[len(all)-1].(Done).Err)
}

func TestCoordinator_AuthExpiredAbandonsTurn(t *testing.T) {
	var resyncCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/invoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		resyncCalls++
	})
	tokenService := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Token expired"})
	})

	coord, store := newCoordinator(t, mux, tokenService)

	events, err := coord.Start(context.Background(), "t-1", "hello")
	require.NoError(t, err)
	all := drain(t, events)

	require.Len(t, eventsOfType[AuthExpired](all), 1)
	assert.Empty(t, eventsOfType[Resynced](all), "abandoned turn must not resync")
	assert.Equal(t, 0, resyncCalls)
	assert.False(t, store.IsAuthenticated())
	assert.Error(t, all[len(all)-1].(Done).Err)
	assert.False(t, coord.Busy())

	// The placeholder still gets an inline note so line-mode output shows
	// why the answer never arrived.
	failed := eventsOfType[Failed](all)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Annotation, "[error:")
	failedIdx, expiredIdx := -1, -1
	for i, ev := range all {
		switch ev.(type) {
		case Failed:
			failedIdx = i
		case AuthExpired:
			expiredIdx = i
		}
	}
	assert.Less(t, failedIdx, expiredIdx, "annotation lands before the sign-out")
}

func TestCoordinator_RejectedRetryAnnotatesPlaceholder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/invoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	tokenService := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "token-2",
			"refresh_token": "refresh-2",
		})
	})

	coord, store := newCoordinator(t, mux, tokenService)

	events, err := coord.Start(context.Background(), "t-1", "hello")
	require.NoError(t, err)
	all := drain(t, events)

	// Refresh succeeded but the retried send was still rejected: the store
	// is cleared and the failure is annotated inline before the sign-out.
	assert.False(t, store.IsAuthenticated())
	require.Len(t, eventsOfType[Failed](all), 1)
	require.Len(t, eventsOfType[AuthExpired](all), 1)
	assert.Empty(t, eventsOfType[Resynced](all))
	assert.Error(t, all[len(all)-1].(Done).Err)
}

func TestCoordinator_SendFailureAnnotatesAndResyncs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/invoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "model unavailable"})
	})
	mux.HandleFunc("/api/chat/get_user_conversation_thread", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"type":"human","content":"hello","interaction_id":"i-1"}]`)
	})
	mux.HandleFunc("/api/chat/get_user_conversation_history", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	coord, _ := newCoordinator(t, mux, nil)

	events, err := coord.Start(context.Background(), "t-1", "hello")
	require.NoError(t, err)
	all := drain(t, events)

	failed := eventsOfType[Failed](all)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Annotation, "model unavailable")

	assert.Len(t, eventsOfType[Resynced](all), 1,
		"failed turns on real threads still resync")
	assert.Error(t, all[len(all)-1].(Done).Err)
}

func TestCoordinator_InterruptedStreamKeepsPartialText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/invoke", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "partial answer")
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	})
	mux.HandleFunc("/api/chat/get_user_conversation_thread", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/chat/get_user_conversation_history", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	coord, _ := newCoordinator(t, mux, nil)

	events, err := coord.Start(context.Background(), "t-1", "hello")
	require.NoError(t, err)
	all := drain(t, events)

	var visible string
	for _, d := range eventsOfType[VisibleDelta](all) {
		visible += d.Text
	}
	assert.Equal(t, "partial answer", visible)
	require.Len(t, eventsOfType[Failed](all), 1)
	assert.Error(t, all[len(all)-1].(Done).Err)
}

func TestCoordinator_RejectsConcurrentTurns(t *testing.T) {
	coord, _ := newCoordinator(t, http.NewServeMux(), nil)
	coord.busy.Store(true)

	_, err := coord.Start(context.Background(), "t-1", "hello")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestMapWireMessages(t *testing.T) {
	wire := []api.WireMessage{
		{Type: "human", Content: "what does the report say?", InteractionID: "i-1"},
		{Type: "tool", Content: `TOOL_MSG:[{"page_content":"...","page_number":4,"document_name":"report.pdf"},{"page_content":"...","page_number":2,"document_name":"report.pdf"}]`, InteractionID: "i-1"},
		{Type: "ai", Content: "<think>scanning pages</think>It says revenue grew.", InteractionID: "i-1"},
	}

	messages, toolResults := MapWireMessages(wire)

	require.Len(t, messages, 2, "tool rows do not become transcript messages")
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, "what does the report say?", messages[0].Content)
	assert.False(t, messages[0].ID.IsPending())

	assert.Equal(t, model.RoleAssistant, messages[1].Role)
	assert.Equal(t, "It says revenue grew.", messages[1].Content)
	assert.Equal(t, "scanning pages", messages[1].Reasoning)
	assert.Equal(t, "i-1", messages[1].InteractionID)

	require.Len(t, toolResults["i-1"], 2)
	assert.Equal(t, "report.pdf", toolResults["i-1"][0].DocumentName)
	assert.Equal(t, 4, toolResults["i-1"][0].PageNumber)
}

func TestMapWireMessages_MalformedToolRowIgnored(t *testing.T) {
	wire := []api.WireMessage{
		{Type: "tool", Content: "TOOL_MSG:[{broken", InteractionID: "i-1"},
	}
	messages, toolResults := MapWireMessages(wire)
	assert.Empty(t, messages)
	assert.Empty(t, toolResults)
}
