// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/archivista-ai/archivista/internal/auth"
	"github.com/archivista-ai/archivista/internal/model"
)

// Backend paths.
const (
	invokePath  = "/api/chat/invoke"
	historyPath = "/api/chat/get_user_conversation_history"
	threadPath  = "/api/chat/get_user_conversation_thread"
)

// sharedTransport is reused across all Client instances so connections pool
// properly across the TUI, the CLI commands, and the turn coordinator.
var sharedTransport = &http.Transport{
	MaxIdleConns:        10,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Options configures a Client. Path prefixes are configurable because
// deployments have renamed them between backend versions.
type Options struct {
	BaseURL              string
	ThreadDeletePrefix   string
	DocumentListPath     string
	DocumentUploadPath   string
	DocumentDeletePrefix string
	Timeout              time.Duration
}

// Client calls the Archivista backend.
type Client struct {
	opts       Options
	store      *auth.Store
	authClient *auth.Client
	httpClient *http.Client
	// streamClient has no overall timeout: a chat response streams for as
	// long as generation takes. Cancellation comes from the request context.
	streamClient *http.Client
}

// NewClient creates a backend client.
func NewClient(opts Options, store *auth.Store, authClient *auth.Client) *Client {
	return &Client{
		opts:       opts,
		store:      store,
		authClient: authClient,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   opts.Timeout,
		},
		streamClient: &http.Client{
			Transport: sharedTransport,
		},
	}
}

// =============================================================================
// WIRE SHAPES
// =============================================================================

// threadSummary is one row of the conversation history listing.
type threadSummary struct {
	ThreadID  string    `json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WireMessage is one persisted message as returned by the thread endpoint.
// Type is "human" for user messages; assistant and tool messages arrive with
// other type strings and are told apart by content shape.
type WireMessage struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	InteractionID string `json:"interaction_id"`
}

// =============================================================================
// THREADS
// =============================================================================

// Threads lists the user's conversations, newest-first.
func (c *Client) Threads(ctx context.Context) ([]model.Thread, error) {
	var rows []threadSummary
	if err := c.getJSON(ctx, c.opts.BaseURL+historyPath, "", &rows); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := make([]model.Thread, 0, len(rows))
	for _, row := range rows {
		threads = append(threads, model.Thread{
			ID:          row.ThreadID,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			HasMessages: true,
		})
	}
	model.SortThreadsByUpdated(threads)
	return threads, nil
}

// ThreadMessages fetches the persisted transcript of one thread.
func (c *Client) ThreadMessages(ctx context.Context, threadID string) ([]WireMessage, error) {
	var rows []WireMessage
	if err := c.getJSON(ctx, c.opts.BaseURL+threadPath, threadID, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch thread %s: %w", threadID, err)
	}
	return rows, nil
}

// DeleteThread removes a conversation server-side.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	url := c.opts.BaseURL + c.opts.ThreadDeletePrefix + threadID
	if err := c.doSimple(ctx, http.MethodDelete, url, ""); err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}
	return nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// getJSON performs an authenticated GET and decodes the JSON answer into out.
// On an auth failure it refreshes once and retries.
func (c *Client) getJSON(ctx context.Context, url, threadID string, out any) error {
	body, err := c.doAuthed(ctx, http.MethodGet, url, threadID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doSimple performs an authenticated request where only the status matters.
func (c *Client) doSimple(ctx context.Context, method, url, threadID string) error {
	_, err := c.doAuthed(ctx, method, url, threadID)
	return err
}

// doAuthed issues the request with the current access token, refreshing and
// retrying exactly once when the token is rejected.
func (c *Client) doAuthed(ctx context.Context, method, url, threadID string) ([]byte, error) {
	body, err := c.doOnce(ctx, method, url, threadID)
	if !errors.Is(err, ErrUnauthenticated) {
		return body, err
	}

	if refreshErr := c.authClient.Refresh(ctx); refreshErr != nil {
		return nil, ErrUnauthenticated
	}
	return c.doOnce(ctx, method, url, threadID)
}

func (c *Client) doOnce(ctx context.Context, method, url, threadID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, threadID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

// setHeaders applies the standard header set. The X-Thread-Id header is only
// sent for real (server-minted) thread ids; placeholder threads have no
// server-side identity yet.
func (c *Client) setHeaders(req *http.Request, threadID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.store.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if threadID != "" && !model.IsPlaceholderThread(threadID) {
		req.Header.Set("X-Thread-Id", threadID)
	}
}
