// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// threadIDHeader carries the thread identity: request side for an existing
// thread, response side when the backend mints one for a first turn.
const threadIDHeader = "X-Thread-Id"

// StreamResponse is an open chat invocation. The caller owns Body and must
// Close it; fragments arrive as the transport delivers them, split at
// arbitrary byte boundaries.
type StreamResponse struct {
	Body io.ReadCloser

	// AssignedThreadID is the server-minted thread id when the invocation
	// started a new conversation, empty otherwise.
	AssignedThreadID string
}

// Invoke posts one user message and opens the chunked response stream.
//
// Unlike the other calls, Invoke never refreshes and retries on its own: the
// turn coordinator owns that decision, because a retried turn must not
// duplicate the user message in the transcript. An auth failure surfaces as
// ErrUnauthenticated with no stream.
func (c *Client) Invoke(ctx context.Context, threadID, content string) (*StreamResponse, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.opts.BaseURL+invokePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoke request: %w", err)
	}
	c.setHeaders(req, threadID)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return nil, statusError(resp.StatusCode, body)
	}

	return &StreamResponse{
		Body:             resp.Body,
		AssignedThreadID: resp.Header.Get(threadIDHeader),
	}, nil
}
