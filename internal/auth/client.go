// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoRefreshToken is returned by Refresh when the store holds no refresh
// token, meaning the user was never logged in or was logged out.
var ErrNoRefreshToken = errors.New("no refresh token available")

// ErrRefreshRejected is returned when the token service definitively refused
// the refresh token. The store is cleared before this is returned.
var ErrRefreshRejected = errors.New("refresh token rejected")

// refreshMinInterval bounds how often a refresh request may hit the token
// service, regardless of how many callers race into a 401.
const refreshMinInterval = 2 * time.Second

// Client talks to the token service: password login, signup, and refresh.
// Refresh is serialized and rate limited because several API calls can hit a
// 401 at the same moment after token expiry.
type Client struct {
	baseURL    string
	store      *Store
	httpClient *http.Client

	refreshMu sync.Mutex
	limiter   *rate.Limiter
}

// NewClient creates an auth client against baseURL, persisting token pairs
// into store.
func NewClient(baseURL string, store *Store) *Client {
	return &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(refreshMinInterval), 1),
	}
}

// tokenResponse is the success shape of the /token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// errorResponse covers the three error shapes the token service emits.
type errorResponse struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *errorResponse) text() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	}
	return ""
}

// =============================================================================
// LOGIN / SIGNUP
// =============================================================================

// Login exchanges email and password for a token pair and persists it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	tokens, err := c.postToken(ctx, "/token?grant_type=password", body)
	if err != nil {
		return err
	}
	return c.store.Set(tokens.AccessToken, tokens.RefreshToken)
}

// Signup registers a new account. Depending on backend configuration the
// response may include a token pair (auto-confirm) or not (email
// confirmation pending); tokens are persisted when present.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode signup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/signup", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create signup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("signup request failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("signup failed: %s", serviceError(data, resp.StatusCode))
	}

	var tokens tokenResponse
	if err := json.Unmarshal(data, &tokens); err == nil && tokens.AccessToken != "" {
		return c.store.Set(tokens.AccessToken, tokens.RefreshToken)
	}
	return nil
}

// =============================================================================
// REFRESH
// =============================================================================

// Refresh exchanges the stored refresh token for a new pair.
//
// Concurrent callers are serialized; whichever caller ran last may find the
// store already holds a fresh token, so callers must re-read the store after
// Refresh returns. A definitive rejection by the token service clears the
// store and returns ErrRefreshRejected; transient failures leave the stored
// pair untouched so a later attempt can still succeed.
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refresh := c.store.RefreshToken()
	if refresh == "" {
		return ErrNoRefreshToken
	}

	// Collapse refresh stampedes after simultaneous 401s.
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body := map[string]string{"refresh_token": refresh}
	tokens, err := c.postToken(ctx, "/token?grant_type=refresh_token", body)
	if err != nil {
		var rejected *rejectionError
		if errors.As(err, &rejected) {
			if clearErr := c.store.Clear(); clearErr != nil {
				return fmt.Errorf("%w: %s (failed to clear credentials: %v)",
					ErrRefreshRejected, rejected.detail, clearErr)
			}
			return fmt.Errorf("%w: %s", ErrRefreshRejected, rejected.detail)
		}
		return err
	}
	return c.store.Set(tokens.AccessToken, tokens.RefreshToken)
}

// rejectionError marks a definitive 4xx answer from the token endpoint, as
// opposed to a network failure or server error.
type rejectionError struct {
	status int
	detail string
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("token request rejected (%d): %s", e.status, e.detail)
}

func (c *Client) postToken(ctx context.Context, path string, body map[string]string) (*tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &rejectionError{
			status: resp.StatusCode,
			detail: serviceError(data, resp.StatusCode),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token service returned status %d", resp.StatusCode)
	}

	var tokens tokenResponse
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, errors.New("token response missing access token")
	}
	return &tokens, nil
}

// serviceError extracts a human-readable error from a token service body,
// trying the known key variants in order.
func serviceError(data []byte, status int) string {
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil {
		if text := errResp.text(); text != "" {
			return text
		}
	}
	return fmt.Sprintf("status %d", status)
}
