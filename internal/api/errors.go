// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when the backend refused the access token
// and the refresh-and-retry path could not recover. Callers should send the
// user back to login.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrNotFound is returned when the addressed resource does not exist, e.g.
// deleting a document that another session already removed.
var ErrNotFound = errors.New("not found")

// APIError is any other non-success backend answer, carrying the HTTP status
// and whatever detail the body offered.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

// statusError maps a non-2xx response to the package error taxonomy.
func statusError(status int, body []byte) error {
	switch status {
	case 401, 403:
		return ErrUnauthenticated
	case 404:
		return ErrNotFound
	}
	return &APIError{Status: status, Detail: bodyDetail(body)}
}

// bodyDetail pulls a human-readable message out of an error body. FastAPI
// style backends put it under "detail"; fall back to the raw body.
func bodyDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
