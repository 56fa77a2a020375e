// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package api is the HTTP client for the Archivista backend: chat invocation,
// conversation history, and document management.
//
// Every request carries the current access token from the auth store.
// Non-streaming calls transparently refresh once and retry on an auth
// failure; the streaming chat invocation does not, because the turn
// coordinator owns that retry so the transcript stays consistent.
package api
