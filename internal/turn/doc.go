// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package turn drives one complete chat exchange: post the user message,
// demultiplex the streamed answer, recover from an expired access token, and
// resynchronize the transcript from the server afterwards.
//
// The coordinator runs in its own goroutine and reports progress as typed
// events on a channel. It never mutates UI state itself; the consumer (the
// TUI update loop or the plain CLI loop) applies each event to its
// transcript, which keeps all mutation on a single goroutine.
//
// One turn is in flight at a time. While a turn runs, Busy reports true and
// Start refuses further sends.
package turn
