// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package stream demultiplexes the backend's chunked chat response into
// typed events.
//
// The wire format is UTF-8 text with two inline markers: a reasoning block
// delimited by literal <think> / </think> tags, and discrete tool-citation
// fragments of the form TOOL_MSG:<json array>. Everything else is visible
// answer text. The demultiplexer is a two-state machine with a bounded
// lookback buffer, so a marker split across network fragments is still
// recognized regardless of how the transport chunks the bytes.
//
// The demultiplexer never fails: malformed citation JSON and dangling
// markers degrade to plain text or are dropped, they do not abort the
// stream.
package stream
