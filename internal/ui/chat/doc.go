// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package chat is the main conversation view: the thread sidebar, the
// transcript viewport, and the input line.
//
// All transcript mutation happens in Update. The turn coordinator streams
// events from its own goroutine; a channel pump converts each event into a
// Bubble Tea message so the reducer runs on the update loop, the same
// single-writer discipline the rest of the UI relies on.
package chat
