// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package components provides the reusable visual pieces of the Archivista
// TUI: the thread sidebar, the status bar, and citation formatting.
package components
