// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package cli implements the non-TUI command surface: login/logout, a plain
// streaming chat loop for scripting and narrow terminals, thread management,
// and document management.
package cli
