// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package session tracks the state shared across the app's surfaces: which
// conversation is active, whether the user is signed in, and whether a turn
// is in flight.
package session
