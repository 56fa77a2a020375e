// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package util provides small helpers shared across the archivista client.
//
// It contains UTF-8 safe string truncation for terminal display, input
// normalization, and crash-safe file writing used by the credential store
// and configuration layer.
package util
