// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package styles defines the color palette and Lip Gloss styles shared by
// every Archivista view. Colors adapt to light and dark terminals; the Theme
// is built once at startup and passed down.
package styles
