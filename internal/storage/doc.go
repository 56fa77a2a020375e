// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package storage caches conversation history locally so the app starts with
// a populated sidebar and transcripts before the backend answers, and keeps
// them readable when it is unreachable.
//
// The cache is a SQLite database under the Archivista home directory. It is
// strictly a mirror of server state: every resync overwrites the cached rows,
// and losing the file costs nothing but a cold start.
package storage
