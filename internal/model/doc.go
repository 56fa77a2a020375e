// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package model contains the data structures for threads, messages, and the
// transcript reducer.
//
// A Transcript is the ordered, interaction-grouped message list for one
// thread. During a streaming turn the turn coordinator appends chunks to the
// single open assistant placeholder; after the turn the transcript is
// replaced wholesale with the server's persisted history, trading local
// pending ids for server-assigned ones.
package model
