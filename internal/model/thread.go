// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// placeholderThreadPrefix marks thread ids minted client-side for a
// conversation that has no persisted turn yet. The backend mints the real id
// on the first successful turn and returns it in the X-Thread-Id response
// header.
const placeholderThreadPrefix = "draft:"

// Thread is a conversation summary as shown in the sidebar.
type Thread struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// HasMessages is false for placeholder threads that exist only
	// client-side.
	HasMessages bool
}

// NewPlaceholderThread creates a client-local thread awaiting its first turn.
func NewPlaceholderThread() Thread {
	now := time.Now()
	return Thread{
		ID:        placeholderThreadPrefix + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPlaceholderThread reports whether a thread id is client-local.
func IsPlaceholderThread(id string) bool {
	return strings.HasPrefix(id, placeholderThreadPrefix)
}

// SortThreadsByUpdated orders threads newest-first, the sidebar order.
func SortThreadsByUpdated(threads []Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
}
