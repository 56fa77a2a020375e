// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/archivista-ai/archivista/internal/model"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), CacheFileName))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_ThreadsRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	threads := []model.Thread{
		{ID: "t-old", CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-time.Hour)},
		{ID: "t-new", CreatedAt: now.Add(-time.Hour), UpdatedAt: now},
	}
	if err := cache.SaveThreads(ctx, threads); err != nil {
		t.Fatalf("SaveThreads: %v", err)
	}

	got, err := cache.Threads(ctx)
	if err != nil {
		t.Fatalf("Threads: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("threads = %d, want 2", len(got))
	}
	if got[0].ID != "t-new" {
		t.Errorf("first thread = %q, want newest first", got[0].ID)
	}
	if !got[0].HasMessages {
		t.Error("cached threads should report messages")
	}
}

func TestCache_SaveThreadsSkipsDrafts(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	draft := model.NewPlaceholderThread()
	if err := cache.SaveThreads(ctx, []model.Thread{draft}); err != nil {
		t.Fatalf("SaveThreads: %v", err)
	}
	got, err := cache.Threads(ctx)
	if err != nil {
		t.Fatalf("Threads: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("draft threads must not be cached, got %+v", got)
	}
}

func TestCache_TranscriptRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	now := time.Now()
	if err := cache.SaveThreads(ctx, []model.Thread{{ID: "t-1", CreatedAt: now, UpdatedAt: now}}); err != nil {
		t.Fatalf("SaveThreads: %v", err)
	}

	messages := []*model.Message{
		{ID: model.PersistedID("m-1"), Role: model.RoleUser, InteractionID: "i-1", Content: "question"},
		{ID: model.PersistedID("m-2"), Role: model.RoleAssistant, InteractionID: "i-1", Content: "answer", Reasoning: "thought"},
	}
	toolResults := map[string][]model.ToolResult{
		"i-1": {{DocumentName: "report.pdf", PageNumber: 4}},
	}
	if err := cache.SaveTranscript(ctx, "t-1", messages, toolResults); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	gotMsgs, gotTools, err := cache.Transcript(ctx, "t-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(gotMsgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(gotMsgs))
	}
	if gotMsgs[0].Role != model.RoleUser || gotMsgs[0].Content != "question" {
		t.Errorf("first message = %+v", gotMsgs[0])
	}
	if gotMsgs[1].Reasoning != "thought" {
		t.Errorf("reasoning = %q", gotMsgs[1].Reasoning)
	}
	if len(gotTools["i-1"]) != 1 || gotTools["i-1"][0].PageNumber != 4 {
		t.Errorf("tool results = %+v", gotTools)
	}
}

func TestCache_SaveTranscriptReplaces(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	first := []*model.Message{
		{ID: model.PersistedID("m-1"), Role: model.RoleUser, InteractionID: "i-1", Content: "old"},
	}
	if err := cache.SaveTranscript(ctx, "t-1", first, nil); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	second := []*model.Message{
		{ID: model.PersistedID("m-1"), Role: model.RoleUser, InteractionID: "i-1", Content: "new"},
		{ID: model.PersistedID("m-2"), Role: model.RoleAssistant, InteractionID: "i-1", Content: "answer"},
	}
	if err := cache.SaveTranscript(ctx, "t-1", second, nil); err != nil {
		t.Fatalf("SaveTranscript (replace): %v", err)
	}

	got, _, err := cache.Transcript(ctx, "t-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(got) != 2 || got[0].Content != "new" {
		t.Errorf("transcript = %+v, want replaced rows", got)
	}
}

func TestCache_DraftTranscriptNotCached(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	draft := model.NewPlaceholderThread()
	messages := []*model.Message{
		{ID: model.PersistedID("m-1"), Role: model.RoleUser, InteractionID: "i-1", Content: "hi"},
	}
	if err := cache.SaveTranscript(ctx, draft.ID, messages, nil); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	got, _, err := cache.Transcript(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(got) != 0 {
		t.Error("draft transcripts must not be cached")
	}
}

func TestCache_DeleteThread(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	now := time.Now()
	if err := cache.SaveThreads(ctx, []model.Thread{{ID: "t-1", CreatedAt: now, UpdatedAt: now}}); err != nil {
		t.Fatalf("SaveThreads: %v", err)
	}
	messages := []*model.Message{
		{ID: model.PersistedID("m-1"), Role: model.RoleUser, InteractionID: "i-1", Content: "hi"},
	}
	if err := cache.SaveTranscript(ctx, "t-1", messages, nil); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	if err := cache.DeleteThread(ctx, "t-1"); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}

	threads, err := cache.Threads(ctx)
	if err != nil {
		t.Fatalf("Threads: %v", err)
	}
	if len(threads) != 0 {
		t.Errorf("threads = %+v, want none", threads)
	}
	msgs, _, err := cache.Transcript(ctx, "t-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(msgs) != 0 {
		t.Error("deleting a thread must drop its transcript")
	}
}

func TestCache_UnknownThreadIsEmpty(t *testing.T) {
	cache := newTestCache(t)

	msgs, tools, err := cache.Transcript(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(msgs) != 0 || len(tools) != 0 {
		t.Error("unknown thread should be empty, not an error")
	}
}
