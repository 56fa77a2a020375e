// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/archivista-ai/archivista/internal/model"
)

// CacheFileName is the database file under the Archivista home directory.
const CacheFileName = "cache.db"

// Cache is the local conversation mirror.
type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// The cache is accessed from the update loop only.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// THREADS
// =============================================================================

// SaveThreads replaces the cached sidebar listing. Transcripts of threads
// that disappeared server-side are dropped too.
func (c *Cache) SaveThreads(ctx context.Context, threads []model.Thread) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM threads"); err != nil {
		return fmt.Errorf("failed to clear threads: %w", err)
	}
	for _, t := range threads {
		if model.IsPlaceholderThread(t.ID) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO threads (id, created_at, updated_at) VALUES (?, ?, ?)",
			t.ID, t.CreatedAt, t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to cache thread %s: %w", t.ID, err)
		}
	}

	// Drop orphaned transcripts.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM messages WHERE thread_id NOT IN (SELECT id FROM threads)"); err != nil {
		return fmt.Errorf("failed to prune messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tool_results WHERE thread_id NOT IN (SELECT id FROM threads)"); err != nil {
		return fmt.Errorf("failed to prune tool results: %w", err)
	}

	return tx.Commit()
}

// Threads returns the cached sidebar listing, newest-first.
func (c *Cache) Threads(ctx context.Context) ([]model.Thread, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, created_at, updated_at FROM threads ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to read cached threads: %w", err)
	}
	defer rows.Close()

	var threads []model.Thread
	for rows.Next() {
		t := model.Thread{HasMessages: true}
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// DeleteThread removes one thread and its transcript from the cache.
func (c *Cache) DeleteThread(ctx context.Context, threadID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM threads WHERE id = ?",
		"DELETE FROM messages WHERE thread_id = ?",
		"DELETE FROM tool_results WHERE thread_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, threadID); err != nil {
			return fmt.Errorf("failed to delete cached thread %s: %w", threadID, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// SaveTranscript replaces the cached transcript of one thread with the
// server's persisted view.
func (c *Cache) SaveTranscript(ctx context.Context, threadID string, messages []*model.Message, toolResults map[string][]model.ToolResult) error {
	if model.IsPlaceholderThread(threadID) {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to clear cached transcript: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tool_results WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to clear cached tool results: %w", err)
	}

	for i, msg := range messages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (thread_id, position, role, interaction_id, content, reasoning) VALUES (?, ?, ?, ?, ?, ?)",
			threadID, i, string(msg.Role), msg.InteractionID, msg.Content, msg.Reasoning); err != nil {
			return fmt.Errorf("failed to cache message: %w", err)
		}
	}
	for interactionID, results := range toolResults {
		for i, res := range results {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tool_results (thread_id, interaction_id, position, document_name, page_number) VALUES (?, ?, ?, ?, ?)",
				threadID, interactionID, i, res.DocumentName, res.PageNumber); err != nil {
				return fmt.Errorf("failed to cache tool result: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Transcript returns the cached transcript of one thread. An uncached thread
// yields empty results, not an error.
func (c *Cache) Transcript(ctx context.Context, threadID string) ([]*model.Message, map[string][]model.ToolResult, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT position, role, interaction_id, content, reasoning FROM messages WHERE thread_id = ? ORDER BY position",
		threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cached transcript: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var position int
		var role, interactionID, content, reasoning string
		if err := rows.Scan(&position, &role, &interactionID, &content, &reasoning); err != nil {
			return nil, nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &model.Message{
			ID:            model.PersistedID(fmt.Sprintf("%s/%d", threadID, position)),
			Role:          model.Role(role),
			InteractionID: interactionID,
			Content:       content,
			Reasoning:     reasoning,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	resRows, err := c.db.QueryContext(ctx,
		"SELECT interaction_id, document_name, page_number FROM tool_results WHERE thread_id = ? ORDER BY interaction_id, position",
		threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cached tool results: %w", err)
	}
	defer resRows.Close()

	toolResults := make(map[string][]model.ToolResult)
	for resRows.Next() {
		var interactionID, documentName string
		var pageNumber int
		if err := resRows.Scan(&interactionID, &documentName, &pageNumber); err != nil {
			return nil, nil, fmt.Errorf("failed to scan tool result: %w", err)
		}
		toolResults[interactionID] = append(toolResults[interactionID], model.ToolResult{
			DocumentName: documentName,
			PageNumber:   pageNumber,
		})
	}
	return messages, toolResults, resRows.Err()
}
