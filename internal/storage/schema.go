// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package storage

// Schema creates the cache tables. Messages are keyed by position within
// their thread because the server response is the sole ordering authority.
const Schema = `
CREATE TABLE IF NOT EXISTS threads (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    thread_id      TEXT NOT NULL,
    position       INTEGER NOT NULL,
    role           TEXT NOT NULL,
    interaction_id TEXT NOT NULL,
    content        TEXT NOT NULL,
    reasoning      TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (thread_id, position)
);

CREATE TABLE IF NOT EXISTS tool_results (
    thread_id      TEXT NOT NULL,
    interaction_id TEXT NOT NULL,
    position       INTEGER NOT NULL,
    document_name  TEXT NOT NULL,
    page_number    INTEGER NOT NULL,
    PRIMARY KEY (thread_id, interaction_id, position)
);

CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id);
CREATE INDEX IF NOT EXISTS idx_tool_results_thread ON tool_results(thread_id);
`
