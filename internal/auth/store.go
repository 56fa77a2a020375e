// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/archivista-ai/archivista/internal/util"
)

// Fixed storage keys, matching what the web client kept in localStorage.
const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

// CredentialsFileName is the file holding the persisted token pair.
const CredentialsFileName = "credentials.json"

// Store holds the access/refresh token pair, persisted across restarts.
// Reads are cheap and concurrent; writes go through atomic file replacement.
type Store struct {
	mu      sync.RWMutex
	path    string
	access  string
	refresh string

	watcher  *fsnotify.Watcher
	onReload func()
	done     chan struct{}
}

// NewStore opens (or initializes) the credential store at path. A missing
// file means a logged-out session, not an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// AccessToken returns the current access token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the current refresh token, empty when logged out.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// IsAuthenticated reports whether an access token is present.
func (s *Store) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// Set replaces the token pair and persists it.
func (s *Store) Set(access, refresh string) error {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()
	return s.save()
}

// Clear wipes the token pair in memory and on disk. Used by logout and by
// unrecoverable refresh failure.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// load reads the credential file into memory.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		// A corrupt credential file is treated as logged out rather than
		// wedging startup.
		return nil
	}

	s.mu.Lock()
	s.access = raw[accessTokenKey]
	s.refresh = raw[refreshTokenKey]
	s.mu.Unlock()
	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	raw := map[string]string{
		accessTokenKey:  s.access,
		refreshTokenKey: s.refresh,
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return util.AtomicWriteFile(s.path, data, 0600)
}

// =============================================================================
// EXTERNAL CHANGE WATCHING
// =============================================================================

// Watch reloads the store when another process rewrites the credential file,
// e.g. `archivista login` running beside an open TUI. onReload, if non-nil,
// runs after each reload. The directory is watched rather than the file
// because atomic writes replace the file by rename.
func (s *Store) Watch(onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch credentials directory: %w", err)
	}

	s.watcher = watcher
	s.onReload = onReload
	s.done = make(chan struct{})

	go s.watchLoop()
	return nil
}

func (s *Store) watchLoop() {
	base := filepath.Base(s.path)
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := s.load(); err == nil && s.onReload != nil {
				s.onReload()
			}
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the change watcher, if any.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	return s.watcher.Close()
}
