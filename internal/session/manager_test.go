// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package session

import (
	"testing"
	"time"

	"github.com/archivista-ai/archivista/internal/model"
)

func TestManager_StartsWithDraftThread(t *testing.T) {
	m := NewManager(true)

	active := m.ActiveThread()
	if !model.IsPlaceholderThread(active.ID) {
		t.Errorf("fresh session should open a draft thread, got %q", active.ID)
	}
	if active.HasMessages {
		t.Error("draft thread must not claim messages")
	}
}

func TestManager_PromoteDraft(t *testing.T) {
	m := NewManager(true)
	draft := m.ActiveThread()

	m.PromoteDraft(draft.ID, "t-real")

	active := m.ActiveThread()
	if active.ID != "t-real" {
		t.Errorf("active thread = %q, want %q", active.ID, "t-real")
	}
	if !active.HasMessages {
		t.Error("promoted thread should have messages")
	}
}

func TestManager_PromoteDraftIgnoresStaleID(t *testing.T) {
	m := NewManager(true)
	stale := m.ActiveThread()

	// User switched away before the server answered.
	m.SetActiveThread(model.Thread{ID: "t-other", HasMessages: true})
	m.PromoteDraft(stale.ID, "t-real")

	if got := m.ActiveThread().ID; got != "t-other" {
		t.Errorf("stale promotion must not touch the active thread, got %q", got)
	}
}

func TestManager_SetThreadsSortsNewestFirst(t *testing.T) {
	m := NewManager(true)
	old := model.Thread{ID: "t-old", UpdatedAt: time.Now().Add(-time.Hour)}
	recent := model.Thread{ID: "t-new", UpdatedAt: time.Now()}

	m.SetThreads([]model.Thread{old, recent})

	threads := m.Threads()
	if len(threads) != 2 || threads[0].ID != "t-new" {
		t.Errorf("threads = %+v, want t-new first", threads)
	}
}

func TestManager_RemoveActiveThreadFallsBackToDraft(t *testing.T) {
	m := NewManager(true)
	m.SetThreads([]model.Thread{{ID: "t-1"}, {ID: "t-2"}})
	m.SetActiveThread(model.Thread{ID: "t-1", HasMessages: true})

	m.RemoveThread("t-1")

	if len(m.Threads()) != 1 {
		t.Errorf("threads = %+v, want one left", m.Threads())
	}
	if !model.IsPlaceholderThread(m.ActiveThread().ID) {
		t.Error("deleting the active thread should open a draft")
	}
}

func TestManager_SignOutResetsState(t *testing.T) {
	m := NewManager(true)
	m.SetThreads([]model.Thread{{ID: "t-1"}})
	m.SetActiveThread(model.Thread{ID: "t-1", HasMessages: true})

	m.SetAuthenticated(false)

	if m.IsAuthenticated() {
		t.Error("should be signed out")
	}
	if len(m.Threads()) != 0 {
		t.Error("sign-out must forget the thread list")
	}
	if !model.IsPlaceholderThread(m.ActiveThread().ID) {
		t.Error("sign-out must reset to a draft thread")
	}
}

func TestManager_BusyGate(t *testing.T) {
	m := NewManager(true)
	if m.IsBusy() {
		t.Error("fresh session should not be busy")
	}
	m.SetBusy(true)
	if !m.IsBusy() {
		t.Error("busy flag lost")
	}

	status := m.GetStatus()
	if !status.Busy || !status.Authenticated {
		t.Errorf("status = %+v", status)
	}
}
