// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), CredentialsFileName))
	require.NoError(t, err)
	return s
}

func TestClient_Login(t *testing.T) {
	var gotGrant string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/token", r.URL.Path)
		gotGrant = r.URL.Query().Get("grant_type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "acc",
			"refresh_token": "ref",
		})
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := NewClient(srv.URL, store)

	require.NoError(t, client.Login(context.Background(), "u@example.com", "pw"))
	assert.Equal(t, "password", gotGrant)
	assert.Equal(t, map[string]string{"email": "u@example.com", "password": "pw"}, gotBody)
	assert.Equal(t, "acc", store.AccessToken())
	assert.Equal(t, "ref", store.RefreshToken())
}

func TestClient_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_description": "Invalid login credentials",
		})
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := NewClient(srv.URL, store)

	err := client.Login(context.Background(), "u@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.False(t, store.IsAuthenticated())
}

func TestClient_Refresh(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "acc-2",
			"refresh_token": "ref-2",
		})
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set("acc-1", "ref-1"))
	client := NewClient(srv.URL, store)

	require.NoError(t, client.Refresh(context.Background()))
	assert.Equal(t, map[string]string{"refresh_token": "ref-1"}, gotBody)
	assert.Equal(t, "acc-2", store.AccessToken())
	assert.Equal(t, "ref-2", store.RefreshToken())
}

func TestClient_RefreshWithoutToken(t *testing.T) {
	store := newTestStore(t)
	client := NewClient("http://127.0.0.1:0", store)

	err := client.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestClient_RefreshRejectedClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Token expired"})
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set("acc", "stale"))
	client := NewClient(srv.URL, store)

	err := client.Refresh(context.Background())
	require.ErrorIs(t, err, ErrRefreshRejected)
	assert.Contains(t, err.Error(), "Token expired")
	assert.False(t, store.IsAuthenticated(), "rejected refresh must clear credentials")
}

func TestClient_RefreshServerErrorKeepsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set("acc", "ref"))
	client := NewClient(srv.URL, store)

	err := client.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRefreshRejected))
	assert.Equal(t, "ref", store.RefreshToken(), "transient failure must keep the stored pair")
}

func TestClient_Signup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/signup", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "acc",
			"refresh_token": "ref",
		})
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := NewClient(srv.URL, store)

	require.NoError(t, client.Signup(context.Background(), "new@example.com", "pw"))
	assert.Equal(t, "acc", store.AccessToken())
}

func TestClient_SignupConfirmationPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Email confirmation flow: no tokens in the response.
		json.NewEncoder(w).Encode(map[string]string{"id": "user-1"})
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := NewClient(srv.URL, store)

	require.NoError(t, client.Signup(context.Background(), "new@example.com", "pw"))
	assert.False(t, store.IsAuthenticated())
}

func TestServiceError_KeyFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error_description", `{"error_description":"bad creds"}`, "bad creds"},
		{"msg", `{"msg":"expired"}`, "expired"},
		{"message", `{"message":"nope"}`, "nope"},
		{"empty object", `{}`, "status 400"},
		{"not json", `oops`, "status 400"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, serviceError([]byte(tc.body), 400))
		})
	}
}
