// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

// Package auth holds the session tokens and talks to the GoTrue-style token
// service.
//
// The Store persists the access/refresh token pair across restarts under
// fixed storage keys, the terminal equivalent of the web client's
// localStorage entries. The Client exchanges credentials or a refresh token
// for a new pair; every component that calls the backend reads the Store,
// but only the Client and logout write it.
package auth
