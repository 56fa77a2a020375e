// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/auth"
	"github.com/archivista-ai/archivista/internal/config"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usageText = `archivista - terminal client for the Archivista document assistant

Chat with an assistant that answers from your uploaded documents and cites
the pages it used. Running archivista with no command starts the full-screen
TUI.

Usage:
  archivista                       Start the TUI (default)
  archivista login                 Sign in and store credentials
  archivista logout                Discard stored credentials
  archivista signup                Create an account
  archivista chat [--think]        Plain streaming chat loop
  archivista threads [delete ID]   List or delete conversations
  archivista docs [list]           List documents
  archivista docs upload FILE      Upload a document for ingestion
  archivista docs delete ID        Delete a document
  archivista version               Show version
  archivista help                  Show this help

Global flags:
  --api URL    Backend base URL (default from config)
  --auth URL   Auth service base URL (default from config)
  --plain      Line-mode chat loop instead of the full-screen TUI

Environment:
  ARCHIVISTA_HOME       Override the config/credential directory
  ARCHIVISTA_API_URL    Backend base URL
  ARCHIVISTA_AUTH_URL   Auth service base URL
`

// Env bundles the clients a CLI command runs against.
type Env struct {
	Config     *config.Config
	Store      *auth.Store
	AuthClient *auth.Client
	APIClient  *api.Client
}

// BuildEnv loads configuration, applies flag overrides, and wires the
// clients.
func BuildEnv(args *Args) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if args.APIBase != "" {
		cfg.API.BaseURL = args.APIBase
	}
	if args.AuthBase != "" {
		cfg.Auth.BaseURL = args.AuthBase
	}

	credPath := cfg.Auth.CredentialsPath
	if credPath == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		credPath = filepath.Join(dir, auth.CredentialsFileName)
	}
	store, err := auth.NewStore(credPath)
	if err != nil {
		return nil, err
	}

	authClient := auth.NewClient(cfg.Auth.BaseURL, store)
	apiClient := api.NewClient(api.Options{
		BaseURL:              cfg.API.BaseURL,
		ThreadDeletePrefix:   cfg.API.ThreadDeletePrefix,
		DocumentListPath:     cfg.Documents.ListPath,
		DocumentUploadPath:   cfg.Documents.UploadPath,
		DocumentDeletePrefix: cfg.Documents.DeletePrefix,
		Timeout:              cfg.RequestTimeout(),
	}, store, authClient)

	return &Env{
		Config:     cfg,
		Store:      store,
		AuthClient: authClient,
		APIClient:  apiClient,
	}, nil
}

// Run executes one CLI command and returns the process exit code. CmdTUI is
// handled by the caller.
func Run(cmd Command, args *Args) int {
	switch cmd {
	case CmdVersion:
		fmt.Printf("archivista %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	case CmdHelp:
		fmt.Print(usageText)
		return 0
	}

	env, err := BuildEnv(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	switch cmd {
	case CmdLogin:
		return runLogin(env)
	case CmdLogout:
		return runLogout(env)
	case CmdSignup:
		return runSignup(env)
	case CmdChat:
		return runChat(env, args)
	case CmdThreads:
		return runThreads(env, args)
	case CmdDocs:
		return runDocs(env, args)
	}

	fmt.Print(usageText)
	return 1
}

// requireAuth checks for stored credentials before a command that needs
// them.
func requireAuth(env *Env) bool {
	if env.Store.IsAuthenticated() {
		return true
	}
	fmt.Fprintln(os.Stderr, "not signed in; run `archivista login` first")
	return false
}
