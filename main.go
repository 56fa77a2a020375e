// Archivista - a terminal client for the Archivista document assistant.
//
// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/archivista-ai/archivista/internal/cli"
	"github.com/archivista-ai/archivista/internal/config"
	"github.com/archivista-ai/archivista/internal/session"
	"github.com/archivista-ai/archivista/internal/storage"
	"github.com/archivista-ai/archivista/internal/turn"
	"github.com/archivista-ai/archivista/internal/ui/app"
	"github.com/archivista-ai/archivista/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.ParseArgs(os.Args[1:])

	if cmd == cli.CmdTUI && args.Plain {
		cmd = cli.CmdChat
	}
	if cmd != cli.CmdTUI {
		os.Exit(cli.Run(cmd, args))
	}
	runTUI(args)
}

// runTUI wires and runs the full-screen interface.
func runTUI(args *cli.Args) {
	env, err := cli.BuildEnv(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// The local mirror is optional: a cache failure degrades to cold starts.
	var cache *storage.Cache
	if dir, dirErr := config.Dir(); dirErr == nil {
		if opened, openErr := storage.Open(filepath.Join(dir, storage.CacheFileName)); openErr == nil {
			cache = opened
			defer cache.Close()
		}
	}

	theme := styles.NewTheme()
	sess := session.NewManager(env.Store.IsAuthenticated())
	coordinator := turn.New(env.APIClient, env.AuthClient, env.Store)

	root := app.New(app.Deps{
		Theme:         theme,
		Session:       sess,
		Store:         env.Store,
		AuthClient:    env.AuthClient,
		APIClient:     env.APIClient,
		Coordinator:   coordinator,
		Cache:         cache,
		ShowReasoning: env.Config.UI.ShowReasoning,
	})

	// Pick up a sign-in done by a parallel `archivista login`.
	if watchErr := env.Store.Watch(root.NotifyCredentialsChanged); watchErr == nil {
		defer env.Store.Close()
	}

	p := tea.NewProgram(
		root,
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
