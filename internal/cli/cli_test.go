// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		wantCmd  Command
		wantSub  string
		check    func(t *testing.T, args *Args)
	}{
		{
			name:    "no args starts the TUI",
			raw:     nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "login",
			raw:     []string{"login"},
			wantCmd: CmdLogin,
		},
		{
			name:    "chat with think flag",
			raw:     []string{"chat", "--think"},
			wantCmd: CmdChat,
			check: func(t *testing.T, args *Args) {
				if !args.Think {
					t.Error("Think flag not set")
				}
			},
		},
		{
			name:    "threads delete with id",
			raw:     []string{"threads", "delete", "t-123"},
			wantCmd: CmdThreads,
			wantSub: "delete",
			check: func(t *testing.T, args *Args) {
				if len(args.Positional) != 3 || args.Positional[2] != "t-123" {
					t.Errorf("positional = %v", args.Positional)
				}
			},
		},
		{
			name:    "docs upload",
			raw:     []string{"docs", "upload", "report.pdf"},
			wantCmd: CmdDocs,
			wantSub: "upload",
		},
		{
			name:    "api flag with value",
			raw:     []string{"chat", "--api", "https://api.example.com"},
			wantCmd: CmdChat,
			check: func(t *testing.T, args *Args) {
				if args.APIBase != "https://api.example.com" {
					t.Errorf("APIBase = %q", args.APIBase)
				}
			},
		},
		{
			name:    "equals-form flag",
			raw:     []string{"--auth=https://auth.example.com", "login"},
			wantCmd: CmdLogin,
			check: func(t *testing.T, args *Args) {
				if args.AuthBase != "https://auth.example.com" {
					t.Errorf("AuthBase = %q", args.AuthBase)
				}
			},
		},
		{
			name:    "unknown command falls back to help",
			raw:     []string{"frobnicate"},
			wantCmd: CmdHelp,
		},
		{
			name:    "version",
			raw:     []string{"version"},
			wantCmd: CmdVersion,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, args := ParseArgs(tc.raw)
			if cmd != tc.wantCmd {
				t.Errorf("cmd = %v, want %v", cmd, tc.wantCmd)
			}
			if args.Subcommand != tc.wantSub {
				t.Errorf("subcommand = %q, want %q", args.Subcommand, tc.wantSub)
			}
			if tc.check != nil {
				tc.check(t, args)
			}
		})
	}
}
