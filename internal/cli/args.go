// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"strings"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdSignup
	CmdChat
	CmdThreads
	CmdDocs
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	APIBase  string // --api
	AuthBase string // --auth

	// Command-specific
	Subcommand string
	Positional []string

	// chat flags
	Plain bool // --plain: force the line-mode loop even on a TTY
	Think bool // --think: print reasoning text inline

	flags     map[string]string
	boolFlags map[string]bool
}

// Flag returns the value of a string flag, or "".
func (a *Args) Flag(name string) string {
	return a.flags[strings.TrimLeft(name, "-")]
}

// BoolFlag reports whether a boolean flag was set.
func (a *Args) BoolFlag(name string) bool {
	return a.boolFlags[strings.TrimLeft(name, "-")]
}

// valueFlags are flags that consume the following argument.
var valueFlags = map[string]bool{
	"api":  true,
	"auth": true,
}

// ParseArgs parses os.Args[1:] into a command and its arguments.
func ParseArgs(raw []string) (Command, *Args) {
	args := &Args{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			args.Positional = append(args.Positional, arg)
			i++
			continue
		}

		if strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args.flags[strings.TrimLeft(parts[0], "-")] = parts[1]
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if valueFlags[name] && i+1 < len(raw) {
			args.flags[name] = raw[i+1]
			i += 2
			continue
		}
		args.boolFlags[name] = true
		i++
	}

	args.APIBase = args.Flag("api")
	args.AuthBase = args.Flag("auth")
	args.Plain = args.BoolFlag("plain")
	args.Think = args.BoolFlag("think")

	if len(args.Positional) == 0 {
		return CmdTUI, args
	}
	command := args.Positional[0]
	if len(args.Positional) > 1 {
		args.Subcommand = args.Positional[1]
	}

	switch command {
	case "login":
		return CmdLogin, args
	case "logout":
		return CmdLogout, args
	case "signup", "register":
		return CmdSignup, args
	case "chat":
		return CmdChat, args
	case "threads":
		return CmdThreads, args
	case "docs", "documents":
		return CmdDocs, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		return CmdHelp, args
	}
}
