// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/archivista-ai/archivista/internal/util"
)

// promptCredentials reads an email from stdin and a password without echo.
func promptCredentials() (email, password string, err error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("email: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("failed to read email: %w", err)
	}
	email = util.NormalizeInput(line)

	fmt.Print("password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return email, string(raw), nil
}

func runLogin(env *Env) int {
	email, password, err := promptCredentials()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required")
		return 1
	}

	if err := env.AuthClient.Login(context.Background(), email, password); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		return 1
	}
	fmt.Println("signed in")
	return 0
}

func runLogout(env *Env) int {
	if err := env.Store.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println("signed out")
	return 0
}

func runSignup(env *Env) int {
	email, password, err := promptCredentials()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required")
		return 1
	}

	if err := env.AuthClient.Signup(context.Background(), email, password); err != nil {
		fmt.Fprintf(os.Stderr, "signup failed: %v\n", err)
		return 1
	}
	if env.Store.IsAuthenticated() {
		fmt.Println("account created and signed in")
	} else {
		fmt.Println("account created; confirm your email, then run `archivista login`")
	}
	return 0
}
