// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"os"
)

// runThreads lists or deletes conversations.
func runThreads(env *Env, args *Args) int {
	if !requireAuth(env) {
		return 1
	}
	ctx := context.Background()

	switch args.Subcommand {
	case "", "list":
		threads, err := env.APIClient.Threads(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if len(threads) == 0 {
			fmt.Println("no conversations yet")
			return 0
		}
		fmt.Printf("%-19s  %-19s  %s\n", "UPDATED", "CREATED", "THREAD")
		for _, t := range threads {
			fmt.Printf("%-19s  %-19s  %s\n",
				t.UpdatedAt.Format("2006-01-02 15:04"),
				t.CreatedAt.Format("2006-01-02 15:04"),
				t.ID)
		}
		return 0

	case "delete", "rm":
		if len(args.Positional) < 3 {
			fmt.Fprintln(os.Stderr, "usage: archivista threads delete THREAD_ID")
			return 1
		}
		threadID := args.Positional[2]
		if err := env.APIClient.DeleteThread(ctx, threadID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Printf("deleted %s\n", threadID)
		return 0
	}

	fmt.Fprintf(os.Stderr, "unknown subcommand %q; try list or delete\n", args.Subcommand)
	return 1
}
