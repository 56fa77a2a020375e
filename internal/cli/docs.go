// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/archivista-ai/archivista/internal/api"
	"github.com/archivista-ai/archivista/internal/util"
)

// runDocs manages the ingested document library.
func runDocs(env *Env, args *Args) int {
	if !requireAuth(env) {
		return 1
	}
	ctx := context.Background()

	switch args.Subcommand {
	case "", "list", "ls":
		docs, err := env.APIClient.Documents(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if len(docs) == 0 {
			fmt.Println("no documents yet; try `archivista docs upload FILE`")
			return 0
		}
		fmt.Printf("%-36s  %-12s  %s\n", "ID", "UPLOADED", "NAME")
		for _, doc := range docs {
			fmt.Printf("%-36s  %-12s  %s\n",
				doc.DocumentID,
				doc.CreatedAt.Format("2006-01-02"),
				doc.FileName)
		}
		return 0

	case "upload", "add":
		if len(args.Positional) < 3 {
			fmt.Fprintln(os.Stderr, "usage: archivista docs upload FILE")
			return 1
		}
		path := util.ExpandHome(args.Positional[2])
		fmt.Printf("uploading %s...\n", path)
		result, err := env.APIClient.UploadDocument(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
			return 1
		}
		if result.Ingested {
			fmt.Printf("%s ingested\n", result.Filename)
		} else {
			fmt.Printf("%s accepted (status: %s)\n", result.Filename, result.Status)
		}
		return 0

	case "delete", "rm":
		if len(args.Positional) < 3 {
			fmt.Fprintln(os.Stderr, "usage: archivista docs delete DOCUMENT_ID")
			return 1
		}
		documentID := args.Positional[2]
		err := env.APIClient.DeleteDocument(ctx, documentID)
		if errors.Is(err, api.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "document %s not found (already deleted?)\n", documentID)
			return 1
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Printf("deleted %s\n", documentID)
		return 0
	}

	fmt.Fprintf(os.Stderr, "unknown subcommand %q; try list, upload, or delete\n", args.Subcommand)
	return 1
}
