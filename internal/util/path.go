// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome resolves a leading ~ or ~/ in a path to the user's home
// directory. Paths without the prefix pass through unchanged.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
