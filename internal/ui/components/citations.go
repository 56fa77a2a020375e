// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/archivista-ai/archivista/internal/model"
)

// citationHeader introduces the grouped citation block under an assistant
// answer.
const citationHeader = "Found text matching in the following documents and pages: "

// FormatCitations renders a citation batch grouped by document, with page
// numbers sorted ascending. Documents keep their first-seen order so the
// listing is stable while a turn streams. Returns "" when there is nothing
// to cite.
func FormatCitations(results []model.ToolResult) string {
	if len(results) == 0 {
		return ""
	}

	pagesByDoc := make(map[string][]int)
	var order []string
	for _, res := range results {
		if _, seen := pagesByDoc[res.DocumentName]; !seen {
			order = append(order, res.DocumentName)
		}
		pagesByDoc[res.DocumentName] = append(pagesByDoc[res.DocumentName], res.PageNumber)
	}

	var b strings.Builder
	b.WriteString(citationHeader)
	for i, name := range order {
		pages := pagesByDoc[name]
		sort.Ints(pages)
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("- **%s** → pages %s", name, joinPages(pages)))
	}
	return b.String()
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}
