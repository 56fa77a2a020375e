// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package stream

import (
	"encoding/json"
	"strings"
)

// Wire markers. The lookback buffer never grows past the longest of these.
const (
	openMarker  = "<think>"
	closeMarker = "</think>"

	// ToolResultPrefix introduces a self-contained citation fragment.
	ToolResultPrefix = "TOOL_MSG:"
)

// =============================================================================
// EVENTS
// =============================================================================

// Kind classifies a demultiplexed event.
type Kind int

const (
	// KindVisible carries answer text shown to the user.
	KindVisible Kind = iota
	// KindReasoning carries <think>-delimited text.
	KindReasoning
	// KindToolResults carries one parsed citation fragment.
	KindToolResults
)

// ToolRecord is one citation record as encoded on the wire.
type ToolRecord struct {
	PageContent  string `json:"page_content"`
	PageNumber   int    `json:"page_number"`
	DocumentName string `json:"document_name"`
}

// Event is one demultiplexed unit: a text chunk on one of the two text
// channels, or a batch of citation records.
type Event struct {
	Kind    Kind
	Text    string
	Records []ToolRecord
}

// =============================================================================
// DEMULTIPLEXER
// =============================================================================

// Demux classifies raw stream fragments into events. The zero value is not
// usable; call New.
type Demux struct {
	inReasoning bool

	// carry holds a trailing run that is a strict prefix of a marker,
	// waiting for the next fragment to disambiguate. At most
	// len(closeMarker)-1 bytes.
	carry string
}

// New creates a demultiplexer in the visible state.
func New() *Demux {
	return &Demux{}
}

// InReasoning reports whether the state machine is inside a <think> block.
// An unterminated block simply leaves this true at stream end.
func (d *Demux) InReasoning() bool {
	return d.inReasoning
}

// Feed consumes one raw fragment and returns the events it produced.
// Fragments may split markers at any byte boundary.
func (d *Demux) Feed(fragment string) []Event {
	// Citation fragments are discrete and self-contained; they bypass the
	// tag state machine entirely and do not disturb the lookback buffer.
	if idx := strings.Index(fragment, ToolResultPrefix); idx >= 0 {
		var records []ToolRecord
		payload := fragment[idx+len(ToolResultPrefix):]
		if err := json.Unmarshal([]byte(payload), &records); err == nil {
			return []Event{{Kind: KindToolResults, Records: records}}
		}
		// Malformed citation JSON is inert: fall through and treat the
		// fragment as ordinary text.
	}

	text := d.carry + fragment
	d.carry = ""

	var events []Event
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			events = append(events, d.textEvent(pending.String()))
			pending.Reset()
		}
	}

	i := 0
	for i < len(text) {
		rest := text[i:]
		switch {
		case strings.HasPrefix(rest, openMarker):
			flush()
			d.inReasoning = true
			i += len(openMarker)
		case strings.HasPrefix(rest, closeMarker):
			flush()
			d.inReasoning = false
			i += len(closeMarker)
		case couldBeMarker(rest):
			// rest is a strict marker prefix reaching the end of the
			// fragment; hold it back until the next Feed or Flush.
			flush()
			d.carry = rest
			i = len(text)
		default:
			pending.WriteByte(text[i])
			i++
		}
	}
	flush()
	return events
}

// Flush releases any held-back partial marker as literal text. Call once at
// stream end so no input bytes are lost.
func (d *Demux) Flush() []Event {
	if d.carry == "" {
		return nil
	}
	ev := d.textEvent(d.carry)
	d.carry = ""
	return []Event{ev}
}

func (d *Demux) textEvent(text string) Event {
	if d.inReasoning {
		return Event{Kind: KindReasoning, Text: text}
	}
	return Event{Kind: KindVisible, Text: text}
}

// couldBeMarker reports whether s is a strict prefix of either marker. Both
// markers share the "<" lead-in, so this is what forces the lookback buffer.
func couldBeMarker(s string) bool {
	if len(s) >= len(closeMarker) {
		return false
	}
	return strings.HasPrefix(openMarker, s) || strings.HasPrefix(closeMarker, s)
}
