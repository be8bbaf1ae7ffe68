package main

import (
	"strings"
	"time"
)

// LogicalEntry is one merged record handed to the parser. LineNum is the
// 1-based physical line the entry started on and stays stable across edits.
type LogicalEntry struct {
	LineNum int
	Text    string
}

// MergeLines joins physical lines into logical entries. A new entry starts at
// any line carrying a recognized timestamp prefix, or at the first non-blank
// line; everything else is a wrapped continuation and gets space-joined onto
// the current entry. Blank lines vanish.
func MergeLines(raw string) []LogicalEntry {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	var entries []LogicalEntry
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isEntryStart(line) || len(entries) == 0 {
			entries = append(entries, LogicalEntry{LineNum: i + 1, Text: line})
			continue
		}
		last := &entries[len(entries)-1]
		last.Text += " " + line
	}
	return entries
}

// ParseEntries runs the parser over every logical entry.
func ParseEntries(entries []LogicalEntry, lk *Lookup, loc *time.Location) []ParsedLine {
	out := make([]ParsedLine, 0, len(entries))
	for _, e := range entries {
		out = append(out, ParseLine(e.LineNum, e.Text, lk, loc))
	}
	return out
}

// ScopeToWeek filters parsed lines to the target week. Lines whose timestamp
// never resolved and that carry no other issue are noise (channel chatter,
// file headers) and are dropped silently. Lines with a resolved timestamp
// outside the window are dropped. Everything else is kept for the resolver:
// a timestamp failure alongside real issues is a line worth fixing, not
// discarding.
func ScopeToWeek(parsed []ParsedLine, weekStart time.Time) []ParsedLine {
	start, end := WeekWindow(weekStart)
	var out []ParsedLine
	for _, p := range parsed {
		if p.TimestampUTC.IsZero() {
			if !p.hasIssueOtherThan(IssueInvalidTimestamp) {
				continue
			}
			out = append(out, p)
			continue
		}
		if !inWeekWindow(p.TimestampUTC, start, end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
