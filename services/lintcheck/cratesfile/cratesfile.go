// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cratesfile handles the crates-list configuration file format
// consumed by the checker: a "[crates]" section header followed by one
// bare crate entry per line.
//
// The format is the checker's own, not general TOML; a bare entry line
// is not a valid TOML value, so files are written byte-exact rather
// than through an encoder. The package also derives entry lists from
// unified diff text for CI runs: exactly the added lines that start a
// bare word survive, with the diff marker stripped.
package cratesfile

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// sectionHeader is the first line of every crates configuration file.
const sectionHeader = "[crates]"

// bareWordAdd matches an added diff line whose first content character
// starts a bare word. "+++" file headers, added section headers, added
// comments and added blank lines all fail the match.
var bareWordAdd = regexp.MustCompile(`^\+\w`)

// AddedEntries extracts the crate entries strictly added in a unified
// diff.
//
// Description:
//
//	Parses the diff, walks every hunk body, and keeps added lines that
//	start a bare word, stripping the "+" marker. Removed and context
//	lines never contribute. Empty diff text (no changes against the
//	reference branch) yields an empty list, which is a valid outcome:
//	the derived configuration then lists no crates at all.
//
// Inputs:
//
//	patch - Raw unified diff text, e.g. git diff output.
//
// Outputs:
//
//	[]string - Added entries in encounter order.
//	error - Non-nil if the diff text cannot be parsed.
func AddedEntries(patch string) ([]string, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}

	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	var entries []string
	for _, fd := range fds {
		for _, hunk := range fd.Hunks {
			entries = append(entries, filterAdded(strings.Split(string(hunk.Body), "\n"))...)
		}
	}
	return entries, nil
}

// filterAdded keeps the added bare-word lines from raw diff lines and
// strips the marker character.
func filterAdded(lines []string) []string {
	var kept []string
	for _, line := range lines {
		if bareWordAdd.MatchString(line) {
			kept = append(kept, line[1:])
		}
	}
	return kept
}

// Write writes a crates configuration with the given entries.
//
// The output is byte-exact: the section header line, then one entry per
// line, each terminated by a newline.
func Write(w io.Writer, entries []string) error {
	var b strings.Builder
	b.WriteString(sectionHeader)
	b.WriteByte('\n')
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// CreateTemp writes a derived configuration to a fresh temporary file.
//
// Description:
//
//	Creates a uniquely named file (in dir, or the OS temp directory
//	when dir is empty), writes the configuration, and returns the path
//	together with a cleanup function that removes the file. The label
//	only makes the temp name recognizable; the checker keys its log
//	output on the generated file stem.
//
// Outputs:
//
//	string - Path of the created file.
//	func() - Cleanup removing the file. Never nil on success.
//	error - Non-nil on create or write failure.
func CreateTemp(dir, label string, entries []string) (string, func(), error) {
	f, err := os.CreateTemp(dir, "lintcheck-"+label+"-*.toml")
	if err != nil {
		return "", nil, fmt.Errorf("create temp config: %w", err)
	}
	if err := Write(f, entries); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("write temp config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("close temp config: %w", err)
	}
	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}
