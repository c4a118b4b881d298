// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/clippy-ci/lintcheck-runner/services/lintcheck"
	"github.com/mattn/go-isatty"
)

// Exit codes for the runner.
const (
	CLIExitSuccess  = 0 // All checks passed
	CLIExitFindings = 1 // A check's log assertions failed
	CLIExitError    = 2 // The run could not complete
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// exitCodeFor maps a run outcome to the process exit code.
//
// Failed log assertions are findings, everything else that goes wrong
// is an error.
func exitCodeFor(err error) int {
	if err == nil {
		return CLIExitSuccess
	}
	if lintcheck.ClassOf(err) == lintcheck.ClassAssertion {
		return CLIExitFindings
	}
	return CLIExitError
}

// outputRunJSON writes the report wrapped in a CommandResult.
//
// The report is included even when the run failed so a CI consumer can
// see which checks completed before the failure.
func outputRunJSON(w io.Writer, start time.Time, report *lintcheck.RunReport, runErr error) error {
	result := CommandResult{
		APIVersion: "1.0",
		Command:    "lintcheck-runner",
		Timestamp:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    runErr == nil,
		Data:       report,
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputRunError writes an error in the appropriate format.
//
// # Inputs
//
//   - jsonMode: If true, output as JSON to stdout.
//   - msg: Human-readable error message.
//   - err: The underlying error.
func outputRunError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    "lintcheck-runner",
			Timestamp:  time.Now(),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// renderRunText writes the human-readable run summary.
func renderRunText(w io.Writer, report *lintcheck.RunReport, useColor bool) {
	fmt.Fprintf(w, "Lintcheck Run: %s\n", report.Mode)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w)

	if len(report.Checks) == 0 {
		fmt.Fprintln(w, "No checks completed.")
		fmt.Fprintln(w)
	}

	passed, failed := 0, 0
	for _, c := range report.Checks {
		// Pad before coloring so the escape codes do not skew the column.
		status := fmt.Sprintf("%-8s", strings.ToUpper(c.Status.String()))
		if c.Status == lintcheck.StatusPassed {
			passed++
			if useColor {
				status = colorGreen + status + colorReset
			}
		} else {
			failed++
			if useColor {
				status = colorRed + status + colorReset
			}
		}
		fmt.Fprintf(w, "%s  %-16s %s  (%dms)\n", status, c.Name, c.LogPath, c.DurationMs)
	}
	if len(report.Checks) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Checks run: %d  Passed: %d  Failed: %d\n", len(report.Checks), passed, failed)
	fmt.Fprintf(w, "Run completed in %dms\n", report.DurationMs)
}

// shouldColor reports whether status lines get ANSI colors.
func shouldColor(disabled bool) bool {
	if disabled {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
