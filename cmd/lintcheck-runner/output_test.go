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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clippy-ci/lintcheck-runner/cmd/lintcheck-runner/config"
	"github.com/clippy-ci/lintcheck-runner/pkg/logging"
	"github.com/clippy-ci/lintcheck-runner/services/lintcheck"
)

// TestExitCodeFor tests the run-outcome to exit-code mapping.
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, CLIExitSuccess},
		{"lint findings", lintcheck.ErrLintFindings, CLIExitFindings},
		{"crash detected", lintcheck.ErrCrashDetected, CLIExitFindings},
		{"wrapped findings", fmt.Errorf("check: %w", lintcheck.ErrLintFindings), CLIExitFindings},
		{"checker failed", lintcheck.ErrCheckerFailed, CLIExitError},
		{"invalid config", lintcheck.ErrInvalidConfig, CLIExitError},
		{"log missing", lintcheck.ErrLogMissing, CLIExitError},
		{"unclassified", errors.New("boom"), CLIExitError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("%s: exitCodeFor() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func sampleReport() *lintcheck.RunReport {
	return &lintcheck.RunReport{
		RunID:      "run-1",
		Mode:       "all",
		StartedAt:  time.Now(),
		DurationMs: 17701,
		Checks: []lintcheck.CheckResult{
			{
				Name:       "integration",
				ConfigPath: "/ci/config/integration.toml",
				LogPath:    "/ci/logs/integration_logs.txt",
				Status:     lintcheck.StatusPassed,
				DurationMs: 9541,
			},
			{
				Name:       "passes",
				ConfigPath: "/ci/config/passes.toml",
				LogPath:    "/ci/logs/passes_logs.txt",
				Status:     lintcheck.StatusFailed,
				DurationMs: 8123,
			},
		},
	}
}

// TestRenderRunText tests the human-readable summary.
func TestRenderRunText(t *testing.T) {
	var buf bytes.Buffer
	renderRunText(&buf, sampleReport(), false)
	out := buf.String()

	for _, want := range []string{
		"Lintcheck Run: all",
		"PASSED",
		"integration",
		"/ci/logs/integration_logs.txt",
		"FAILED",
		"passes",
		"Checks run: 2  Passed: 1  Failed: 1",
		"Run completed in 17701ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, colorGreen) {
		t.Error("color codes present without useColor")
	}
}

// TestRenderRunText_Color tests that status words get ANSI colors.
func TestRenderRunText_Color(t *testing.T) {
	var buf bytes.Buffer
	renderRunText(&buf, sampleReport(), true)
	out := buf.String()

	if !strings.Contains(out, colorGreen+"PASSED") {
		t.Errorf("passed status not colored green:\n%q", out)
	}
	if !strings.Contains(out, colorRed+"FAILED") {
		t.Errorf("failed status not colored red:\n%q", out)
	}
}

// TestRenderRunText_NoChecks tests the aborted-run rendering.
func TestRenderRunText_NoChecks(t *testing.T) {
	var buf bytes.Buffer
	renderRunText(&buf, &lintcheck.RunReport{Mode: "ci"}, false)
	out := buf.String()

	if !strings.Contains(out, "No checks completed.") {
		t.Errorf("output missing empty-run line:\n%s", out)
	}
	if !strings.Contains(out, "Checks run: 0  Passed: 0  Failed: 0") {
		t.Errorf("output missing zero summary:\n%s", out)
	}
}

// TestOutputRunJSON tests the CommandResult wrapper for a clean run.
func TestOutputRunJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := outputRunJSON(&buf, time.Now(), sampleReport(), nil); err != nil {
		t.Fatalf("outputRunJSON() failed: %v", err)
	}

	var result CommandResult
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal CommandResult: %v", err)
	}
	if result.APIVersion != "1.0" {
		t.Errorf("APIVersion = %s, want 1.0", result.APIVersion)
	}
	if result.Command != "lintcheck-runner" {
		t.Errorf("Command = %s", result.Command)
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
	if !strings.Contains(buf.String(), `"name": "integration"`) {
		t.Errorf("report data missing from JSON:\n%s", buf.String())
	}
}

// TestOutputRunJSON_Error tests that a failed run keeps the partial
// report alongside the error message.
func TestOutputRunJSON_Error(t *testing.T) {
	runErr := lintcheck.NewCheckError("passes", lintcheck.ClassAssertion, lintcheck.ErrLintFindings)

	var buf bytes.Buffer
	if err := outputRunJSON(&buf, time.Now(), sampleReport(), runErr); err != nil {
		t.Fatalf("outputRunJSON() failed: %v", err)
	}

	var result CommandResult
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal CommandResult: %v", err)
	}
	if result.Success {
		t.Error("Success = true, want false")
	}
	if !strings.Contains(result.Error, "lint findings") {
		t.Errorf("Error = %q", result.Error)
	}
	if result.Data == nil {
		t.Error("Data missing, want partial report")
	}
}

// TestExecuteRun_InvalidMode tests that a bad mode token fails before
// any configuration or filesystem work.
func TestExecuteRun_InvalidMode(t *testing.T) {
	orig := runMode
	runMode = "bogus"
	defer func() { runMode = orig }()

	if got := executeRun(); got != CLIExitError {
		t.Errorf("executeRun() = %d, want %d", got, CLIExitError)
	}
}

// TestLogLevel tests the verbose override and the configured levels.
func TestLogLevel(t *testing.T) {
	orig := verboseOutput
	defer func() { verboseOutput = orig }()

	cfg := config.DefaultSettings()

	verboseOutput = true
	if got := logLevel(&cfg); got != logging.LevelDebug {
		t.Errorf("logLevel() with --verbose = %v, want debug", got)
	}

	verboseOutput = false
	cfg.Logging.Level = "error"
	if got := logLevel(&cfg); got != logging.LevelError {
		t.Errorf("logLevel() = %v, want error", got)
	}
	cfg.Logging.Level = ""
	if got := logLevel(&cfg); got != logging.LevelInfo {
		t.Errorf("logLevel() = %v, want info", got)
	}
}

// TestApplyFlagOverrides tests directory resolution and the timeout
// guard.
func TestApplyFlagOverrides(t *testing.T) {
	origLogs, origBranch, origTimeout := logsDirFlag, baseBranchFlag, timeoutFlag
	defer func() {
		logsDirFlag, baseBranchFlag, timeoutFlag = origLogs, origBranch, origTimeout
	}()

	cfg := config.DefaultSettings()
	logsDirFlag = "artifacts"
	baseBranchFlag = "origin/master"
	timeoutFlag = "45m"

	if err := applyFlagOverrides(&cfg); err != nil {
		t.Fatalf("applyFlagOverrides() failed: %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.LogsDir) {
		t.Errorf("LogsDir not absolute: %q", cfg.Paths.LogsDir)
	}
	if cfg.CI.BaseBranch != "origin/master" {
		t.Errorf("BaseBranch = %q", cfg.CI.BaseBranch)
	}
	if cfg.Checker.Timeout != "45m" {
		t.Errorf("Checker.Timeout = %q", cfg.Checker.Timeout)
	}

	timeoutFlag = "45 minutes"
	if err := applyFlagOverrides(&cfg); err == nil {
		t.Error("applyFlagOverrides() with malformed timeout should fail")
	}
}
